// Resolves the project source directory for a build run.
//
// The core only ever reads the resolved path; the container mounts it
// read-only and builds run against a writable copy staged inside the
// container.
package source
