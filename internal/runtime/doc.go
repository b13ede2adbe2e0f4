// Package runtime manages build containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon and provides image
// resolution and container creation. Images are either pulled from a
// registry or imported from a local OCI archive, unpacked for the target
// platform, and used to create containers with overlayfs snapshots. The
// build container mounts the project source read-only and runs a
// long-lived task so commands can be executed against it.
//
// Each [Container] wraps a running containerd task. Commands run through
// streaming execs whose stdout and stderr are wired straight to
// caller-supplied sinks as output arrives. When the container is no
// longer needed it should be stopped and destroyed to release its
// snapshot and task resources.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "specrun")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ctr, err := rt.CreateContainer(ctx, runtime.CreateOptions{
//	    Image:     "docker.io/library/alpine:latest",
//	    ID:        "build-1",
//	    SourceDir: "/home/dev/project",
//	})
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	code, err := ctr.Exec(ctx, runtime.ExecOptions{
//	    Command: "make",
//	    Stdout:  os.Stdout,
//	    Stderr:  os.Stderr,
//	})
package runtime
