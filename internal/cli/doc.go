// Parses flags and configures logging for the specrun CLI.
//
// The tool accepts the following global flags:
//
//	-q, --quiet     Suppress phase notices and informational output.
//	-d, --debug     Enable debug output.
//
// Flags override build-time defaults set via linker flags, which in turn
// override values from the user configuration file. After parsing, the
// global logger is reconfigured to reflect the final level before the
// selected subcommand runs.
//
// A run's final exit code is carried out of the command via [ExitError]
// so the process can exit with the build's own status.
package cli
