// Package program compiles build specifications into executable phase
// programs.
//
// A [Program] runs the four fixed phases in order against a
// [CommandRunner], reproducing the failure-propagation rules of the
// remote build service: a failure in install or pre_build ends the run
// immediately, a failure in build is deferred so that post_build still
// executes, and the deferred build status always wins over a later
// post_build result. Commands after the first failure within a phase are
// skipped without being executed.
//
// The program is an explicit state machine ([State]) rather than
// generated shell text. Sequencing is guaranteed by the machine itself;
// no concurrency is involved. Progress notices flow through a
// [Notifier], which quiet mode replaces with a no-op so that diagnostic
// output stays silent without changing any control flow.
//
// Example usage:
//
//	prog := program.Compile(spec, false)
//	code, err := prog.Execute(ctx, runner, program.NewLogNotifier(logger))
//	if err != nil {
//	    return err
//	}
//	os.Exit(code)
package program
