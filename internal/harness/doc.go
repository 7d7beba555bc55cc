// Package harness validates the compiler against a reference runtime.
//
// Every test source under the configured directories is executed twice:
// once by the reference runtime and once through the candidate command
// (optionally after a compile step). The two outputs are compared byte for
// byte. A process that writes anything to stderr is judged by its stderr
// instead of its stdout.
//
// # Configuration
//
// The harness reads runtests.toml:
//
//	[reference]
//	runtime = "/usr/bin/php"
//	name = "php"
//
//	[candidate]
//	compile = ["boundc", "emit", "{tree}"]
//	run = ["boundc", "run", "{tree}"]
//
//	[tests]
//	dirs = ["tests"]
//	extension = ".php"
//
//	[run]
//	jobs = 4
//	timeout = "30s"
//
// Command templates may use {test} (the test source), {tree} (the bound
// syntax document beside it), {out} (a per-test file in the work
// directory) and {workdir}.
//
// # Outcomes
//
//   - Succeeded: both outputs are identical
//   - Failed: the outputs differ
//   - Crashed: the compile step failed, or the candidate could not be
//     started or timed out
//   - Unknown: no expected output could be obtained
package harness
