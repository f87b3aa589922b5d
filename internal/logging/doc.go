// Package logging provides opt-in file-based logging with rotation for benchgate.
// When the --debug flag is set, debug-level JSON logs are written to
// ~/.benchgate/logs/benchgate.log.
//
// Without --debug only warnings and errors are logged, to stderr, so CI
// output stays readable.
package logging
