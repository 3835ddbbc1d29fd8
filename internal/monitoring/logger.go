package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be swapped out with SetLogger; tests typically mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that tags every line with the given subsystem
// name before forwarding to the package logger. The returned function reads
// Logf at call time, so it respects later SetLogger calls.
func Prefixed(subsystem string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf("["+subsystem+"] "+format, v...)
	}
}
