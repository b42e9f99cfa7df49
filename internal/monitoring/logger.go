// Package monitoring holds the diagnostic logger shared by the analysis
// packages. Library code never calls the log package directly so that tests
// and the CLI can redirect or mute it.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

var warnings atomic.Int64

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a skip-and-continue condition: a dropped row, a skipped peak
// or an unreadable table. Each call is counted.
func Warnf(format string, v ...interface{}) {
	warnings.Add(1)
	Logf("warning: "+format, v...)
}

// Warnings returns the number of Warnf calls since the last ResetWarnings.
func Warnings() int64 {
	return warnings.Load()
}

// ResetWarnings zeroes the warning counter.
func ResetWarnings() {
	warnings.Store(0)
}
