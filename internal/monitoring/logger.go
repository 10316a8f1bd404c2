// Package monitoring holds the diagnostic logger shared by library packages
// and the frame statistics reported by the vision service.
package monitoring

import (
	"log"
	"sync/atomic"
)

// LogFunc is a printf-style logger.
type LogFunc func(format string, v ...interface{})

var logger atomic.Pointer[LogFunc]

func init() {
	SetLogger(log.Printf)
}

// Logf writes through the current package logger. It defaults to log.Printf.
// Capture goroutines log through it, so swapping the logger is race free.
func Logf(format string, v ...interface{}) {
	(*logger.Load())(format, v...)
}

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f LogFunc) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	logger.Store(&f)
}

// Component returns a logger that prefixes every line with "[name] ".
func Component(name string) LogFunc {
	prefix := "[" + name + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
