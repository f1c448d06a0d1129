// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"os"
	"runtime/debug"
)

// PanicError is a recovered panic with the stack of the goroutine that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run calls fn and returns a *PanicError if it panics.
// Use it for pipeline goroutines whose failure should surface as an error.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// HandlePanic should be deferred at the top of main() or goroutines.
// It writes panic details to stderr and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		fatal(r, debug.Stack())
		os.Exit(1)
	}
}

// HandlePanicFunc writes panic details, calls cleanup, then exits with code 1.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		fatal(r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
		os.Exit(1)
	}
}

// fatal writes straight to stderr; the configured logger may be what failed
func fatal(r any, stack []byte) {
	if pe, ok := r.(*PanicError); ok {
		r, stack = pe.Value, pe.Stack
	}
	_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
}
