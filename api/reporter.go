package api

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

// DefaultReporter returns a reporter that writes to the operating systems
// standard error output.
func DefaultReporter() func(error) {
	return NewReporter(os.Stderr)
}

// NewReporter returns a reporter that writes the error and the reporting
// stack trace to the specified writer.
func NewReporter(out io.Writer) func(error) {
	return func(err error) {
		fmt.Fprintf(out, "error: %s\n%s", err.Error(), debug.Stack())
	}
}
