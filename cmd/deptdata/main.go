// Command deptdata validates and transforms departmental data files from the
// command line, without starting the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/JonMunkholm/deptdata/internal/core"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

// Exit codes
const (
	exitFailure = 1 // processing or I/O failure
	exitUsage   = 2 // bad flags or rule catalog
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		code := exitFailure
		var ee *exitErr
		if errors.As(err, &ee) {
			code = ee.code
		}
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(err))
			fmt.Fprintln(os.Stderr, "Detail:", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}
