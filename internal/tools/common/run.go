package common

import (
	"context"
	"io"
	"time"

	"github.com/sandeepkv93/products-api/internal/observability"
	"github.com/sandeepkv93/products-api/internal/tools/ui"
)

type Action func(context.Context) ([]string, error)

// Options are the flags every tool shares.
type Options struct {
	EnvFile string
	Timeout time.Duration
	CI      bool
	Out     io.Writer
}

// Run executes action either headless (CI) or behind the interactive view,
// records tool metrics and, in CI mode, prints the JSON result. A failure is
// returned as an ExitError with exitCode.
func Run(ctx context.Context, opts Options, tool, command string, exitCode int, action Action) error {
	if ctx == nil {
		ctx = context.Background()
	}
	title := tool + " " + command
	start := time.Now()

	var (
		details []string
		err     error
	)
	if opts.CI {
		runCtx, cancel := withOptionalTimeout(ctx, opts.Timeout)
		details, err = action(runCtx)
		cancel()
	} else {
		details, err = ui.Run(ctx, title, opts.Timeout, action)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordToolCommandRun(ctx, tool, command, outcome)
	observability.RecordToolCommandDuration(ctx, tool, command, outcome, time.Since(start))

	if opts.CI && opts.Out != nil {
		PrintCIResult(opts.Out, title, details, err)
	}
	return WithExitCode(exitCode, err)
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
