package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/wat-calc/errors"
)

type executionTimeoutKey struct{}

// WithExecutionTimeout returns a context with timeout that also records the
// duration so errors can report the configured limit.
func WithExecutionTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return context.WithValue(ctx, executionTimeoutKey{}, timeout), cancel
}

// HumanizeError maps an error from a calc call to a runtime error:
// KindTimeout for an expired deadline, KindCanceled for cancellation,
// KindTrap otherwise.
func HumanizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if isDeadline(err) {
		b := errors.New(errors.PhaseRuntime, errors.KindTimeout).Cause(err)
		if timeout, ok := ctx.Value(executionTimeoutKey{}).(time.Duration); ok && timeout > 0 {
			return b.Value(timeout).Detailf("module exceeded the execution time limit (%s)", timeout).Build()
		}
		return b.Detail("module exceeded the execution time limit").Build()
	}
	if isCanceled(err) {
		return errors.New(errors.PhaseRuntime, errors.KindCanceled).
			Cause(err).
			Detail("module execution was canceled").
			Build()
	}
	return errors.Wrap(errors.PhaseRuntime, errors.KindTrap, err, "calc trapped")
}

func isDeadline(err error) bool {
	var exit *sys.ExitError
	if stderrors.As(err, &exit) && exit.ExitCode() == sys.ExitCodeDeadlineExceeded {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "context deadline exceeded")
}

func isCanceled(err error) bool {
	var exit *sys.ExitError
	if stderrors.As(err, &exit) && exit.ExitCode() == sys.ExitCodeContextCanceled {
		return true
	}
	return stderrors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled")
}
