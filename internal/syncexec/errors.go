package syncexec

import (
	"context"
	"errors"

	"github.com/tonimelisma/cloudsync/internal/remote"
)

// ErrorTier classifies an action failure for the pass loop's recovery
// decision.
type ErrorTier int

const (
	// ErrorSkip: log against the path and continue with the next one.
	ErrorSkip ErrorTier = iota
	// ErrorRetryable: transient; the next scheduled pass will retry it
	// (§7 specifies no retry-with-backoff inside one pass).
	ErrorRetryable
	// ErrorFatal: abort the pass entirely.
	ErrorFatal
)

// classifyError maps an action error to an ErrorTier per §7's policy:
// per-path errors are caught and logged, fatal errors abort the pass.
func classifyError(err error) ErrorTier {
	if err == nil {
		return ErrorSkip
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorFatal
	}

	if errors.Is(err, remote.ErrUnauthorized) {
		return ErrorFatal
	}

	if errors.Is(err, remote.ErrTransport) {
		return ErrorRetryable
	}

	return ErrorSkip
}
