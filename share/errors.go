package share

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

// IsContextClosedError reports whether err only means the caller went away.
func IsContextClosedError(err error) bool {
	if err == nil {
		return false
	}

	err = errors.Cause(err)
	if e, ok := err.(*url.Error); ok {
		err = e.Err
	}

	switch errors.Cause(err) {
	case context.Canceled:
	case context.DeadlineExceeded:
	default:
		return false
	}

	return true
}

// Report sends err to sentry and prints it with its stack. Context
// cancellation is ignored.
func Report(err error) {
	if err == nil || IsContextClosedError(err) {
		return
	}

	CaptureException(err)
	printStack(err)
}
