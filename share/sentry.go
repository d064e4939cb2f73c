package share

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
)

var sentryEnabled bool

// InitSentry enables error reporting. An empty dsn keeps it disabled.
func InitSentry(dsn string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(
		sentry.ClientOptions{
			Dsn:           dsn,
			HTTPTransport: new(http.Transport),
		},
	)
	if err != nil {
		return errors.WithStack(err)
	}

	sentryEnabled = true
	return nil
}

func FlushSentry() {
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}

func CaptureException(err error) {
	if sentryEnabled {
		sentry.CaptureException(err)
	}
}

func printStack(err error) {
	fmt.Printf("%+v\n", errors.WithStack(err))
}
