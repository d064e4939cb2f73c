package frontend

import (
	"wow_check/analysispool"
	"wow_check/share"

	"github.com/dpapathanasiou/go-recaptcha"
	"github.com/pkg/errors"
)

// NewCaptcha returns a reCAPTCHA v3 check, or nil when secret is empty.
func NewCaptcha(secret string) analysispool.CaptchaFunc {
	if secret == "" {
		return nil
	}
	recaptcha.Init(secret)

	return func(remoteIP, token string) bool {
		if token == "" {
			return false
		}
		ok, err := recaptcha.Confirm(remoteIP, token)
		if err != nil {
			share.Report(errors.WithStack(err))
			return false
		}
		return ok
	}
}
