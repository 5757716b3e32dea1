package mail

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-smtp"
	"golang.org/x/time/rate"

	"reportmailer/internal/logger"
)

var (
	// ErrAuth means the server rejected the credentials. Retrying will not help.
	ErrAuth = errors.New("authentication rejected; verify the EMAIL_USERNAME / EMAIL_PASSWORD secrets (an app password is required when 2-Step Verification is on)")
	// ErrPermanent wraps any other 5xx reply.
	ErrPermanent = errors.New("permanent smtp failure")
	// ErrInvalidInput means the sender was misconfigured before any network
	// traffic happened.
	ErrInvalidInput = errors.New("invalid smtp input")
)

// classify maps SMTP replies onto ErrAuth / ErrPermanent, keeping the
// original error in the chain.
func classify(err error) error {
	var se *smtp.SMTPError
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.Code == 530 || se.Code == 534 || se.Code == 535:
		return fmt.Errorf("%w: %w", ErrAuth, err)
	case se.Code >= 500:
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	default:
		return err
	}
}

// Retryable reports whether another attempt could succeed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrNoRecipients) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !certificateError(err)
}

// certificateError reports a TLS certificate verification failure.
func certificateError(err error) bool {
	var (
		verr *tls.CertificateVerificationError
		uerr x509.UnknownAuthorityError
		herr x509.HostnameError
		ierr x509.CertificateInvalidError
	)
	return errors.As(err, &verr) || errors.As(err, &uerr) ||
		errors.As(err, &herr) || errors.As(err, &ierr)
}

type RetryPolicy struct {
	Attempts  int
	PerMinute int
}

// Deliver sends raw, retrying transient failures. Attempts are paced by a
// token bucket; the first one goes out immediately.
func Deliver(ctx context.Context, s Sender, from string, to []string, raw []byte, p RetryPolicy) (attempts int, err error) {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.PerMinute < 1 {
		p.PerMinute = 6
	}
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(p.PerMinute)), 1)

	for attempts < p.Attempts {
		if werr := lim.Wait(ctx); werr != nil {
			if err == nil {
				err = werr
			}
			return attempts, err
		}
		attempts++

		err = s.Send(ctx, from, to, raw)
		if err == nil {
			return attempts, nil
		}
		if !Retryable(err) {
			return attempts, err
		}
		logger.Warn("send attempt failed", "attempt", attempts, "of", p.Attempts, "err", err)
	}
	return attempts, err
}
