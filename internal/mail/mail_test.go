package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readParts(t *testing.T, raw []byte) (subject string, parts map[string]string) {
	t.Helper()
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	subject, err = mr.Header.Subject()
	require.NoError(t, err)

	parts = map[string]string{}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		h, ok := p.Header.(*gomail.InlineHeader)
		require.True(t, ok)
		ct, _, err := h.ContentType()
		require.NoError(t, err)
		b, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		parts[ct] = string(b)
	}
	return subject, parts
}

func TestCompose_TextAndHTML(t *testing.T) {
	raw, err := Compose(Message{
		From:    FormatFrom("Founder Sourcing", "bot@gmail.com"),
		To:      []string{"partner@fund.vc"},
		Subject: "Daily Founder Report - Run #12 ✓",
		Text:    "HIGH PRIORITY (1)\n1. Ada",
		HTML:    `<div data-priority="HIGH">Ada</div>`,
		Date:    time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		Headers: map[string]string{"X-Report-Run": "12\r\nBcc: evil@x.io"},
	})
	require.NoError(t, err)

	head := string(raw[:bytes.Index(raw, []byte("\r\n\r\n"))])
	assert.Contains(t, head, "Message-Id:")
	assert.Contains(t, head, "multipart/alternative")
	assert.NotContains(t, head, "\r\nBcc:")

	subject, parts := readParts(t, raw)
	assert.Equal(t, "Daily Founder Report - Run #12 ✓", subject)
	assert.Equal(t, "HIGH PRIORITY (1)\n1. Ada", strings.ReplaceAll(parts["text/plain"], "\r\n", "\n"))
	assert.Contains(t, parts["text/html"], `data-priority="HIGH"`)
}

func TestCompose_TextOnly(t *testing.T) {
	raw, err := Compose(Message{From: "bot@gmail.com", To: []string{"a@fund.vc"}, Subject: "s", Text: "hello"})
	require.NoError(t, err)
	_, parts := readParts(t, raw)
	assert.Len(t, parts, 1)
	assert.Contains(t, parts, "text/plain")
}

func TestCompose_Errors(t *testing.T) {
	_, err := Compose(Message{From: "bot@gmail.com"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = Compose(Message{From: "bot", To: []string{"a@fund.vc"}})
	assert.Error(t, err)

	_, err = Compose(Message{From: "bot@gmail.com", To: []string{"nope"}})
	assert.Error(t, err)
}

func TestEnvelope(t *testing.T) {
	from, to, err := Envelope(Message{
		From: `"Founder Sourcing" <bot@gmail.com>`,
		To:   []string{"Partner <p@fund.vc>", "q@fund.vc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bot@gmail.com", from)
	assert.Equal(t, []string{"p@fund.vc", "q@fund.vc"}, to)

	_, _, err = Envelope(Message{From: "bot@gmail.com"})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, "bot@gmail.com", FormatFrom(" ", "bot@gmail.com"))
	assert.Equal(t, `"Founder Sourcing" <bot@gmail.com>`, FormatFrom("Founder Sourcing", "bot@gmail.com"))
}

func TestClassify(t *testing.T) {
	auth := classify(&smtp.SMTPError{Code: 535, Message: "Username and Password not accepted"})
	assert.ErrorIs(t, auth, ErrAuth)
	assert.False(t, Retryable(auth))

	perm := classify(&smtp.SMTPError{Code: 550, Message: "mailbox unavailable"})
	assert.ErrorIs(t, perm, ErrPermanent)
	assert.False(t, Retryable(perm))

	temp := classify(&smtp.SMTPError{Code: 421, Message: "try again later"})
	assert.True(t, Retryable(temp))

	assert.True(t, Retryable(errors.New("connection reset")))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(nil))
}

func TestRetryable_InputAndCertificateErrorsArePermanent(t *testing.T) {
	err := (&SMTPSender{}).Send(context.Background(), "a@b.c", []string{"d@e.f"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, Retryable(err))

	certErrs := []error{
		x509.UnknownAuthorityError{},
		x509.HostnameError{Host: "smtp.gmail.com"},
		x509.CertificateInvalidError{Reason: x509.Expired},
		&tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}},
	}
	for _, ce := range certErrs {
		wrapped := fmt.Errorf("smtp dial smtp.gmail.com:587: %w", ce)
		assert.False(t, Retryable(wrapped), "%T", ce)
	}

	assert.True(t, Retryable(fmt.Errorf("smtp dial: %w", errors.New("tls: handshake timeout"))))
}

func TestDeliver_DoesNotRetryInvalidInput(t *testing.T) {
	n, err := Deliver(context.Background(), &SMTPSender{}, "bot@gmail.com", []string{"a@fund.vc"}, []byte("x"), fast)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, n)
}

type fakeSender struct {
	errs  []error
	calls int
	got   []byte
}

func (f *fakeSender) Send(_ context.Context, _ string, _ []string, raw []byte) error {
	f.calls++
	f.got = raw
	if len(f.errs) >= f.calls {
		return f.errs[f.calls-1]
	}
	return nil
}

var fast = RetryPolicy{Attempts: 3, PerMinute: 60000}

func TestDeliver_RetriesTransient(t *testing.T) {
	s := &fakeSender{errs: []error{errors.New("timeout"), errors.New("reset")}}
	n, err := Deliver(context.Background(), s, "bot@gmail.com", []string{"a@fund.vc"}, []byte("x"), fast)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("x"), s.got)
}

func TestDeliver_StopsOnAuth(t *testing.T) {
	s := &fakeSender{errs: []error{classify(&smtp.SMTPError{Code: 535})}}
	n, err := Deliver(context.Background(), s, "bot@gmail.com", []string{"a@fund.vc"}, []byte("x"), fast)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, 1, n)
}

func TestDeliver_GivesUp(t *testing.T) {
	boom := errors.New("boom")
	s := &fakeSender{errs: []error{boom, boom, boom, boom}}
	n, err := Deliver(context.Background(), s, "bot@gmail.com", []string{"a@fund.vc"}, []byte("x"), fast)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, n)
}

func TestDeliver_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeSender{}
	n, err := Deliver(ctx, s, "bot@gmail.com", []string{"a@fund.vc"}, []byte("x"), fast)
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, s.calls)
}

func TestSMTPSender_Addr(t *testing.T) {
	assert.Equal(t, "smtp.gmail.com:587", (&SMTPSender{Host: "smtp.gmail.com"}).addr())
	assert.Equal(t, "smtp.gmail.com:465", (&SMTPSender{Host: "smtp.gmail.com", Security: SecurityTLS}).addr())
	assert.Equal(t, "localhost:2525", (&SMTPSender{Host: "localhost", Port: 2525}).addr())
}

func TestSMTPSender_RejectsBadInput(t *testing.T) {
	assert.Error(t, (&SMTPSender{}).Send(context.Background(), "a@b.c", []string{"d@e.f"}, nil))
	assert.ErrorIs(t, (&SMTPSender{Host: "localhost"}).Send(context.Background(), "a@b.c", nil, nil), ErrNoRecipients)
}
