package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Sender hands a composed message to a mail server.
type Sender interface {
	Send(ctx context.Context, from string, to []string, raw []byte) error
}

const (
	SecurityStartTLS = "starttls"
	SecurityTLS      = "tls"
	SecurityNone     = "none"
)

// SMTPSender submits mail with PLAIN auth, the way Gmail app passwords are
// used.
type SMTPSender struct {
	Host     string
	Port     int
	Security string
	Username string
	Password string
	Timeout  time.Duration
}

func (s *SMTPSender) addr() string {
	port := s.Port
	if port == 0 {
		port = 587
		if s.Security == SecurityTLS {
			port = 465
		}
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: s.Host,
	}
}

func (s *SMTPSender) dial() (*smtp.Client, error) {
	switch s.Security {
	case SecurityTLS:
		return smtp.DialTLS(s.addr(), s.tlsConfig())
	case SecurityNone:
		return smtp.Dial(s.addr())
	default:
		return smtp.DialStartTLS(s.addr(), s.tlsConfig())
	}
}

func (s *SMTPSender) Send(ctx context.Context, from string, to []string, raw []byte) error {
	if s.Host == "" {
		return fmt.Errorf("%w: smtp host is required", ErrInvalidInput)
	}
	if len(to) == 0 {
		return ErrNoRecipients
	}

	c, err := s.dial()
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", s.addr(), err)
	}
	defer c.Close()

	if s.Timeout > 0 {
		c.CommandTimeout = s.Timeout
		c.SubmissionTimeout = s.Timeout
	}

	// Best-effort close on context cancel.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	if s.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.Username, s.Password)); err != nil {
			return fmt.Errorf("smtp auth: %w", classify(err))
		}
	}

	if err := c.SendMail(from, to, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("smtp send: %w", classify(err))
	}
	// the message is accepted at this point; a failed QUIT changes nothing
	_ = c.Quit()
	return nil
}
