package mailcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (c IMAPConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 993
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// IMAPDialer returns a Dialer that opens a TLS session and logs in.
func IMAPDialer(cfg IMAPConfig) Dialer {
	return func(ctx context.Context) (Session, error) {
		return dialIMAP(ctx, cfg)
	}
}

type imapSession struct {
	c    *imapclient.Client
	done chan struct{}
}

func dialIMAP(ctx context.Context, cfg IMAPConfig) (*imapSession, error) {
	if cfg.Host == "" {
		return nil, errors.New("imap host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("imap username/password is required")
	}

	c, err := imapclient.DialTLS(cfg.addr(), &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: cfg.Host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	s := &imapSession{c: c, done: make(chan struct{})}
	// Best-effort close on context cancel.
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-s.done:
		}
	}()

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return s, nil
}

func (s *imapSession) Search(ctx context.Context, mailbox string, q Query) (int, error) {
	if _, err := s.c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		var ierr *imap.Error
		if errors.As(err, &ierr) && ierr.Code == imap.ResponseCodeNonExistent {
			return 0, ErrMailboxMissing
		}
		return 0, fmt.Errorf("imap select: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: q.Subject}},
	}
	if !q.Since.IsZero() {
		criteria.Since = q.Since
	}
	data, err := s.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("imap uid search: %w", err)
	}
	return len(data.AllUIDs()), nil
}

// Close logs out and closes the connection; logout errors are ignored.
func (s *imapSession) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	_ = s.c.Logout().Wait()
	return s.c.Close()
}
