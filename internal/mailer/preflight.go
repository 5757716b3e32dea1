package mailer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reportmailer/internal/config"
	"reportmailer/internal/mailcheck"
	"reportmailer/internal/prospects"
	"reportmailer/internal/secrets"
	"reportmailer/internal/store"
)

// Preflight is the outcome of checking config and secrets without sending.
type Preflight struct {
	Username       string // masked
	PasswordSource string
	Errors         []string
	Warnings       []string
}

func (p Preflight) OK() bool { return len(p.Errors) == 0 }

func Check(cfg config.Config, getenv func(string) string) Preflight {
	var p Preflight

	norm, v := config.NormalizeAndValidate(cfg)
	p.Errors = append(p.Errors, v.Errors...)
	p.Warnings = append(p.Warnings, v.Warnings...)
	if norm.Report.Source == config.SourceSheets {
		if _, err := prospects.SheetCredentials(getenv, norm.Secrets.GoogleCredentialsEnv); err != nil {
			p.Errors = append(p.Errors, err.Error())
		}
	}

	creds, err := secrets.Resolve(cfg, getenv)
	p.Username = secrets.Mask(creds.Username)
	p.PasswordSource = creds.PasswordSource
	if err != nil {
		p.Errors = append(p.Errors, err.Error())
		return p
	}
	errs, warnings := secrets.Validate(creds, cfg.Email.SMTPHost)
	p.Errors = append(p.Errors, errs...)
	p.Warnings = append(p.Warnings, warnings...)
	return p
}

// VerifyQuery builds the mailcheck query for a delivery. An explicit
// subject wins; otherwise the latest sent delivery (for run, or any run
// when run is 0) supplies it.
func VerifyQuery(ctx context.Context, db *sql.DB, cfg config.Config, run int64, subject string, now time.Time) (mailcheck.Query, error) {
	q := mailcheck.Query{Mailboxes: cfg.Verify.Mailboxes}
	if len(q.Mailboxes) == 0 {
		q.Mailboxes = []string{"INBOX"}
	}

	hours := cfg.Verify.LookbackHours
	if hours <= 0 {
		hours = 24
	}
	q.Since = now.Add(-time.Duration(hours) * time.Hour)

	if s := strings.TrimSpace(subject); s != "" {
		q.Subject = s
		return q, nil
	}

	d, ok, err := store.LastSent(ctx, db, run)
	if err != nil {
		return q, fmt.Errorf("read ledger: %w", err)
	}
	if !ok {
		if run > 0 {
			return q, fmt.Errorf("no sent delivery recorded for run %d; pass --subject", run)
		}
		return q, errors.New("no sent delivery recorded yet; pass --subject")
	}
	q.Subject = d.Subject
	// IMAP SINCE has day granularity; widen so the send day is always covered.
	if d.CreatedAt.Before(q.Since) {
		q.Since = d.CreatedAt
	}
	return q, nil
}
