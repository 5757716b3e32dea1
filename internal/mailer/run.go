// Package mailer runs one daily report delivery end to end.
package mailer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"

	"reportmailer/internal/config"
	"reportmailer/internal/domain"
	"reportmailer/internal/logger"
	"reportmailer/internal/mail"
	"reportmailer/internal/prospects"
	"reportmailer/internal/rank"
	"reportmailer/internal/report"
	"reportmailer/internal/runlock"
	"reportmailer/internal/secrets"
	"reportmailer/internal/store"
)

// RunCounter names the local counter used when CI does not supply a run number.
const RunCounter = "run_number"

var ErrAlreadySent = errors.New("report already sent for this run; use --force to send again")

type Deps struct {
	Config config.Config
	DB     *sql.DB
	Getenv func(string) string
	Now    func() time.Time
	// NewSender builds the transport once credentials are known.
	// Defaults to an SMTPSender for the configured host.
	NewSender func(cfg config.Config, creds secrets.Credentials) mail.Sender
	// SheetOptions replace the service-account credentials for the
	// sheets source when set.
	SheetOptions []option.ClientOption
}

type Options struct {
	DryRun    bool
	Force     bool
	RunNumber int64
	HTMLPath  string
	CSVPath   string
	LockWait  time.Duration
}

type Result struct {
	RunNumber  int64
	Subject    string
	Report     domain.Report
	Status     domain.DeliveryStatus
	Skipped    bool
	Attempts   int
	OutboxPath string
	Warnings   []string
}

func (d *Deps) defaults() {
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewSender == nil {
		d.NewSender = SMTPSenderFor
	}
}

// SMTPSenderFor is the production transport.
func SMTPSenderFor(cfg config.Config, creds secrets.Credentials) mail.Sender {
	return &mail.SMTPSender{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Security: cfg.Email.Security,
		Username: creds.Username,
		Password: creds.Password,
		Timeout:  time.Duration(cfg.Email.TimeoutSeconds) * time.Second,
	}
}

func Run(ctx context.Context, d Deps, opts Options) (Result, error) {
	d.defaults()
	cfg := d.Config
	var res Result

	lock, err := runlock.Acquire(ctx, cfg.App.DataDir, opts.LockWait)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release run lock", "err", err)
		}
	}()

	run, err := resolveRunNumber(ctx, d.DB, opts.RunNumber, d.Getenv)
	if err != nil {
		return res, err
	}
	res.RunNumber = run
	logger.Info("starting report run", "run", run, "dry_run", opts.DryRun)

	if !opts.Force && !opts.DryRun {
		sent, err := store.SentForRun(ctx, d.DB, run)
		if err != nil {
			return res, fmt.Errorf("check ledger: %w", err)
		}
		if sent {
			return res, fmt.Errorf("run %d: %w", run, ErrAlreadySent)
		}
	}

	loaded, err := loadProspects(ctx, d, opts)
	if err != nil {
		return res, err
	}
	res.Warnings = append(res.Warnings, loaded.Warnings...)

	limits := report.Limits{High: cfg.Report.MaxHigh, Medium: cfg.Report.MaxMedium}
	rep := rank.Select(loaded.Candidates, limits)
	rep.RunNumber = run
	rep.GeneratedAt = d.Now()
	rep.WorkflowURL = WorkflowURL(d.Getenv)
	res.Report = rep
	logger.Info("selected candidates", "high", len(rep.High), "medium", len(rep.Medium),
		"total", rep.Stats.Total, "duplicates", rep.Stats.Duplicates)

	if rep.Empty() && cfg.Email.SkipIfEmpty {
		logger.Info("no HIGH or MEDIUM candidates; skipping email", "run", run)
		res.Skipped = true
		return res, nil
	}

	html, lintWarnings, err := loadHTML(firstNonEmpty(opts.HTMLPath, cfg.Report.HTMLPath), limits)
	if err != nil {
		return res, err
	}
	res.Warnings = append(res.Warnings, lintWarnings...)

	subject, err := report.RenderSubject(cfg.Email.SubjectTemplate,
		report.NewSubjectData(run, rep.GeneratedAt, len(rep.High), len(rep.Medium)))
	if err != nil {
		return res, err
	}
	res.Subject = subject

	var text bytes.Buffer
	if err := report.WriteDigest(&text, rep); err != nil {
		return res, fmt.Errorf("write digest: %w", err)
	}

	msg := mail.Message{
		To:      cfg.Email.Recipients,
		Subject: subject,
		Text:    text.String(),
		HTML:    html,
		Date:    rep.GeneratedAt,
		Headers: map[string]string{"X-Report-Run": strconv.FormatInt(run, 10)},
	}
	delivery := domain.Delivery{
		RunNumber:   run,
		Subject:     subject,
		Recipients:  cfg.Email.Recipients,
		HighCount:   len(rep.High),
		MediumCount: len(rep.Medium),
		CreatedAt:   rep.GeneratedAt,
	}

	if opts.DryRun {
		return dryRun(ctx, d, msg, delivery, res)
	}
	return send(ctx, d, msg, delivery, res)
}

func dryRun(ctx context.Context, d Deps, msg mail.Message, delivery domain.Delivery, res Result) (Result, error) {
	user := strings.TrimSpace(d.Getenv(d.Config.Secrets.UsernameEnv))
	if user == "" {
		user = "reportmailer@localhost"
	}
	msg.From = mail.FormatFrom(d.Config.Email.FromName, user)

	raw, err := mail.Compose(msg)
	if err != nil {
		return res, err
	}

	dir := filepath.Join(d.Config.App.DataDir, "outbox")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, err
	}
	path := filepath.Join(dir, fmt.Sprintf("run-%d.eml", delivery.RunNumber))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return res, fmt.Errorf("write outbox: %w", err)
	}
	res.OutboxPath = path

	delivery.Status = domain.StatusDryRun
	if _, err := store.RecordDelivery(ctx, d.DB, delivery); err != nil {
		return res, err
	}
	res.Status = domain.StatusDryRun
	logger.Info("dry run; message written", "path", path, "subject", res.Subject)
	return res, nil
}

func send(ctx context.Context, d Deps, msg mail.Message, delivery domain.Delivery, res Result) (Result, error) {
	cfg := d.Config

	fail := func(attempts int, cause error) (Result, error) {
		delivery.Status = domain.StatusFailed
		delivery.Attempts = attempts
		delivery.Error = cause.Error()
		res.Status = domain.StatusFailed
		res.Attempts = attempts
		if _, err := store.RecordDelivery(ctx, d.DB, delivery); err != nil {
			logger.Error("record failed delivery", "run", delivery.RunNumber, "err", err)
		}
		return res, cause
	}

	creds, err := secrets.Resolve(cfg, d.Getenv)
	if err != nil {
		return fail(0, err)
	}
	errs, warnings := secrets.Validate(creds, cfg.Email.SMTPHost)
	for _, w := range warnings {
		logger.Warn("credentials", "warning", w)
	}
	res.Warnings = append(res.Warnings, warnings...)
	if len(errs) > 0 {
		return fail(0, fmt.Errorf("invalid credentials for %s:\n- %s", secrets.Mask(creds.Username), strings.Join(errs, "\n- ")))
	}
	logger.Debug("credentials resolved", "username", secrets.Mask(creds.Username), "password_source", creds.PasswordSource)

	msg.From = mail.FormatFrom(cfg.Email.FromName, creds.Username)
	raw, err := mail.Compose(msg)
	if err != nil {
		return fail(0, err)
	}
	from, to, err := mail.Envelope(msg)
	if err != nil {
		return fail(0, err)
	}

	attempts, err := mail.Deliver(ctx, d.NewSender(cfg, creds), from, to, raw, mail.RetryPolicy{
		Attempts:  cfg.Email.RetryAttempts,
		PerMinute: cfg.Email.RetryPerMinute,
	})
	if err != nil {
		return fail(attempts, fmt.Errorf("deliver run %d: %w", delivery.RunNumber, err))
	}

	delivery.Status = domain.StatusSent
	delivery.Attempts = attempts
	inserted, err := store.RecordDelivery(ctx, d.DB, delivery)
	if err != nil {
		// the mail went out; a ledger failure must not hide that
		logger.Error("record sent delivery", "run", delivery.RunNumber, "err", err)
	} else if !inserted {
		logger.Warn("run already had a sent row; ledger unchanged", "run", delivery.RunNumber)
	}

	res.Status = domain.StatusSent
	res.Attempts = attempts
	logger.Info("report sent", "run", delivery.RunNumber, "recipients", len(to), "attempts", attempts)
	return res, nil
}

// resolveRunNumber prefers the flag, then the CI run number, then the
// local counter. Numbers from outside are observed so the local counter
// never reuses them.
func resolveRunNumber(ctx context.Context, db *sql.DB, flag int64, getenv func(string) string) (int64, error) {
	n := flag
	if n <= 0 {
		if raw := strings.TrimSpace(getenv("GITHUB_RUN_NUMBER")); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v <= 0 {
				logger.Warn("ignoring GITHUB_RUN_NUMBER", "value", raw)
			} else {
				n = v
			}
		}
	}
	if n > 0 {
		if err := store.ObserveRunNumber(ctx, db, RunCounter, n); err != nil {
			return 0, fmt.Errorf("observe run number: %w", err)
		}
		return n, nil
	}
	n, err := store.NextRunNumber(ctx, db, RunCounter)
	if err != nil {
		return 0, fmt.Errorf("next run number: %w", err)
	}
	return n, nil
}

// WorkflowURL links the email back to the Actions run that sent it.
func WorkflowURL(getenv func(string) string) string {
	repo := strings.TrimSpace(getenv("GITHUB_REPOSITORY"))
	id := strings.TrimSpace(getenv("GITHUB_RUN_ID"))
	if repo == "" || id == "" {
		return ""
	}
	server := strings.TrimRight(strings.TrimSpace(getenv("GITHUB_SERVER_URL")), "/")
	if server == "" {
		server = "https://github.com"
	}
	return server + "/" + repo + "/actions/runs/" + id
}

// loadProspects reads the configured store. An explicit CSV path always
// wins over the configured source.
func loadProspects(ctx context.Context, d Deps, opts Options) (prospects.Load, error) {
	cfg := d.Config
	if opts.CSVPath != "" || cfg.Report.Source != config.SourceSheets {
		path := firstNonEmpty(opts.CSVPath, cfg.Report.ProspectsCSV)
		loaded, err := prospects.LoadCSV(path)
		if err != nil {
			return loaded, err
		}
		for _, w := range loaded.Warnings {
			logger.Warn("prospects", "file", path, "warning", w)
		}
		return loaded, nil
	}

	copts := d.SheetOptions
	if copts == nil {
		var err error
		copts, err = prospects.SheetCredentials(d.Getenv, cfg.Secrets.GoogleCredentialsEnv)
		if err != nil {
			return prospects.Load{}, err
		}
	}
	loaded, err := prospects.LoadSheet(ctx, cfg.Report.SheetID, cfg.Report.Worksheet, copts...)
	if err != nil {
		return loaded, err
	}
	for _, w := range loaded.Warnings {
		logger.Warn("prospects", "sheet", cfg.Report.SheetID, "worksheet", cfg.Report.Worksheet, "warning", w)
	}
	logger.Debug("prospects loaded from sheet", "rows", len(loaded.Candidates))
	return loaded, nil
}

func loadHTML(path string, limits report.Limits) (string, []string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read html report: %w", err)
	}
	lint, err := report.LintHTML(bytes.NewReader(b), limits)
	if err != nil {
		return "", nil, fmt.Errorf("html report %s: %w", path, err)
	}
	for _, w := range lint.Warnings {
		logger.Warn("html report", "file", path, "warning", w)
	}
	return string(b), lint.Warnings, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
