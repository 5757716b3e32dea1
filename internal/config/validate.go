package config

import (
	"fmt"
	"net/mail"
	"strings"

	"reportmailer/internal/report"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

const placeholderRecipient = "you@example.com"

// NormalizeAndValidate returns a normalized copy plus everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.Recipients = trimList(out.Email.Recipients)
	out.Verify.Mailboxes = trimList(out.Verify.Mailboxes)
	out.Email.SMTPHost = strings.ToLower(strings.TrimSpace(out.Email.SMTPHost))
	out.Verify.IMAPHost = strings.ToLower(strings.TrimSpace(out.Verify.IMAPHost))
	out.Email.Security = strings.ToLower(strings.TrimSpace(out.Email.Security))
	if strings.TrimSpace(out.Email.SubjectTemplate) == "" {
		out.Email.SubjectTemplate = DefaultSubjectTemplate
	}

	// ---- report ----

	out.Report.Source = strings.ToLower(strings.TrimSpace(out.Report.Source))
	if out.Report.Source == "" {
		out.Report.Source = SourceCSV
	}
	switch out.Report.Source {
	case SourceCSV:
		if strings.TrimSpace(out.Report.ProspectsCSV) == "" {
			res.addErr("report.prospects_csv is required")
		}
	case SourceSheets:
		if strings.TrimSpace(out.Report.SheetID) == "" {
			res.addErr("report.sheet_id is required for the sheets source (or set %s)", EnvSheetID)
		}
		if strings.TrimSpace(out.Report.Worksheet) == "" {
			out.Report.Worksheet = "Prospects"
		}
		if strings.TrimSpace(out.Secrets.GoogleCredentialsEnv) == "" {
			res.addErr("secrets.google_credentials_env is required for the sheets source")
		}
	default:
		res.addErr("report.source must be csv or sheets (got %q)", out.Report.Source)
	}
	checkMax := func(name string, n int) {
		switch {
		case n < 1 || n > 50:
			res.addErr("%s must be 1..50 (got %d)", name, n)
		case n > 10:
			res.addWarn("%s is %d; the daily report is meant to carry at most 10 per tier.", name, n)
		}
	}
	checkMax("report.max_high", out.Report.MaxHigh)
	checkMax("report.max_medium", out.Report.MaxMedium)

	// ---- email ----

	if len(out.Email.Recipients) == 0 {
		res.addErr("email.recipients must have at least 1 address")
	}
	for i, r := range out.Email.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			res.addErr("email.recipients[%d] %q is not a valid address", i, r)
			continue
		}
		if strings.EqualFold(r, placeholderRecipient) {
			res.addWarn("email.recipients still contains the placeholder %q; set your own address.", r)
		}
	}

	if out.Email.SMTPHost == "" {
		res.addErr("email.smtp_host is required")
	}
	if out.Email.SMTPPort <= 0 || out.Email.SMTPPort > 65535 {
		res.addErr("email.smtp_port must be 1..65535")
	}
	switch out.Email.Security {
	case "starttls", "tls":
	case "none":
		if !isLocalHost(out.Email.SMTPHost) {
			res.addWarn("email.security is none for %s; credentials would travel in clear text.", out.Email.SMTPHost)
		}
	default:
		res.addErr("email.security must be one of starttls|tls|none (got %q)", out.Email.Security)
	}
	if out.Email.TimeoutSeconds <= 0 {
		res.addErr("email.timeout_seconds must be > 0")
	}
	if out.Email.RetryAttempts < 1 {
		res.addErr("email.retry_attempts must be >= 1")
	}
	if out.Email.RetryPerMinute < 1 {
		res.addErr("email.retry_per_minute must be >= 1")
	}

	if err := report.CheckSubjectTemplate(out.Email.SubjectTemplate); err != nil {
		res.addErr("email.subject_template: %v", err)
	}

	// ---- verify ----

	if out.Verify.IMAPHost == "" {
		res.addWarn("verify.imap_host is empty; `verify` will not work.")
	}
	if out.Verify.IMAPPort <= 0 || out.Verify.IMAPPort > 65535 {
		res.addErr("verify.imap_port must be 1..65535")
	}
	if len(out.Verify.Mailboxes) == 0 {
		res.addWarn("verify.mailboxes is empty; `verify` will only search INBOX.")
	}
	if out.Verify.LookbackHours <= 0 {
		res.addErr("verify.lookback_hours must be > 0")
	}

	// ---- secrets ----

	if strings.TrimSpace(out.Secrets.UsernameEnv) == "" {
		res.addErr("secrets.username_env is required")
	}
	if strings.TrimSpace(out.Secrets.PasswordEnv) == "" {
		res.addErr("secrets.password_env is required")
	}

	return out, res
}

func isLocalHost(h string) bool {
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}
