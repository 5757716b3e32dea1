package mailcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reportmailer/internal/logger"
)

// ErrMailboxMissing is reported for a configured mailbox the server does
// not have (Gmail folder names differ per locale).
var ErrMailboxMissing = errors.New("mailbox does not exist")

type Query struct {
	Subject   string
	Since     time.Time
	Mailboxes []string
}

// Session is one logged-in IMAP connection. Sessions are not shared
// between goroutines.
type Session interface {
	Search(ctx context.Context, mailbox string, q Query) (int, error)
	Close() error
}

type Dialer func(ctx context.Context) (Session, error)

type MailboxResult struct {
	Mailbox string
	Found   int
	Err     error
}

type Verdict string

const (
	VerdictInbox   Verdict = "inbox"
	VerdictSpam    Verdict = "spam"
	VerdictOther   Verdict = "other"
	VerdictMissing Verdict = "missing"
)

// Check searches every mailbox in q concurrently, one session each.
// Per-mailbox failures land in the results; an error is returned only
// when no mailbox could be searched at all.
func Check(ctx context.Context, dial Dialer, q Query) ([]MailboxResult, error) {
	if strings.TrimSpace(q.Subject) == "" {
		return nil, errors.New("subject is required")
	}
	if len(q.Mailboxes) == 0 {
		return nil, errors.New("no mailboxes to search")
	}

	results := make([]MailboxResult, len(q.Mailboxes))
	g, gctx := errgroup.WithContext(ctx)
	for i, mb := range q.Mailboxes {
		g.Go(func() error {
			results[i] = searchOne(gctx, dial, mb, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err == nil {
			return results, nil
		}
		errs = append(errs, r.Err)
	}
	return results, errors.Join(errs...)
}

func searchOne(ctx context.Context, dial Dialer, mailbox string, q Query) MailboxResult {
	res := MailboxResult{Mailbox: mailbox}

	s, err := dial(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", mailbox, err)
		return res
	}
	defer func() { _ = s.Close() }()

	n, err := s.Search(ctx, mailbox, q)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", mailbox, err)
		return res
	}
	res.Found = n
	logger.Debug("mailbox searched", "mailbox", mailbox, "found", n)
	return res
}

// Summary folds mailbox results into where the report landed. INBOX wins
// over spam, spam over any other folder.
func Summary(results []MailboxResult) Verdict {
	v := VerdictMissing
	for _, r := range results {
		if r.Err != nil || r.Found == 0 {
			continue
		}
		switch {
		case strings.EqualFold(r.Mailbox, "INBOX"):
			return VerdictInbox
		case isSpamFolder(r.Mailbox):
			v = VerdictSpam
		case v == VerdictMissing:
			v = VerdictOther
		}
	}
	return v
}

func isSpamFolder(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "spam") || strings.Contains(n, "junk")
}

// Hint is the operator-facing next step for a verdict.
func Hint(v Verdict) string {
	switch v {
	case VerdictInbox:
		return "delivered to the inbox"
	case VerdictSpam:
		return "delivered to spam; mark it as not spam and add the sender to contacts"
	case VerdictOther:
		return "delivered to a secondary folder; check the Promotions/Updates tabs or filters"
	default:
		return "not found; check the workflow logs, the recipients list, and the lookback window"
	}
}
