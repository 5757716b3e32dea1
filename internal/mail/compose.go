package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

var ErrNoRecipients = errors.New("no recipients")

// Message is one outgoing email. Text is always sent; HTML is added as the
// preferred alternative when present.
type Message struct {
	From    string // "Name <addr>" or bare address
	To      []string
	Subject string
	Text    string
	HTML    string
	Date    time.Time
	Headers map[string]string
}

// Compose renders msg as RFC 5322 bytes.
func Compose(msg Message) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	from, err := netmail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("from %q: %w", msg.From, err)
	}
	to := make([]*gomail.Address, 0, len(msg.To))
	for _, raw := range msg.To {
		a, err := netmail.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("recipient %q: %w", raw, err)
		}
		to = append(to, a)
	}

	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	var h gomail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*gomail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	for k, v := range msg.Headers {
		h.Set(k, strings.NewReplacer("\r", "", "\n", "").Replace(v))
	}

	var buf bytes.Buffer
	w, err := gomail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := writePart(w, "text/plain", msg.Text); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.HTML) != "" {
		if err := writePart(w, "text/html", msg.HTML); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *gomail.InlineWriter, contentType, body string) error {
	var ph gomail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := w.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return pw.Close()
}

// Envelope returns the bare addresses for the SMTP MAIL FROM / RCPT TO.
func Envelope(msg Message) (from string, to []string, err error) {
	a, err := netmail.ParseAddress(msg.From)
	if err != nil {
		return "", nil, fmt.Errorf("from %q: %w", msg.From, err)
	}
	for _, raw := range msg.To {
		r, err := netmail.ParseAddress(raw)
		if err != nil {
			return "", nil, fmt.Errorf("recipient %q: %w", raw, err)
		}
		to = append(to, r.Address)
	}
	if len(to) == 0 {
		return "", nil, ErrNoRecipients
	}
	return a.Address, to, nil
}

// FormatFrom builds the From header value.
func FormatFrom(name, addr string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return addr
	}
	return (&netmail.Address{Name: name, Address: addr}).String()
}
