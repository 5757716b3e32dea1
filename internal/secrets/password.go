package secrets

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/zalando/go-keyring"

	"reportmailer/internal/config"
)

const (
	// “Service” groups the app's entries in the OS keychain.
	KeyringService = "reportmailer"

	appPasswordLen = 16
)

var (
	ErrMissingUsername = errors.New("email username secret is not set")
	ErrMissingPassword = errors.New("email password secret is not set")
)

type Credentials struct {
	Username string
	Password string
	// Where the password came from: "env:<NAME>" or "keyring".
	PasswordSource string
}

// Resolve reads the two secrets the workflow exposes as env vars. The
// keyring is a read-only fallback for local runs.
func Resolve(cfg config.Config, getenv func(string) string) (Credentials, error) {
	var c Credentials

	c.Username = strings.TrimSpace(getenv(cfg.Secrets.UsernameEnv))
	if c.Username == "" {
		return c, fmt.Errorf("%w: set the %s secret", ErrMissingUsername, cfg.Secrets.UsernameEnv)
	}

	if pw := getenv(cfg.Secrets.PasswordEnv); strings.TrimSpace(pw) != "" {
		c.Password = NormalizeAppPassword(pw)
		c.PasswordSource = "env:" + cfg.Secrets.PasswordEnv
		return c, nil
	}

	if account := strings.TrimSpace(cfg.Secrets.KeyringAccount); account != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			c.Password = NormalizeAppPassword(pw)
			c.PasswordSource = "keyring"
			return c, nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return c, fmt.Errorf("keyring lookup %q: %w", account, err)
		}
	}

	return c, fmt.Errorf("%w: set the %s secret", ErrMissingPassword, cfg.Secrets.PasswordEnv)
}

// NormalizeAppPassword drops the spaces Google shows between the four
// groups of an app password.
func NormalizeAppPassword(pw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, pw)
}

// Validate returns hard errors and soft warnings for the credentials as
// they would be used against smtpHost.
func Validate(c Credentials, smtpHost string) (errs []string, warnings []string) {
	addr, err := mail.ParseAddress(c.Username)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("username %q is not an email address", Mask(c.Username)))
	case addr.Name != "" || addr.Address != c.Username:
		errs = append(errs, "username must be a bare address, without a display name")
	}

	pw := NormalizeAppPassword(c.Password)
	switch {
	case pw == "":
		errs = append(errs, "password is empty")
	case isGoogleHost(smtpHost):
		if len(pw) != appPasswordLen || !allLetters(pw) {
			errs = append(errs, fmt.Sprintf("Gmail app passwords are %d letters; got %d characters (is this your account password?)", appPasswordLen, len(pw)))
		}
	case len(pw) != appPasswordLen:
		warnings = append(warnings, fmt.Sprintf("password is %d characters; app passwords are usually %d", len(pw), appPasswordLen))
	}
	return errs, warnings
}

// Mask keeps the first and last two characters.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}

func isGoogleHost(h string) bool {
	h = strings.ToLower(strings.TrimSpace(h))
	return h == "smtp.gmail.com" || h == "smtp.googlemail.com" || strings.HasSuffix(h, ".google.com")
}

func allLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
