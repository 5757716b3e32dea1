package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultSubjectTemplate = "Daily Founder Report - Run #{{.RunNumber}}"

const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Report struct {
		Source       string `yaml:"source"` // csv | sheets
		ProspectsCSV string `yaml:"prospects_csv"`
		SheetID      string `yaml:"sheet_id"`
		Worksheet    string `yaml:"worksheet"`
		HTMLPath     string `yaml:"html_path"`
		MaxHigh      int    `yaml:"max_high"`
		MaxMedium    int    `yaml:"max_medium"`
	} `yaml:"report"`

	Email struct {
		Recipients      []string `yaml:"recipients"`
		FromName        string   `yaml:"from_name"`
		SubjectTemplate string   `yaml:"subject_template"`
		SMTPHost        string   `yaml:"smtp_host"`
		SMTPPort        int      `yaml:"smtp_port"`
		Security        string   `yaml:"security"` // starttls | tls | none
		TimeoutSeconds  int      `yaml:"timeout_seconds"`
		RetryAttempts   int      `yaml:"retry_attempts"`
		RetryPerMinute  int      `yaml:"retry_per_minute"`
		SkipIfEmpty     bool     `yaml:"skip_if_empty"`
	} `yaml:"email"`

	Verify struct {
		IMAPHost      string   `yaml:"imap_host"`
		IMAPPort      int      `yaml:"imap_port"`
		Mailboxes     []string `yaml:"mailboxes"`
		LookbackHours int      `yaml:"lookback_hours"`
	} `yaml:"verify"`

	Secrets struct {
		UsernameEnv    string `yaml:"username_env"`
		PasswordEnv    string `yaml:"password_env"`
		KeyringAccount string `yaml:"keyring_account"`
		// Service-account JSON for the sheets source.
		GoogleCredentialsEnv string `yaml:"google_credentials_env"`
	} `yaml:"secrets"`
}

// Default is what a fresh install gets; Load starts from it so
// omitted keys keep these values.
func Default() Config {
	var cfg Config
	cfg.App.DataDir = ".reportmailer"

	cfg.Report.Source = SourceCSV
	cfg.Report.ProspectsCSV = "prospects.csv"
	cfg.Report.Worksheet = "Prospects"
	cfg.Report.MaxHigh = 10
	cfg.Report.MaxMedium = 10

	cfg.Email.Recipients = []string{"you@example.com"}
	cfg.Email.FromName = "Founder Sourcing"
	cfg.Email.SubjectTemplate = DefaultSubjectTemplate
	cfg.Email.SMTPHost = "smtp.gmail.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.Security = "starttls"
	cfg.Email.TimeoutSeconds = 30
	cfg.Email.RetryAttempts = 3
	cfg.Email.RetryPerMinute = 6

	cfg.Verify.IMAPHost = "imap.gmail.com"
	cfg.Verify.IMAPPort = 993
	cfg.Verify.Mailboxes = []string{"INBOX", "[Gmail]/Spam", "[Gmail]/Promotions"}
	cfg.Verify.LookbackHours = 24

	cfg.Secrets.UsernameEnv = "EMAIL_USERNAME"
	cfg.Secrets.PasswordEnv = "EMAIL_PASSWORD"
	cfg.Secrets.GoogleCredentialsEnv = "GOOGLE_CREDENTIALS_JSON"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
