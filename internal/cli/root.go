// Package cli wires the reportmailer commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reportmailer/internal/config"
	"reportmailer/internal/logger"
	"reportmailer/internal/mailcheck"
	"reportmailer/internal/mailer"
	"reportmailer/internal/secrets"
	"reportmailer/internal/store"
)

// Set at build time with -ldflags "-X reportmailer/internal/cli.version=...".
var version = "dev"

const (
	defaultDataDir = ".reportmailer"
	seedConfigPath = "config/config.yml"
	ledgerFileName = "reportmailer.db"
)

var (
	verbose    bool
	configPath string

	// Swapped out in tests.
	getenv    = os.Getenv
	newSender = mailer.SMTPSenderFor
	newDialer = func(cfg config.Config, creds secrets.Credentials) mailcheck.Dialer {
		return mailcheck.IMAPDialer(mailcheck.IMAPConfig{
			Host:     cfg.Verify.IMAPHost,
			Port:     cfg.Verify.IMAPPort,
			Username: creds.Username,
			Password: creds.Password,
		})
	}
)

var rootCmd = &cobra.Command{
	Use:   "reportmailer",
	Short: "Email the daily founder report",
	Long: `reportmailer turns the prospect store written by the sourcing pipeline
into the daily founder report email and delivers it over SMTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <data dir>/config.yml)")
}

// Execute runs the root command with ctx. Command output goes to stdout,
// logs to stderr.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func dataDir() string {
	if dir := strings.TrimSpace(getenv(config.EnvDataDir)); dir != "" {
		return dir
	}
	return defaultDataDir
}

// loadConfig reads the config (bootstrapping it on first run) and applies
// the env overlay. Validation is left to the caller.
func loadConfig() (config.Config, string, error) {
	path := configPath
	if path == "" {
		dir := dataDir()
		p, err := config.EnsureUserConfig(dir, seedConfigPath)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	config.OverlayEnv(&cfg, getenv)
	logger.Debug("config loaded", "path", path, "data_dir", cfg.App.DataDir)
	return cfg, path, nil
}

// loadValidConfig is loadConfig plus validation; warnings are logged.
func loadValidConfig() (config.Config, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		logger.Warn("config", "warning", w)
	}
	return cfg, nil
}

func openLedger(cfg config.Config) (*store.DB, error) {
	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return nil, err
	}
	db, err := store.Open(filepath.Join(cfg.App.DataDir, ledgerFileName))
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return db, nil
}
