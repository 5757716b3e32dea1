package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reportmailer/internal/mailer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config and email secrets without sending",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	p := mailer.Check(cfg, getenv)
	cmd.Printf("Config:     %s\n", path)
	cmd.Printf("SMTP:       %s:%d (%s)\n", cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.Security)
	cmd.Printf("Recipients: %d\n", len(cfg.Email.Recipients))
	cmd.Printf("Username:   %s\n", p.Username)
	if p.PasswordSource != "" {
		cmd.Printf("Password:   from %s\n", p.PasswordSource)
	}

	for _, w := range p.Warnings {
		cmd.Printf("warning: %s\n", w)
	}
	for _, e := range p.Errors {
		cmd.Printf("error: %s\n", e)
	}
	if !p.OK() {
		return fmt.Errorf("check failed with %d error(s)", len(p.Errors))
	}
	cmd.Println("OK")
	return nil
}
