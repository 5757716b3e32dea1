package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"reportmailer/internal/mailcheck"
	"reportmailer/internal/mailer"
	"reportmailer/internal/secrets"
)

var (
	verifyRunNumber int64
	verifySubject   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check which mailbox a sent report landed in",
	Long: `Logs in over IMAP with the same credentials used for sending and
searches the configured mailboxes for the report subject. Without
--subject, the subject of the latest sent delivery is used.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Int64Var(&verifyRunNumber, "run-number", 0, "look up the subject of this run")
	verifyCmd.Flags().StringVar(&verifySubject, "subject", "", "subject to search for")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadValidConfig()
	if err != nil {
		return err
	}
	db, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := mailer.VerifyQuery(cmd.Context(), db.Pool, cfg, verifyRunNumber, verifySubject, time.Now())
	if err != nil {
		return err
	}
	creds, err := secrets.Resolve(cfg, getenv)
	if err != nil {
		return err
	}

	cmd.Printf("Searching for %q since %s\n", q.Subject, q.Since.Format("2006-01-02 15:04"))
	results, err := mailcheck.Check(cmd.Context(), newDialer(cfg, creds), q)
	for _, r := range results {
		if r.Err != nil {
			cmd.Printf("  %-24s error: %v\n", r.Mailbox, r.Err)
			continue
		}
		cmd.Printf("  %-24s %d\n", r.Mailbox, r.Found)
	}
	if err != nil {
		return err
	}

	v := mailcheck.Summary(results)
	cmd.Printf("Verdict: %s (%s)\n", v, mailcheck.Hint(v))
	if v == mailcheck.VerdictMissing {
		return errors.New("report not found in any mailbox")
	}
	return nil
}
