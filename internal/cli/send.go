package cli

import (
	"time"

	"github.com/spf13/cobra"

	"reportmailer/internal/domain"
	"reportmailer/internal/mailer"
)

var (
	sendDryRun    bool
	sendForce     bool
	sendRunNumber int64
	sendHTML      string
	sendCSV       string
	sendLockWait  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build and email today's founder report",
	Long: `Loads the prospect store, selects the top HIGH and MEDIUM candidates,
and emails the report to the configured recipients.

The run number comes from --run-number, then GITHUB_RUN_NUMBER, then a
local counter. A run that was already sent is refused unless --force.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "write the message to the outbox instead of sending")
	sendCmd.Flags().BoolVar(&sendForce, "force", false, "send even if this run was already sent")
	sendCmd.Flags().Int64Var(&sendRunNumber, "run-number", 0, "run number to use in the subject")
	sendCmd.Flags().StringVar(&sendHTML, "html", "", "pre-rendered HTML report (overrides report.html_path)")
	sendCmd.Flags().StringVar(&sendCSV, "csv", "", "prospects CSV (overrides report.source and report.prospects_csv)")
	sendCmd.Flags().DurationVar(&sendLockWait, "lock-wait", 30*time.Second, "how long to wait for another run to finish")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadValidConfig()
	if err != nil {
		return err
	}
	db, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := mailer.Run(cmd.Context(), mailer.Deps{
		Config:    cfg,
		DB:        db.Pool,
		Getenv:    getenv,
		NewSender: newSender,
	}, mailer.Options{
		DryRun:    sendDryRun,
		Force:     sendForce,
		RunNumber: sendRunNumber,
		HTMLPath:  sendHTML,
		CSVPath:   sendCSV,
		LockWait:  sendLockWait,
	})
	if err != nil {
		return err
	}

	switch {
	case res.Skipped:
		cmd.Printf("Run #%d: no HIGH or MEDIUM candidates, email skipped.\n", res.RunNumber)
	case res.Status == domain.StatusDryRun:
		cmd.Printf("Run #%d: dry run, message written to %s\n", res.RunNumber, res.OutboxPath)
	default:
		cmd.Printf("Run #%d: sent %q to %d recipient(s) (%d high, %d medium).\n",
			res.RunNumber, res.Subject, len(cfg.Email.Recipients), len(res.Report.High), len(res.Report.Medium))
	}
	return nil
}
