package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"reportmailer/internal/store"
)

var (
	historyLimit     int
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent deliveries from the ledger",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of rows to show")
	historyCmd.Flags().IntVar(&historyPruneDays, "prune-days", 0, "first delete rows older than this many days")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if historyPruneDays > 0 {
		n, err := store.CleanupOld(cmd.Context(), db.Pool, time.Duration(historyPruneDays)*24*time.Hour)
		if err != nil {
			return err
		}
		cmd.Printf("Pruned %d row(s) older than %d days.\n", n, historyPruneDays)
	}

	ds, err := store.ListDeliveries(cmd.Context(), db.Pool, historyLimit)
	if err != nil {
		return err
	}
	if len(ds) == 0 {
		cmd.Println("No deliveries recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRUN\tSTATUS\tHIGH\tMEDIUM\tATTEMPTS\tRECIPIENTS\tERROR")
	for _, d := range ds {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			d.CreatedAt.Local().Format("2006-01-02 15:04"), d.RunNumber, d.Status,
			d.HighCount, d.MediumCount, d.Attempts,
			strings.Join(d.Recipients, ", "), firstLine(d.Error))
	}
	return tw.Flush()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
