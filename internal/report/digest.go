package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"reportmailer/internal/domain"
)

// WriteDigest writes the text/plain body of the daily email.
func WriteDigest(w io.Writer, r domain.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Daily Founder Report - Run #%d\n", r.RunNumber)
	fmt.Fprintf(bw, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(bw, "Prospects in store: %d (high %d, medium %d, low %d)\n\n",
		r.Stats.Total, r.Stats.High, r.Stats.Medium, r.Stats.Low)

	writeTier(bw, "HIGH PRIORITY", r.High)
	writeTier(bw, "MEDIUM PRIORITY", r.Medium)

	if r.WorkflowURL != "" {
		fmt.Fprintf(bw, "--\nRun logs: %s\n", r.WorkflowURL)
	}
	return bw.Flush()
}

func writeTier(w *bufio.Writer, title string, cs []domain.Candidate) {
	fmt.Fprintf(w, "%s (%d)\n%s\n", title, len(cs), strings.Repeat("=", len(title)))
	if len(cs) == 0 {
		fmt.Fprint(w, "(none today)\n\n")
		return
	}
	for i, c := range cs {
		fmt.Fprintf(w, "%d. %s", i+1, c.Name)
		if role := roleLine(c); role != "" {
			fmt.Fprintf(w, " - %s", role)
		}
		fmt.Fprintf(w, " [score %d]\n", c.OverallScore)
		for _, l := range c.Links() {
			fmt.Fprintf(w, "   %s: %s\n", l.Label, l.URL)
		}
		if reason := strings.TrimSpace(c.Reasoning); reason != "" {
			fmt.Fprintf(w, "   Why: %s\n", strings.Join(strings.Fields(reason), " "))
		}
		fmt.Fprintln(w)
	}
}

func roleLine(c domain.Candidate) string {
	switch {
	case c.Title != "" && c.Company != "":
		return c.Title + ", " + c.Company
	case c.Company != "":
		return c.Company
	default:
		return c.Title
	}
}
