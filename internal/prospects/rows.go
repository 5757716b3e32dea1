package prospects

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"reportmailer/internal/domain"
	"reportmailer/internal/report"
)

const (
	colDateAdded   = "date added"
	colName        = "name"
	colEmail       = "email"
	colLocation    = "location"
	colCompany     = "company"
	colTitle       = "title"
	colLinkedIn    = "linkedin"
	colTwitter     = "twitter"
	colGitHub      = "github"
	colWebsite     = "website"
	colSource      = "source"
	colBio         = "bio"
	colSignals     = "signals"
	colOverall     = "overall score"
	colFounder     = "founder score"
	colThesisFit   = "thesis fit"
	colTiming      = "timing score"
	colSignalScore = "signal score"
	colPriority    = "priority"
	colReasoning   = "reasoning"
)

var requiredCols = []string{colName, colPriority}

var dateLayouts = []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"}

type Load struct {
	Candidates []domain.Candidate
	Warnings   []string
}

// parseRows turns a header plus rows into candidates. next returns io.EOF
// after the last row.
func parseRows(header []string, next func() ([]string, error)) (Load, error) {
	var out Load

	idx := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(cleanText(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range requiredCols {
		if _, ok := idx[c]; !ok {
			return out, fmt.Errorf("prospects: missing required column %q", c)
		}
	}

	line := 1
	for {
		rec, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return out, fmt.Errorf("read row %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return cleanText(rec[i])
		}
		warn := func(format string, args ...any) {
			out.Warnings = append(out.Warnings, fmt.Sprintf("row %d: ", line)+fmt.Sprintf(format, args...))
		}
		score := func(col string) int {
			if _, ok := idx[col]; !ok {
				return 0
			}
			raw := get(col)
			if raw == "" {
				warn("%s is blank, using 0", col)
				return 0
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				f, ferr := strconv.ParseFloat(raw, 64)
				if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					warn("%s %q is not a number", col, raw)
					return 0
				}
				n = int(math.Round(clampFloat(f, -1, 101)))
			}
			return clamp(n, 0, 100)
		}

		name := get(colName)
		if name == "" {
			warn("skipped, empty name")
			continue
		}

		c := domain.Candidate{
			Name:           name,
			Email:          get(colEmail),
			Location:       get(colLocation),
			Company:        get(colCompany),
			Title:          get(colTitle),
			LinkedInURL:    report.NormalizeProfileURL(get(colLinkedIn)),
			TwitterURL:     report.TwitterURL(get(colTwitter)),
			GitHubURL:      report.NormalizeProfileURL(get(colGitHub)),
			Website:        report.NormalizeProfileURL(get(colWebsite)),
			Source:         get(colSource),
			Bio:            get(colBio),
			Signals:        splitSignals(get(colSignals)),
			OverallScore:   score(colOverall),
			FounderScore:   score(colFounder),
			ThesisFitScore: score(colThesisFit),
			TimingScore:    score(colTiming),
			SignalScore:    score(colSignalScore),
			Priority:       domain.ParsePriority(get(colPriority)),
			Reasoning:      get(colReasoning),
		}
		if raw := get(colDateAdded); raw != "" {
			c.AddedAt = parseDate(raw)
			if c.AddedAt.IsZero() {
				warn("unrecognized date %q", raw)
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out, nil
}

func splitSignals(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = cleanText(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampFloat(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
