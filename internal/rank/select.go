// Package rank picks the candidates that make it into the daily email.
package rank

import (
	"sort"
	"strings"

	"reportmailer/internal/domain"
	"reportmailer/internal/report"
)

// Select dedupes, buckets and orders candidates, then truncates each tier
// to its limit. LOW and UNKNOWN rows are only counted.
func Select(candidates []domain.Candidate, limits report.Limits) domain.Report {
	limits = limits.WithDefaults()

	sorted := make([]domain.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return better(sorted[i], sorted[j]) })

	var out domain.Report
	// a row is the same founder when either its name or its email was seen
	seenName := map[string]bool{}
	seenEmail := map[string]bool{}
	for _, c := range sorted {
		name, email := c.NameKey(), c.EmailKey()
		dup := (name != "" && seenName[name]) || (email != "" && seenEmail[email])
		if name != "" {
			seenName[name] = true
		}
		if email != "" {
			seenEmail[email] = true
		}
		if dup {
			out.Stats.Duplicates++
			continue
		}
		out.Stats.Total++

		switch c.Priority {
		case domain.PriorityHigh:
			out.Stats.High++
			out.High = append(out.High, c)
		case domain.PriorityMedium:
			out.Stats.Medium++
			out.Medium = append(out.Medium, c)
		case domain.PriorityLow:
			out.Stats.Low++
		default:
			out.Stats.Unknown++
		}
	}

	out.High = truncate(out.High, limits.High)
	out.Medium = truncate(out.Medium, limits.Medium)
	return out
}

// better orders by score, then newest, then name.
func better(a, b domain.Candidate) bool {
	if a.OverallScore != b.OverallScore {
		return a.OverallScore > b.OverallScore
	}
	if !a.AddedAt.Equal(b.AddedAt) {
		return a.AddedAt.After(b.AddedAt)
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func truncate(cs []domain.Candidate, n int) []domain.Candidate {
	if len(cs) > n {
		return cs[:n]
	}
	return cs
}
