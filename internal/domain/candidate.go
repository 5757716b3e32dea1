package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh    Priority = "HIGH"
	PriorityMedium  Priority = "MEDIUM"
	PriorityLow     Priority = "LOW"
	PriorityUnknown Priority = "UNKNOWN"
)

// ParsePriority accepts the scorer's "High"/"Medium"/"Low" in any case.
func ParsePriority(s string) Priority {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return PriorityHigh
	case "MEDIUM":
		return PriorityMedium
	case "LOW":
		return PriorityLow
	default:
		return PriorityUnknown
	}
}

// Candidate is one scored founder row from the sourcing pipeline's store.
type Candidate struct {
	AddedAt     time.Time
	Name        string
	Email       string
	Location    string
	Company     string
	Title       string
	LinkedInURL string
	TwitterURL  string
	GitHubURL   string
	Website     string
	Source      string // twitter/github/hackernews/producthunt
	Bio         string
	Signals     []string

	OverallScore   int
	FounderScore   int
	ThesisFitScore int
	TimingScore    int
	SignalScore    int

	Priority  Priority
	Reasoning string
}

// NameKey is the case- and whitespace-folded name.
func (c Candidate) NameKey() string {
	return strings.ToLower(strings.Join(strings.Fields(c.Name), " "))
}

// EmailKey is the lower-cased email, or "" when unknown.
func (c Candidate) EmailKey() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

type Link struct {
	Label string
	URL   string
}

// Links returns the profile links in display order, skipping empty ones.
func (c Candidate) Links() []Link {
	var out []Link
	add := func(label, u string) {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, Link{Label: label, URL: u})
		}
	}
	add("LinkedIn", c.LinkedInURL)
	add("Twitter/X", c.TwitterURL)
	add("GitHub", c.GitHubURL)
	add("Website", c.Website)
	if e := strings.TrimSpace(c.Email); e != "" {
		add("Email", "mailto:"+e)
	}
	return out
}
