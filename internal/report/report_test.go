package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportmailer/internal/domain"
)

func TestRenderSubject_Default(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s, err := RenderSubject("Daily Founder Report - Run #{{.RunNumber}}", NewSubjectData(128, at, 3, 7))
	require.NoError(t, err)
	assert.Equal(t, "Daily Founder Report - Run #128", s)
}

func TestRenderSubject_AllFieldsAndNewlines(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s, err := RenderSubject("#{{.RunNumber}} {{.Date}}\r\n{{.HighCount}}H/{{.MediumCount}}M", NewSubjectData(5, at, 3, 7))
	require.NoError(t, err)
	assert.Equal(t, "#5 2026-10-19 3H/7M", s)
}

func TestRenderSubject_UnknownField(t *testing.T) {
	_, err := RenderSubject("{{.Nope}}", SubjectData{})
	assert.Error(t, err)
}

func TestCheckSubjectTemplate(t *testing.T) {
	assert.NoError(t, CheckSubjectTemplate("Run {{.RunNumber}}"))
	assert.ErrorIs(t, CheckSubjectTemplate("Daily report {{.Date}}"), errNoRunNumber)
	assert.Error(t, CheckSubjectTemplate("Run {{.RunNumber"))
}

func TestNormalizeProfileURL(t *testing.T) {
	cases := map[string]string{
		"":                                       "",
		"github.com/ada/":                        "https://github.com/ada",
		"HTTPS://GitHub.com/ada#readme":          "https://github.com/ada",
		"https://linkedin.com/in/ada?trk=public": "https://linkedin.com/in/ada",
		"https://ada.dev/?utm_source=x&b=2&a=1":  "https://ada.dev?a=1&b=2",
		"  mailto:x ":                            "mailto:x",
		"ada%zz":                                 "ada%zz",
		"https://":                               "https://",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeProfileURL(in), "input %q", in)
	}
}

func TestTwitterURL(t *testing.T) {
	assert.Equal(t, "https://x.com/ada", TwitterURL("@ada"))
	assert.Equal(t, "https://x.com/ada", TwitterURL("ada"))
	assert.Equal(t, "https://twitter.com/ada", TwitterURL("https://twitter.com/ada/"))
	assert.Equal(t, "", TwitterURL("  "))
}

func TestWriteDigest(t *testing.T) {
	r := domain.Report{
		RunNumber:   42,
		GeneratedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		High: []domain.Candidate{{
			Name:         "Ada Lovelace",
			Company:      "Engines Inc",
			Title:        "Founder",
			OverallScore: 91,
			LinkedInURL:  "https://linkedin.com/in/ada",
			Email:        "ada@engines.io",
			Reasoning:    "Technical founder.\n  Chicago based.",
		}},
		Stats:       domain.Stats{Total: 3, High: 1, Low: 2},
		WorkflowURL: "https://github.com/acme/sourcing/actions/runs/1",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDigest(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Run #42")
	assert.Contains(t, out, "1. Ada Lovelace - Founder, Engines Inc [score 91]")
	assert.Contains(t, out, "LinkedIn: https://linkedin.com/in/ada")
	assert.Contains(t, out, "Email: mailto:ada@engines.io")
	assert.Contains(t, out, "Why: Technical founder. Chicago based.")
	assert.Contains(t, out, "MEDIUM PRIORITY (0)")
	assert.Contains(t, out, "(none today)")
	assert.Contains(t, out, "Run logs: https://github.com/acme/sourcing/actions/runs/1")
	assert.Less(t, strings.Index(out, "HIGH PRIORITY"), strings.Index(out, "MEDIUM PRIORITY"))
}

func entryHTML(priority, name, href string) string {
	link := ""
	if href != "" {
		link = fmt.Sprintf(`<a href="%s">profile</a>`, href)
	}
	return fmt.Sprintf(`<div class="candidate" data-priority="%s"><h3>%s</h3>%s</div>`, priority, name, link)
}

func TestLintHTML_CountsAndLinks(t *testing.T) {
	html := "<html><body>" +
		entryHTML("HIGH", "Ada", "https://github.com/ada") +
		entryHTML("high", "Bob", "https://github.com/ada") +
		entryHTML("MEDIUM", "Cy", "mailto:cy@x.io") +
		"</body></html>"

	res, err := LintHTML(strings.NewReader(html), Limits{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.High)
	assert.Equal(t, 1, res.Medium)
	assert.Equal(t, []string{"https://github.com/ada"}, res.Links)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Cy has no profile link")
}

func TestLintHTML_OverLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 11; i++ {
		b.WriteString(entryHTML("HIGH", fmt.Sprintf("F%d", i), fmt.Sprintf("https://github.com/f%d", i)))
	}
	res, err := LintHTML(strings.NewReader(b.String()), Limits{High: 10, Medium: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "11 HIGH")
	assert.Equal(t, 11, res.High)
}

func TestLintHTML_NoEntries(t *testing.T) {
	res, err := LintHTML(strings.NewReader("<p>No founders today</p>"), Limits{})
	require.NoError(t, err)
	assert.Equal(t, []string{"report has no candidate entries"}, res.Warnings)
}
