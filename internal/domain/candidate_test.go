package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"High":    PriorityHigh,
		" high ":  PriorityHigh,
		"MEDIUM":  PriorityMedium,
		"Low":     PriorityLow,
		"":        PriorityUnknown,
		"urgent!": PriorityUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePriority(in), "input %q", in)
	}
}

func TestCandidateEmailKey(t *testing.T) {
	a := Candidate{Name: "Ada Lovelace", Email: " ADA@example.com "}
	b := Candidate{Name: "A. Lovelace", Email: "ada@example.com"}
	assert.Equal(t, a.EmailKey(), b.EmailKey())
	assert.Empty(t, Candidate{Name: "Ada"}.EmailKey())
}

func TestCandidateNameKey(t *testing.T) {
	a := Candidate{Name: "Grace   Hopper"}
	b := Candidate{Name: " grace hopper", Email: "g@h.io"}
	assert.Equal(t, "grace hopper", a.NameKey())
	assert.Equal(t, a.NameKey(), b.NameKey())
}

func TestCandidateLinks_Order(t *testing.T) {
	c := Candidate{
		Email:       "f@startup.io",
		GitHubURL:   "https://github.com/f",
		LinkedInURL: "https://linkedin.com/in/f",
		TwitterURL:  "",
	}
	links := c.Links()
	if assert.Len(t, links, 3) {
		assert.Equal(t, "LinkedIn", links[0].Label)
		assert.Equal(t, "GitHub", links[1].Label)
		assert.Equal(t, "mailto:f@startup.io", links[2].URL)
	}
}
