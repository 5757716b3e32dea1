package report

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Limits caps how many candidates each tier may show.
type Limits struct {
	High   int
	Medium int
}

const DefaultTierLimit = 10

func (l Limits) WithDefaults() Limits {
	if l.High <= 0 {
		l.High = DefaultTierLimit
	}
	if l.Medium <= 0 {
		l.Medium = DefaultTierLimit
	}
	return l
}

type LintResult struct {
	High     int
	Medium   int
	Links    []string
	Warnings []string
}

// LintHTML checks a report rendered by the pipeline. Candidate entries are
// elements carrying a data-priority attribute.
func LintHTML(r io.Reader, limits Limits) (LintResult, error) {
	limits = limits.WithDefaults()
	var res LintResult

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return res, fmt.Errorf("parse report html: %w", err)
	}

	seen := map[string]bool{}
	entries := doc.Find("[data-priority]")
	entries.Each(func(i int, s *goquery.Selection) {
		switch strings.ToUpper(strings.TrimSpace(s.AttrOr("data-priority", ""))) {
		case "HIGH":
			res.High++
		case "MEDIUM":
			res.Medium++
		}

		n := 0
		s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href := strings.TrimSpace(a.AttrOr("href", ""))
			u, err := url.Parse(href)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return
			}
			n++
			if !seen[href] {
				seen[href] = true
				res.Links = append(res.Links, href)
			}
		})
		if n == 0 {
			name := strings.Join(strings.Fields(s.Find("h3, h4, strong").First().Text()), " ")
			if name == "" {
				name = fmt.Sprintf("entry %d", i+1)
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s has no profile link", name))
		}
	})

	if entries.Length() == 0 {
		res.Warnings = append(res.Warnings, "report has no candidate entries")
	}

	if res.High > limits.High {
		return res, fmt.Errorf("report lists %d HIGH candidates, limit is %d", res.High, limits.High)
	}
	if res.Medium > limits.Medium {
		return res, fmt.Errorf("report lists %d MEDIUM candidates, limit is %d", res.Medium, limits.Medium)
	}
	return res, nil
}
