package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// SubjectData is what subject templates can reference.
type SubjectData struct {
	RunNumber   int64
	Date        string
	HighCount   int
	MediumCount int
}

func NewSubjectData(run int64, at time.Time, high, medium int) SubjectData {
	return SubjectData{
		RunNumber:   run,
		Date:        at.Format("2006-01-02"),
		HighCount:   high,
		MediumCount: medium,
	}
}

var errNoRunNumber = errors.New("template must include {{.RunNumber}}")

// RenderSubject executes tmpl and strips line breaks so the result is a
// safe header value.
func RenderSubject(tmpl string, data SubjectData) (string, error) {
	t, err := template.New("subject").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse subject template: %w", err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render subject: %w", err)
	}
	s := strings.NewReplacer("\r", " ", "\n", " ").Replace(b.String())
	return strings.Join(strings.Fields(s), " "), nil
}

// CheckSubjectTemplate fails when tmpl does not parse or its output does
// not carry the run number.
func CheckSubjectTemplate(tmpl string) error {
	const sampleRun = 90817
	s, err := RenderSubject(tmpl, NewSubjectData(sampleRun, time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC), 1, 2))
	if err != nil {
		return err
	}
	if !strings.Contains(s, strconv.Itoa(sampleRun)) {
		return errNoRunNumber
	}
	return nil
}
