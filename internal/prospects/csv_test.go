package prospects

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportmailer/internal/domain"
)

const pipelineHeader = "Date Added,Name,Email,Location,Company,Title,LinkedIn,Twitter,GitHub,Website,Source,Bio,Signals,Overall Score,Founder Score,Thesis Fit,Timing Score,Signal Score,Priority,Reasoning\n"

func TestReadCSV_PipelineFormat(t *testing.T) {
	data := pipelineHeader +
		`2026-10-18 07:01:02,Ada Lovelace,ada@engines.io,"Chicago, IL",Engines,CEO,linkedin.com/in/ada?trk=x,@ada,https://github.com/ada/,,github,Builds engines,Launched on HN | 2k stars | ,91,90,88,80,85,High,"Technical founder, shipping weekly."` + "\n"

	got, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got.Candidates, 1)
	assert.Empty(t, got.Warnings)

	c := got.Candidates[0]
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "Chicago, IL", c.Location)
	assert.Equal(t, "https://linkedin.com/in/ada", c.LinkedInURL)
	assert.Equal(t, "https://x.com/ada", c.TwitterURL)
	assert.Equal(t, "https://github.com/ada", c.GitHubURL)
	assert.Equal(t, []string{"Launched on HN", "2k stars"}, c.Signals)
	assert.Equal(t, 91, c.OverallScore)
	assert.Equal(t, 85, c.SignalScore)
	assert.Equal(t, domain.PriorityHigh, c.Priority)
	assert.Equal(t, time.Date(2026, 10, 18, 7, 1, 2, 0, time.UTC), c.AddedAt)
}

func TestReadCSV_ReorderedAndMinimalColumns(t *testing.T) {
	data := "PRIORITY,name,overall score\nmedium,Grace,70\n"
	got, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, domain.PriorityMedium, got.Candidates[0].Priority)
	assert.Equal(t, 70, got.Candidates[0].OverallScore)
}

func TestReadCSV_MissingRequiredColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Name,Email\nAda,a@b.c\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"priority"`)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadCSV_BadValuesBecomeWarnings(t *testing.T) {
	data := "Name,Priority,Overall Score,Date Added\n" +
		",High,90,\n" +
		"Bob,High,lots,yesterday\n" +
		"Cy,Low,150,2026-10-01\n" +
		"Di,Medium,72.6,\n"

	got, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got.Candidates, 3)

	assert.Equal(t, 0, got.Candidates[0].OverallScore)
	assert.True(t, got.Candidates[0].AddedAt.IsZero())
	assert.Equal(t, 100, got.Candidates[1].OverallScore)
	assert.Equal(t, 73, got.Candidates[2].OverallScore)

	require.Len(t, got.Warnings, 3)
	assert.Contains(t, got.Warnings[0], "row 2: skipped")
	assert.Contains(t, got.Warnings[1], "row 3: overall score")
	assert.Contains(t, got.Warnings[2], `row 3: unrecognized date "yesterday"`)
}

func TestReadCSV_BlankAndNonFiniteScoresWarn(t *testing.T) {
	data := "Name,Priority,Overall Score\n" +
		"Ada,HIGH,\n" +
		"Bob,HIGH,Inf\n" +
		"Cy,HIGH,NaN\n" +
		"Di,HIGH,1e300\n"

	got, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got.Candidates, 4)

	assert.Equal(t, 0, got.Candidates[0].OverallScore)
	assert.Equal(t, 0, got.Candidates[1].OverallScore)
	assert.Equal(t, 0, got.Candidates[2].OverallScore)
	assert.Equal(t, 100, got.Candidates[3].OverallScore)
	assert.Equal(t, []string{
		"row 2: overall score is blank, using 0",
		`row 3: overall score "Inf" is not a number`,
		`row 4: overall score "NaN" is not a number`,
	}, got.Warnings)
}

func TestReadCSV_AbsentScoreColumnsDoNotWarn(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("Name,Priority\nAda,HIGH\n"))
	require.NoError(t, err)
	assert.Empty(t, got.Warnings)
}

func TestLoadCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prospects.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffName,Priority\nAda,High\n"), 0o644))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 1)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
