// Package prospects reads the prospect store written by the sourcing
// pipeline: a CSV file or a Google Sheets worksheet with the same columns.
package prospects

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

func LoadCSV(path string) (Load, error) {
	f, err := os.Open(path)
	if err != nil {
		return Load{}, fmt.Errorf("open prospects: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV matches header columns by name, case-insensitively and in any order.
func ReadCSV(r io.Reader) (Load, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Load{}, errors.New("prospects csv is empty")
	}
	if err != nil {
		return Load{}, fmt.Errorf("read header: %w", err)
	}
	return parseRows(header, cr.Read)
}
