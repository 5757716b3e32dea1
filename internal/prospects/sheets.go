package prospects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const DefaultWorksheet = "Prospects"

var (
	ErrNoSheetCredentials = errors.New("google service-account credentials are not set")
	ErrSheetNotFound      = errors.New("spreadsheet or worksheet not found")
	ErrSheetForbidden     = errors.New("spreadsheet access denied; share it with the service account email")
)

// SheetCredentials reads the service-account JSON from the env var name.
func SheetCredentials(getenv func(string) string, envName string) ([]option.ClientOption, error) {
	js := strings.TrimSpace(getenv(envName))
	if js == "" {
		return nil, fmt.Errorf("%w: set the %s secret", ErrNoSheetCredentials, envName)
	}
	return []option.ClientOption{
		option.WithCredentialsJSON([]byte(js)),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	}, nil
}

// LoadSheet reads a worksheet whose first row is the header, with the same
// column rules as ReadCSV.
func LoadSheet(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (Load, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return Load{}, errors.New("spreadsheet id is required")
	}
	if strings.TrimSpace(worksheet) == "" {
		worksheet = DefaultWorksheet
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return Load{}, fmt.Errorf("sheets client: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, sheetRange(worksheet)).
		MajorDimension("ROWS").
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return Load{}, fmt.Errorf("read worksheet %q: %w", worksheet, classifySheetErr(err))
	}
	if len(resp.Values) == 0 {
		return Load{}, fmt.Errorf("worksheet %q is empty", worksheet)
	}

	header := cells(resp.Values[0])
	rest := resp.Values[1:]
	return parseRows(header, func() ([]string, error) {
		if len(rest) == 0 {
			return nil, io.EOF
		}
		row := cells(rest[0])
		rest = rest[1:]
		return row, nil
	})
}

// sheetRange is the A1 range covering a whole worksheet.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cells(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func classifySheetErr(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrSheetNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrSheetForbidden, err)
	default:
		return err
	}
}
