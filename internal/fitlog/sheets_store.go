package fitlog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/ironhub/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsEventStore is the production EventStore: a single worksheet of a
// shared Google spreadsheet. The sheets API has no transactional append
// for values used this way, so the whole-table contract is honest here -
// WriteAll clears the sheet and writes everything back. The prevRows check
// re-reads the current height right before the write; that narrows the
// lost-update window, it does not close it.
type SheetsEventStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsEventStore(
	ctx context.Context,
	spreadsheetID, sheetName string,
	opts ...option.ClientOption,
) (*SheetsEventStore, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}

	log.Debugf("sheets event store ready: %s [%s]", spreadsheetID, sheetName)

	return &SheetsEventStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (s *SheetsEventStore) ReadAll(ctx context.Context) (_ Table, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sheetsStore.readAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	valueRange, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, s.sheetName).
		Context(ctx).
		Do()
	if err != nil {
		return Table{}, mapSheetsErr("read values", err)
	}

	if len(valueRange.Values) == 0 {
		return NewTable(), nil
	}

	return Table{
		Header: cellsToStrings(valueRange.Values[0]),
		Rows:   valuesToRows(valueRange.Values[1:]),
	}, nil
}

func (s *SheetsEventStore) WriteAll(ctx context.Context, t Table, prevRows int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sheetsStore.writeAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if prevRows >= 0 {
		currentRows, err := s.currentRowCount(ctx)
		if err != nil {
			return err
		}
		if currentRows != prevRows {
			return ErrLostUpdate
		}
	}

	if _, err := s.service.Spreadsheets.Values.
		Clear(s.spreadsheetID, s.sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return mapSheetsErr("clear values", err)
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	values = append(values, stringsToCells(t.Header))
	for _, row := range t.Rows {
		values = append(values, stringsToCells(row))
	}

	if _, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, s.sheetName, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return mapSheetsErr("update values", err)
	}

	return nil
}

// currentRowCount reads only the first column to get the used height cheap.
func (s *SheetsEventStore) currentRowCount(ctx context.Context) (int, error) {
	valueRange, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, fmt.Sprintf("%s!A:A", s.sheetName)).
		Context(ctx).
		Do()
	if err != nil {
		return 0, mapSheetsErr("read first column", err)
	}
	if len(valueRange.Values) == 0 {
		return 0, nil
	}
	// minus the header row
	return len(valueRange.Values) - 1, nil
}

func mapSheetsErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: %s", ErrRateLimited, op, err)
	}
	return fmt.Errorf("%w: %s: %s", ErrStoreUnavailable, op, err)
}

func cellsToStrings(cells []interface{}) []string {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = fmt.Sprintf("%v", c)
	}
	return row
}

func valuesToRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = cellsToStrings(v)
	}
	return rows
}

func stringsToCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return cells
}
