package fitlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// CsvEventStore keeps the table in a local CSV file. Used for development
// and tests; it has the exact same whole-file read / whole-file write
// contract as the spreadsheet backend. The in-process mutex makes the
// prevRows check reliable for a single service instance.
type CsvEventStore struct {
	mu   sync.Mutex
	path string
}

func NewCsvEventStore(path string) (*CsvEventStore, error) {
	s := &CsvEventStore{path: path}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Debugf("csv event store: creating %s", path)
		if err := s.writeFile(NewTable()); err != nil {
			return nil, fmt.Errorf("create csv store file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat csv store file: %w", err)
	}

	return s, nil
}

func (s *CsvEventStore) ReadAll(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFile()
}

func (s *CsvEventStore) WriteAll(ctx context.Context, t Table, prevRows int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prevRows >= 0 {
		current, err := s.readFile()
		if err != nil {
			return err
		}
		if len(current.Rows) != prevRows {
			return ErrLostUpdate
		}
	}

	return s.writeFile(t)
}

func (s *CsvEventStore) readFile() (Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open %s: %s", ErrStoreUnavailable, s.path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("close csv store file: %s", err)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // rows with missing trailing cells are fine
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: read %s: %s", ErrStoreUnavailable, s.path, err)
	}

	if len(records) == 0 {
		return NewTable(), nil
	}
	return Table{
		Header: records[0],
		Rows:   records[1:],
	}, nil
}

// writeFile replaces the whole file content, via temp file and rename so a
// crashed write cannot leave a half-written table behind.
func (s *CsvEventStore) writeFile(t Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".fitlog-*.csv")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %s", ErrStoreUnavailable, err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	records := append([][]string{t.Header}, t.Rows...)
	if err := writer.WriteAll(records); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %s", ErrStoreUnavailable, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %s", ErrStoreUnavailable, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename to %s: %s", ErrStoreUnavailable, s.path, err)
	}
	return nil
}
