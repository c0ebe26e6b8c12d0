package fitlog

import (
	"context"
	"sync"
)

// storeMock is an in-memory EventStore for unit tests. The prevRows check
// in WriteAll runs under the same lock as the write, so lost updates are
// detected deterministically here, unlike against a real spreadsheet.
type storeMock struct {
	mu    sync.Mutex
	table Table

	ReadAllCalls  int
	WriteAllCalls int

	// optional error injection
	ReadErr  error
	WriteErr error
}

func NewStoreMock() *storeMock {
	return &storeMock{
		table: NewTable(),
	}
}

func (s *storeMock) ReadAll(_ context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReadAllCalls++
	if s.ReadErr != nil {
		return Table{}, s.ReadErr
	}
	return s.copyTable(), nil
}

func (s *storeMock) WriteAll(_ context.Context, t Table, prevRows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.WriteAllCalls++
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if prevRows >= 0 && prevRows != len(s.table.Rows) {
		return ErrLostUpdate
	}

	s.table = Table{
		Header: append([]string(nil), t.Header...),
		Rows:   copyRows(t.Rows),
	}
	return nil
}

// Seed overwrites the stored table without any checks.
func (s *storeMock) Seed(t Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

func (s *storeMock) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.table.Rows)
}

func (s *storeMock) copyTable() Table {
	return Table{
		Header: append([]string(nil), s.table.Header...),
		Rows:   copyRows(s.table.Rows),
	}
}

func copyRows(rows [][]string) [][]string {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	return cp
}
