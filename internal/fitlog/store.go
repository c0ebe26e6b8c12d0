package fitlog

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited - the backing store rejected the call, worth a retry
	// after a short wait. Surfaced to the user as "try again shortly".
	ErrRateLimited = errors.New("event store rate limited")

	// ErrStoreUnavailable - the backing store could not be reached at all.
	ErrStoreUnavailable = errors.New("event store unavailable")

	// ErrLostUpdate - the table changed between the read and the write of a
	// read-modify-write cycle. The write was refused, nothing was clobbered.
	ErrLostUpdate = errors.New("event store changed since last read")
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=fitlog_test

// EventStore is the external whole-table persistence collaborator. There is
// no row-level write: every mutation reads the full table and writes the
// full table back. That makes concurrent writers race (lost update); the
// prevRows check on WriteAll at least detects the obvious interleavings.
type EventStore interface {
	// ReadAll returns the full current table. Implementations must not
	// cache: any caching layer sits above the store (see TableCache).
	ReadAll(ctx context.Context) (Table, error)

	// WriteAll replaces the entire backing table. prevRows is the row count
	// of the table the caller based its rewrite on; implementations that
	// can re-check the current size return ErrLostUpdate on a mismatch
	// instead of silently overwriting. Pass a negative prevRows to skip
	// the check.
	WriteAll(ctx context.Context, t Table, prevRows int) error
}
