package identity

import (
	"errors"
	"strings"
)

var ErrEmptyName = errors.New("empty name")

// Resolver turns a free-text name into the opaque owner key that
// partitions the shared table. There is no uniqueness or verification
// guarantee behind it - two people typing the same name share data. Kept
// behind an interface so a real identity source can replace it without
// touching the fitlog core.
type Resolver interface {
	Resolve(name string) (string, error)
}

// TrimResolver is the resolver the spreadsheet frontends always used:
// the trimmed name itself is the key, case preserved.
type TrimResolver struct{}

func NewTrimResolver() TrimResolver {
	return TrimResolver{}
}

func (TrimResolver) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}
