// Package player defines the persisted player record and the store
// interface its backends implement (flat files, bbolt).
package player

import (
	"errors"
	"sort"
)

// ErrNotFound is returned when no record exists for a name.
var ErrNotFound = errors.New("player record not found")

// Record is the on-disk state of one player, keyed by capitalized
// name. Passwords are stored and compared as clear text.
type Record struct {
	Name     string
	Password string
	Room     int
	Flags    map[string]struct{}
}

// NewRecord creates an empty record for name.
func NewRecord(name string) *Record {
	return &Record{Name: name, Flags: make(map[string]struct{})}
}

// HasFlag reports whether the capability flag is set.
func (r *Record) HasFlag(flag string) bool {
	_, ok := r.Flags[flag]
	return ok
}

// SetFlag sets a capability flag.
func (r *Record) SetFlag(flag string) {
	if r.Flags == nil {
		r.Flags = make(map[string]struct{})
	}
	r.Flags[flag] = struct{}{}
}

// ClearFlag removes a capability flag.
func (r *Record) ClearFlag(flag string) { delete(r.Flags, flag) }

// FlagList returns the flags in sorted order.
func (r *Record) FlagList() []string {
	flags := make([]string, 0, len(r.Flags))
	for f := range r.Flags {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return flags
}

// Store loads and saves player records. Load returns ErrNotFound when
// no record exists for the name.
type Store interface {
	Load(name string) (*Record, error)
	Save(rec *Record) error
	Exists(name string) (bool, error)
}
