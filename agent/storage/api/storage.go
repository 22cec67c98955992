// Package api declares the record store capability the agent core consumes.
package api

import (
	"errors"
)

// ErrNotFound is returned when a record doesn't exist. Callers treat it as an
// expected absence signal, not as a failure.
var ErrNotFound = errors.New("record not found")

// Record is a tagged storage record.
type Record struct {
	Type  string            `json:"type"`
	ID    string            `json:"id"`
	Value string            `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// Storage is tagged, queryable persistence for invitations, pending requests
// and credential exchange records. Implementations must be safe for concurrent
// use and must keep create/update of a keyed record atomic with respect to
// concurrent reads of the same key.
type Storage interface {
	Add(r Record) error
	Get(typ, id string) (*Record, error)
	Update(r Record) error
	Delete(typ, id string) error

	// Search returns the records of a type whose tags include all the given
	// tag values, in a stable order.
	Search(typ string, tags map[string]string) ([]Record, error)
}

// TagsMatch tells if the record tags include every filter entry.
func TagsMatch(tags, filter map[string]string) bool {
	for k, v := range filter {
		if tags[k] != v {
			return false
		}
	}
	return true
}
