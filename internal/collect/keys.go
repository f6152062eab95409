package collect

import (
	"strings"

	"github.com/TobiSchelling/StockBoard/internal/database"
)

// Key is the identity of a post for duplicate detection. Title is only set
// for title-inclusive keys.
type Key struct {
	Date   string
	Author string
	Title  string
}

// KeyFor builds the identity key of a listing row.
func KeyFor(l Listing, withTitle bool) Key {
	k := Key{Date: database.UnknownDate, Author: strings.TrimSpace(l.Author)}
	if l.Date != nil {
		k.Date = l.Date.Format(database.DateLayout)
	}
	if withTitle {
		k.Title = strings.TrimSpace(l.Title)
	}
	return k
}

// KeySet is a read-only set of already stored keys. Its shape is fixed at
// construction: either every key carries a title or none does.
type KeySet struct {
	keys      map[Key]struct{}
	withTitle bool
}

// NewKeySet builds a set from stored keys.
func NewKeySet(stored []database.PostKey, withTitle bool) *KeySet {
	s := &KeySet{keys: make(map[Key]struct{}, len(stored)), withTitle: withTitle}
	for _, pk := range stored {
		k := Key{Date: pk.Date, Author: strings.TrimSpace(pk.Author)}
		if withTitle {
			k.Title = strings.TrimSpace(pk.Title)
		}
		s.keys[k] = struct{}{}
	}
	return s
}

// WithTitle reports whether the set's keys include titles.
func (s *KeySet) WithTitle() bool {
	return s != nil && s.withTitle
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Contains reports whether k is in the set.
func (s *KeySet) Contains(k Key) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[k]
	return ok
}
