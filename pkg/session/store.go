// Package session keeps parsed uploads in memory, keyed by a random id.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"

	"github.com/sdelicata/rekordbox-analyzer/pkg/analysis"
	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

// Entry is one uploaded collection together with its precomputed report.
type Entry struct {
	FileName   string
	UploadedAt time.Time
	Collection *collection.Collection
	Report     analysis.Report
}

// Store is a bounded, expiring map of upload id to Entry.
// It is safe for concurrent use.
type Store struct {
	c   *ccache.Cache[*Entry]
	ttl time.Duration
}

// New creates a store holding at most maxEntries uploads, each kept for ttl
// after it was last stored.
func New(maxEntries int, ttl time.Duration) *Store {
	c := ccache.New(
		ccache.Configure[*Entry]().
			MaxSize(int64(maxEntries)).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)
	return &Store{c: c, ttl: ttl}
}

// Put stores e under a fresh id and returns the id.
func (s *Store) Put(e *Entry) string {
	id := uuid.NewString()
	s.c.Set(id, e, s.ttl)
	return id
}

// Get returns the entry for id. Unknown and expired ids report false.
func (s *Store) Get(id string) (*Entry, bool) {
	item := s.c.Get(id)
	if item == nil || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

// Delete drops the entry for id, if any.
func (s *Store) Delete(id string) {
	s.c.Delete(id)
}

// Len returns the number of stored entries, expired ones included until pruned.
func (s *Store) Len() int {
	return s.c.ItemCount()
}

// Close stops the cache's background worker.
func (s *Store) Close() {
	s.c.Stop()
}
