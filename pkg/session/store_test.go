package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

func newEntry(name string) *Entry {
	return &Entry{
		FileName:   name,
		UploadedAt: time.Now(),
		Collection: &collection.Collection{},
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	t.Parallel()

	s := New(10, time.Hour)
	t.Cleanup(s.Close)

	a := newEntry("a.xml")
	b := newEntry("b.xml")
	idA := s.Put(a)
	idB := s.Put(b)

	assert.NotEqual(t, idA, idB)
	_, err := uuid.Parse(idA)
	require.NoError(t, err)

	got, ok := s.Get(idA)
	require.True(t, ok)
	assert.Same(t, a, got)

	s.Delete(idA)
	_, ok = s.Get(idA)
	assert.False(t, ok)

	got, ok = s.Get(idB)
	require.True(t, ok)
	assert.Equal(t, "b.xml", got.FileName)
}

func TestStore_UnknownID(t *testing.T) {
	t.Parallel()

	s := New(10, time.Hour)
	t.Cleanup(s.Close)

	for _, id := range []string{"", "nope", uuid.NewString()} {
		_, ok := s.Get(id)
		assert.False(t, ok, id)
	}
	s.Delete("nope")
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()

	s := New(10, 10*time.Millisecond)
	t.Cleanup(s.Close)

	id := s.Put(newEntry("old.xml"))
	time.Sleep(30 * time.Millisecond)

	_, ok := s.Get(id)
	assert.False(t, ok)
}
