package seq

import (
	"github.com/ValentinKolb/dUID/lib/store"
)

// DefaultName is the sequence the id allocator draws its seeds from.
const DefaultName = "objectidseed"

// ISequenceSource is a durable counter shared by all processes of a deployment.
// NextValue never returns the same value twice for the lifetime of the source.
type ISequenceSource interface {
	NextValue() (value int64, err error)
}

// SourceFunc adapts a function to ISequenceSource.
type SourceFunc func() (int64, error)

func (f SourceFunc) NextValue() (int64, error) {
	return f()
}

type storeSource struct {
	store store.IStore
	name  string
}

// FromStore returns a source backed by a named sequence of the store.
// Every store implementation guarantees unique values across all of its clients.
func FromStore(s store.IStore, name string) ISequenceSource {
	if name == "" {
		name = DefaultName
	}
	return &storeSource{store: s, name: name}
}

func (s *storeSource) NextValue() (int64, error) {
	return s.store.NextValue(s.name)
}
