package persist

import (
	"errors"

	"github.com/ValentinKolb/dUID/lib/identity"
)

var (
	ErrNilBatch      = errors.New("batch is nil")
	ErrShapeMismatch = identity.ErrShapeMismatch
	ErrNotPersisted  = errors.New("object is not persisted")
	ErrDeleted       = errors.New("object is deleted")
	ErrIDChanged     = errors.New("trigger changed the object id")
	ErrTrigger       = errors.New("trigger failed")
)
