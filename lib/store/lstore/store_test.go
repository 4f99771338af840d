package lstore

import (
	"testing"

	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/db/engines/memdb"
	"github.com/ValentinKolb/dUID/lib/store"
	storetesting "github.com/ValentinKolb/dUID/lib/store/testing"
)

func newStore(_ *testing.T) store.IStore {
	return NewLocalStore(func() db.RowDB { return memdb.NewMemDB() })
}

func TestLocalStore(t *testing.T) {
	storetesting.RunStoreTests(t, "lstore", newStore)
}
