package seq

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/db/engines/memdb"
	"github.com/ValentinKolb/dUID/lib/store/lstore"
	"github.com/matryer/is"
)

func TestFromStore(t *testing.T) {
	is := is.New(t)
	s := lstore.NewLocalStore(func() db.RowDB { return memdb.NewMemDB() })

	a := FromStore(s, "")
	b := FromStore(s, DefaultName)
	other := FromStore(s, "other")

	v1, err := a.NextValue()
	is.NoErr(err)
	v2, err := b.NextValue()
	is.NoErr(err)
	is.Equal(v1, int64(1))
	is.Equal(v2, int64(2)) // both sources share the default sequence

	v, err := other.NextValue()
	is.NoErr(err)
	is.Equal(v, int64(1))
}

func TestSourceFunc(t *testing.T) {
	is := is.New(t)
	boom := errors.New("boom")
	_, err := SourceFunc(func() (int64, error) { return 0, boom }).NextValue()
	is.True(errors.Is(err, boom))
}
