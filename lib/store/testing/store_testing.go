package testing

import (
	"fmt"
	"sync"
	"time"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/matryer/is"
)

// StoreFactory creates a fresh, empty store for a single test.
type StoreFactory func(t *testing.T) store.IStore

// RunStoreTests runs the conformance suite against the store returned by factory.
// Object types are unique per subtest so stores that cannot be reset (postgres) work as well.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name+"/InsertAndGet", func(t *testing.T) { testInsertAndGet(t, factory(t)) })
	t.Run(name+"/InsertConflict", func(t *testing.T) { testInsertConflict(t, factory(t)) })
	t.Run(name+"/BatchUpdate", func(t *testing.T) { testBatchUpdate(t, factory(t)) })
	t.Run(name+"/BatchDelete", func(t *testing.T) { testBatchDelete(t, factory(t)) })
	t.Run(name+"/ShapeMismatch", func(t *testing.T) { testShapeMismatch(t, factory(t)) })
	t.Run(name+"/Select", func(t *testing.T) { testSelect(t, factory(t)) })
	t.Run(name+"/NextValue", func(t *testing.T) { testNextValue(t, factory(t)) })
	t.Run(name+"/GetDBInfo", func(t *testing.T) { testGetDBInfo(t, factory(t)) })
}

func objType(t *testing.T) string {
	return fmt.Sprintf("t%d_%p", time.Now().UnixNano(), t)
}

func row(typ, id string, kv ...string) db.Row {
	r := db.Row{Type: typ, ID: id}
	if len(kv) > 0 {
		r.Fields = make(map[string]string)
		for i := 0; i+1 < len(kv); i += 2 {
			r.Fields[kv[i]] = kv[i+1]
		}
	}
	return r
}

func testInsertAndGet(t *testing.T, s store.IStore) {
	is := is.New(t)
	typ := objType(t)

	is.NoErr(s.Insert([]db.Row{row(typ, "2400", "tenant", "acme"), row(typ, "2401")}))

	got, ok, err := s.Get(typ, "2400")
	is.NoErr(err)
	is.True(ok)
	is.Equal(got.ID, "2400")
	is.Equal(got.Fields["tenant"], "acme")

	_, ok, err = s.Get(typ, "2402")
	is.NoErr(err)
	is.True(!ok) // unknown id must not be found
}

func testInsertConflict(t *testing.T, s store.IStore) {
	is := is.New(t)
	typ := objType(t)

	is.NoErr(s.Insert([]db.Row{row(typ, "2400")}))
	err := s.Insert([]db.Row{row(typ, "2401"), row(typ, "2400")})
	is.True(store.IsCode(err, store.RetCConflict))

	_, ok, err := s.Get(typ, "2401")
	is.NoErr(err)
	is.True(!ok) // failed batch must not insert anything
}

func testBatchUpdate(t *testing.T, s store.IStore) {
	is := is.New(t)
	typ := objType(t)
	is.NoErr(s.Insert([]db.Row{row(typ, "2400", "tenant", "acme"), row(typ, "2401", "tenant", "acme")}))

	tenant := cond.Equals("tenant", "acme")
	is.NoErr(s.BatchUpdate(
		[]db.Row{row(typ, "2400", "tenant", "acme", "state", "paid"), row(typ, "2401", "tenant", "acme", "state", "paid")},
		[]cond.Condition{cond.And(tenant, cond.IDCondition("2400")), cond.And(tenant, cond.IDCondition("2401"))},
	))
	got, _, err := s.Get(typ, "2401")
	is.NoErr(err)
	is.Equal(got.Fields["state"], "paid")

	// second element is not matched, the first must stay untouched
	err = s.BatchUpdate(
		[]db.Row{row(typ, "2400", "tenant", "acme", "state", "shipped"), row(typ, "2401", "tenant", "acme", "state", "shipped")},
		[]cond.Condition{cond.IDCondition("2400"), cond.And(cond.Equals("tenant", "other"), cond.IDCondition("2401"))},
	)
	is.True(store.IsCode(err, store.RetCNotFound))
	got, _, err = s.Get(typ, "2400")
	is.NoErr(err)
	is.Equal(got.Fields["state"], "paid")

	err = s.BatchUpdate([]db.Row{row(typ, "2499")}, []cond.Condition{cond.IDCondition("2499")})
	is.True(store.IsCode(err, store.RetCNotFound))
}

func testBatchDelete(t *testing.T, s store.IStore) {
	is := is.New(t)
	typ := objType(t)
	is.NoErr(s.Insert([]db.Row{row(typ, "2400"), row(typ, "2401"), row(typ, "2402")}))

	err := s.BatchDelete(
		[]db.Row{row(typ, "2400"), row(typ, "2499")},
		[]cond.Condition{cond.IDCondition("2400"), cond.IDCondition("2499")},
	)
	is.True(store.IsCode(err, store.RetCNotFound))
	_, ok, _ := s.Get(typ, "2400")
	is.True(ok) // failed batch must not delete anything

	is.NoErr(s.BatchDelete(
		[]db.Row{row(typ, "2400"), row(typ, "2401")},
		[]cond.Condition{cond.IDCondition("2400"), cond.IDCondition("2401")},
	))
	_, ok, _ = s.Get(typ, "2400")
	is.True(!ok)
	_, ok, _ = s.Get(typ, "2402")
	is.True(ok)
}

func testShapeMismatch(t *testing.T, s store.IStore) {
	is := is.New(t)
	typ := objType(t)
	err := s.BatchUpdate([]db.Row{row(typ, "2400"), row(typ, "2401")}, []cond.Condition{cond.IDCondition("2400")})
	is.True(store.IsCode(err, store.RetCInvalidOperation))
	err = s.BatchDelete([]db.Row{row(typ, "2400")}, nil)
	is.True(store.IsCode(err, store.RetCInvalidOperation))
}

func testSelect(t *testing.T, s store.IStore) {
	is := is.New(t)
	typ := objType(t)
	is.NoErr(s.Insert([]db.Row{
		row(typ, "2402", "tenant", "acme"),
		row(typ, "2400", "tenant", "acme"),
		row(typ, "2401", "tenant", "other"),
	}))

	rows, err := s.Select(typ, cond.Equals("tenant", "acme"))
	is.NoErr(err)
	is.Equal(len(rows), 2)
	is.Equal(rows[0].ID, "2400")
	is.Equal(rows[1].ID, "2402")

	rows, err = s.Select(typ, cond.True())
	is.NoErr(err)
	is.Equal(len(rows), 3)

	_, err = s.Select(typ, cond.Condition{Op: "bogus"})
	is.True(err != nil) // invalid condition
}

func testNextValue(t *testing.T, s store.IStore) {
	is := is.New(t)
	seq := fmt.Sprintf("seq_%d", time.Now().UnixNano())

	first, err := s.NextValue(seq)
	is.NoErr(err)
	is.Equal(first, int64(1)) // sequences start at 1
	second, err := s.NextValue(seq)
	is.NoErr(err)
	is.Equal(second, first+1)

	// concurrent callers never receive the same value
	const workers, perWorker = 8, 50
	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				v, err := s.NextValue(seq)
				if err != nil {
					t.Errorf("NextValue: %v", err)
					return
				}
				mu.Lock()
				if seen[v] {
					t.Errorf("value %d returned twice", v)
				}
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	is.Equal(len(seen), workers*perWorker)

	_, err = s.NextValue("")
	is.True(err != nil) // empty sequence name
}

func testGetDBInfo(t *testing.T, s store.IStore) {
	is := is.New(t)
	info, err := s.GetDBInfo()
	is.NoErr(err)
	is.True(info.DbType != "")
}
