package dstore

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/db/engines/memdb"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/matryer/is"
)

func newStateMachine() *RowStateMachine {
	factory := CreateStateMaschineFactory(func() db.RowDB { return memdb.NewMemDB() })
	return factory(1, 1).(*RowStateMachine)
}

func entry(t *testing.T, index uint64, cmd internal.Command) sm.Entry {
	t.Helper()
	data, err := cmd.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	return sm.Entry{Index: index, Cmd: data}
}

func TestStateMachineUpdate(t *testing.T) {
	is := is.New(t)
	fsm := newStateMachine()

	insert := internal.Command{Type: internal.CommandTInsert, Mutations: []db.Mutation{
		{Row: db.Row{Type: "order", ID: "2400", Fields: map[string]string{"tenant": "acme"}}},
	}}
	update := internal.Command{Type: internal.CommandTUpdate, Mutations: []db.Mutation{
		{Row: db.Row{Type: "order", ID: "2400", Fields: map[string]string{"tenant": "other"}}, Condition: cond.IDCondition("2400")},
	}}
	next := internal.Command{Type: internal.CommandTNextValue, Sequence: "objectidseed"}

	entries, err := fsm.Update([]sm.Entry{
		entry(t, 1, insert),
		entry(t, 2, insert), // conflict
		entry(t, 3, update),
		entry(t, 4, next),
		entry(t, 5, next),
		{Index: 6},
	})
	is.NoErr(err)

	is.Equal(entries[0].Result.Value, uint64(store.RetCSuccess))
	is.Equal(entries[1].Result.Value, uint64(store.RetCConflict))
	is.Equal(entries[2].Result.Value, uint64(store.RetCSuccess))
	is.Equal(entries[3].Result.Value, uint64(store.RetCSuccess))
	is.Equal(entries[5].Result.Value, uint64(store.RetCInvalidOperation))

	v, err := internal.DecodeValue(entries[4].Result.Data)
	is.NoErr(err)
	is.Equal(v, int64(2))

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, ObjType: "order", ID: "2400"})
	is.NoErr(err)
	row := res.(*db.Row)
	is.Equal(row.Fields["tenant"], "other")
	is.Equal(row.Index, uint64(3))
}

func TestStateMachineLookup(t *testing.T) {
	is := is.New(t)
	fsm := newStateMachine()

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, ObjType: "order", ID: "2400"})
	is.NoErr(err)
	is.True(res.(*db.Row) == nil) // missing row

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTSelect, ObjType: "order", Condition: cond.True()})
	is.NoErr(err)
	is.Equal(len(res.([]db.Row)), 0)

	_, err = fsm.Lookup(internal.Query{Type: internal.QueryTSelect, ObjType: "order", Condition: cond.Condition{Op: "bogus"}})
	is.True(store.IsCode(err, store.RetCInvalidOperation))

	_, err = fsm.Lookup("not a query")
	is.True(store.IsCode(err, store.RetCInternalError))
}

func TestStateMachineSnapshot(t *testing.T) {
	is := is.New(t)
	src := newStateMachine()
	_, err := src.Update([]sm.Entry{
		entry(t, 1, internal.Command{Type: internal.CommandTInsert, Mutations: []db.Mutation{{Row: db.Row{Type: "order", ID: "2400"}}}}),
		entry(t, 2, internal.Command{Type: internal.CommandTNextValue, Sequence: "objectidseed"}),
	})
	is.NoErr(err)

	var buf bytes.Buffer
	is.NoErr(src.SaveSnapshot(nil, &buf, nil, nil))

	dst := newStateMachine()
	is.NoErr(dst.RecoverFromSnapshot(&buf, nil, nil))

	res, err := dst.Lookup(internal.Query{Type: internal.QueryTGet, ObjType: "order", ID: "2400"})
	is.NoErr(err)
	is.True(res.(*db.Row) != nil)

	entries, err := dst.Update([]sm.Entry{entry(t, 3, internal.Command{Type: internal.CommandTNextValue, Sequence: "objectidseed"})})
	is.NoErr(err)
	v, _ := internal.DecodeValue(entries[0].Result.Data)
	is.Equal(v, int64(2)) // sequence survives the snapshot
}
