package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
)

// DBFactory is a function that creates a new instance of a RowDB implementation
type DBFactory func() db.RowDB

// RunRowDBTests runs a comprehensive test suite for a RowDB implementation.
func RunRowDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Insert&Get", func(t *testing.T) {
			testInsertGet(t, factory())
		})

		t.Run("InsertConflict", func(t *testing.T) {
			testInsertConflict(t, factory())
		})

		t.Run("UpdateByCondition", func(t *testing.T) {
			testUpdateByCondition(t, factory())
		})

		t.Run("UpdateAllOrNothing", func(t *testing.T) {
			testUpdateAllOrNothing(t, factory())
		})

		t.Run("DeleteByCondition", func(t *testing.T) {
			testDeleteByCondition(t, factory())
		})

		t.Run("Select", func(t *testing.T) {
			testSelect(t, factory())
		})

		t.Run("Sequence", func(t *testing.T) {
			testSequence(t, factory())
		})

		t.Run("ConcurrentSequence", func(t *testing.T) {
			testConcurrentSequence(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("WriteIdx", func(t *testing.T) {
			testWriteIdx(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.RowDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func row(objType, id string, kv ...string) db.Row {
	fields := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return db.Row{Type: objType, ID: id, Fields: fields}
}

func mutation(r db.Row, c cond.Condition) db.Mutation {
	return db.Mutation{Row: r, Condition: c}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInsertGet(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureInsert|db.FeatureGet)
	defer database.Close()

	err := database.Insert([]db.Row{
		row("task", "2400", "title", "first"),
		row("task", "2401", "title", "second"),
		row("note", "2400", "text", "same id, other type"),
	}, 1)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, ok := database.Get("task", "2401")
	if !ok {
		t.Fatal("expected row task/2401")
	}
	if got.Fields["title"] != "second" {
		t.Errorf("title = %q, want %q", got.Fields["title"], "second")
	}
	if got.Index != 1 {
		t.Errorf("Index = %d, want 1", got.Index)
	}

	if note, ok := database.Get("note", "2400"); !ok || note.Fields["text"] == "" {
		t.Errorf("expected row note/2400, got %+v (found=%v)", note, ok)
	}

	if _, ok := database.Get("task", "2402"); ok {
		t.Error("unexpected row task/2402")
	}
	if _, ok := database.Get("unknown", "2400"); ok {
		t.Error("unexpected row in unknown table")
	}

	// returned rows are copies
	got.Fields["title"] = "changed"
	again, _ := database.Get("task", "2401")
	if again.Fields["title"] != "second" {
		t.Error("mutating a returned row changed the database")
	}
}

func testInsertConflict(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureInsert|db.FeatureGet)
	defer database.Close()

	if err := database.Insert([]db.Row{row("task", "2400")}, 1); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	tests := []struct {
		name string
		rows []db.Row
		want error
	}{
		{name: "existing row", rows: []db.Row{row("task", "2401"), row("task", "2400")}, want: db.ErrConflict},
		{name: "duplicate in batch", rows: []db.Row{row("task", "2402"), row("task", "2402")}, want: db.ErrConflict},
		{name: "missing id", rows: []db.Row{row("task", "2403"), row("task", "")}, want: db.ErrInvalid},
		{name: "missing type", rows: []db.Row{row("", "2404")}, want: db.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := database.Insert(tt.rows, 2)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Insert error = %v, want %v", err, tt.want)
			}
			// nothing of the failed batch was written
			for _, r := range tt.rows {
				if r.ID == "2400" {
					continue
				}
				if _, ok := database.Get(r.Type, r.ID); ok {
					t.Errorf("row %s/%s written by failed batch", r.Type, r.ID)
				}
			}
		})
	}
}

func testUpdateByCondition(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureInsert|db.FeatureUpdate|db.FeatureGet)
	defer database.Close()

	_ = database.Insert([]db.Row{
		row("task", "2400", "tenant", "acme", "title", "a"),
		row("task", "2401", "tenant", "other", "title", "b"),
	}, 1)

	scoped := func(id string) cond.Condition {
		return cond.And(cond.Equals("tenant", "acme"), cond.IDCondition(id))
	}

	// matching condition
	err := database.Update([]db.Mutation{
		mutation(row("task", "2400", "tenant", "acme", "title", "a2"), scoped("2400")),
	}, 2)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := database.Get("task", "2400")
	if got.Fields["title"] != "a2" || got.Index != 2 {
		t.Errorf("got %+v after update", got)
	}

	// condition excludes the row (other tenant)
	err = database.Update([]db.Mutation{
		mutation(row("task", "2401", "tenant", "other", "title", "b2"), scoped("2401")),
	}, 3)
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("Update error = %v, want %v", err, db.ErrNotFound)
	}
	got, _ = database.Get("task", "2401")
	if got.Fields["title"] != "b" {
		t.Errorf("row outside condition was updated: %+v", got)
	}

	// unknown row
	err = database.Update([]db.Mutation{mutation(row("task", "2409"), cond.IDCondition("2409"))}, 4)
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("Update error = %v, want %v", err, db.ErrNotFound)
	}
}

func testUpdateAllOrNothing(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureInsert|db.FeatureUpdate|db.FeatureGet)
	defer database.Close()

	_ = database.Insert([]db.Row{row("task", "2400", "n", "0"), row("task", "2401", "n", "0")}, 1)

	err := database.Update([]db.Mutation{
		mutation(row("task", "2400", "n", "1"), cond.IDCondition("2400")),
		mutation(row("task", "2401", "n", "1"), cond.IDCondition("2401")),
		mutation(row("task", "2402", "n", "1"), cond.IDCondition("2402")),
	}, 2)
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("Update error = %v, want %v", err, db.ErrNotFound)
	}
	for _, id := range []string{"2400", "2401"} {
		got, _ := database.Get("task", id)
		if got.Fields["n"] != "0" {
			t.Errorf("row %s changed by failed batch: %+v", id, got)
		}
	}
}

func testDeleteByCondition(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureInsert|db.FeatureDelete|db.FeatureGet)
	defer database.Close()

	_ = database.Insert([]db.Row{
		row("task", "2400", "deleted", "false"),
		row("task", "2401", "deleted", "true"),
		row("task", "2402"),
	}, 1)

	live := func(id string) cond.Condition {
		return cond.And(cond.NotEquals("deleted", "true"), cond.IDCondition(id))
	}

	// second mutation does not match: nothing is deleted
	err := database.Delete([]db.Mutation{
		mutation(row("task", "2400"), live("2400")),
		mutation(row("task", "2401"), live("2401")),
	}, 2)
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("Delete error = %v, want %v", err, db.ErrNotFound)
	}
	if _, ok := database.Get("task", "2400"); !ok {
		t.Fatal("row 2400 deleted by failed batch")
	}

	err = database.Delete([]db.Mutation{
		mutation(row("task", "2400"), live("2400")),
		mutation(row("task", "2402"), live("2402")),
	}, 3)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, id := range []string{"2400", "2402"} {
		if _, ok := database.Get("task", id); ok {
			t.Errorf("row %s still present", id)
		}
	}
	if _, ok := database.Get("task", "2401"); !ok {
		t.Error("row 2401 should still be present")
	}
}

func testSelect(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureInsert|db.FeatureSelect)
	defer database.Close()

	_ = database.Insert([]db.Row{
		row("task", "2402", "tenant", "acme"),
		row("task", "2400", "tenant", "acme"),
		row("task", "2401", "tenant", "other"),
		row("note", "2403", "tenant", "acme"),
	}, 1)

	rows := database.Select("task", cond.Equals("tenant", "acme"))
	if len(rows) != 2 {
		t.Fatalf("Select returned %d rows, want 2", len(rows))
	}
	if rows[0].ID != "2400" || rows[1].ID != "2402" {
		t.Errorf("Select returned %s,%s, want ordered 2400,2402", rows[0].ID, rows[1].ID)
	}

	if all := database.Select("task", cond.True()); len(all) != 3 {
		t.Errorf("Select(TRUE) returned %d rows, want 3", len(all))
	}
	if none := database.Select("unknown", cond.True()); len(none) != 0 {
		t.Errorf("Select on unknown type returned %d rows", len(none))
	}
}

func testSequence(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureSequence)
	defer database.Close()

	for want := int64(1); want <= 5; want++ {
		if got := database.NextValue("seed", uint64(want)); got != want {
			t.Fatalf("NextValue = %d, want %d", got, want)
		}
	}
	if got := database.NextValue("other", 6); got != 1 {
		t.Errorf("independent sequence started at %d, want 1", got)
	}
}

func testConcurrentSequence(t *testing.T, database db.RowDB) {
	requireFeature(t, database, db.FeatureSequence)
	defer database.Close()

	const workers = 8
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, database.NextValue("seed", 0))
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				if _, dup := seen[v]; dup {
					t.Errorf("value %d handed out twice", v)
				}
				seen[v] = struct{}{}
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("got %d distinct values, want %d", len(seen), workers*perWorker)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	source := factory()
	requireFeature(t, source, db.FeatureSave|db.FeatureLoad|db.FeatureInsert|db.FeatureGet|db.FeatureSequence)
	defer source.Close()

	rows := make([]db.Row, 0, 100)
	for i := 0; i < 100; i++ {
		rows = append(rows, row("task", fmt.Sprintf("2%x", 1024+i), "n", fmt.Sprint(i)))
	}
	_ = source.Insert(rows, 7)
	source.NextValue("seed", 8)
	source.NextValue("seed", 9)

	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	target := factory()
	defer target.Close()
	_ = target.Insert([]db.Row{row("stale", "20")}, 1)
	if err := target.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, r := range rows {
		got, ok := target.Get(r.Type, r.ID)
		if !ok || got.Fields["n"] != r.Fields["n"] {
			t.Fatalf("row %s missing or different after load: %+v", r.ID, got)
		}
	}
	if _, ok := target.Get("stale", "20"); ok {
		t.Error("Load did not replace existing state")
	}
	if got := target.NextValue("seed", 10); got != 3 {
		t.Errorf("sequence after load = %d, want 3", got)
	}
	if target.WriteIdx() < 9 {
		t.Errorf("WriteIdx after load = %d, want >= 9", target.WriteIdx())
	}

	if err := target.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Error("Load accepted an invalid snapshot")
	}
}

func testWriteIdx(t *testing.T, database db.RowDB) {
	defer database.Close()

	database.SetWriteIdx(10)
	database.SetWriteIdx(5)
	if got := database.WriteIdx(); got != 10 {
		t.Errorf("WriteIdx = %d, want 10", got)
	}
}
