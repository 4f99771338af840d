package memdb

import (
	"testing"

	"github.com/ValentinKolb/dUID/lib/db"
	dbtesting "github.com/ValentinKolb/dUID/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunRowDBTests(t, "MemDB", func() db.RowDB {
		return NewMemDB()
	})
}

func TestGetInfo(t *testing.T) {
	database := NewMemDB()
	defer database.Close()

	_ = database.Insert([]db.Row{
		{Type: "task", ID: "2400", Fields: map[string]string{"title": "a"}},
		{Type: "task", ID: "2401", Fields: map[string]string{"title": "b"}},
	}, 1)
	database.NextValue("seed", 2)

	info := database.GetInfo()
	if info.DbType != db.ImplMemDB {
		t.Errorf("DbType = %s, want %s", info.DbType, db.ImplMemDB)
	}
	if len(info.SupportedFeatures) != 8 {
		t.Errorf("SupportedFeatures = %v, want all 8 features", info.SupportedFeatures)
	}
	meta, ok := info.Metadata.(Metadata)
	if !ok {
		t.Fatalf("Metadata has type %T", info.Metadata)
	}
	if meta.Tables["task"].Rows != 2 {
		t.Errorf("task rows = %d, want 2", meta.Tables["task"].Rows)
	}
	if meta.Sequences["seed"] != 1 {
		t.Errorf("seed sequence = %d, want 1", meta.Sequences["seed"])
	}
	if info.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", info.SizeBytes)
	}
}
