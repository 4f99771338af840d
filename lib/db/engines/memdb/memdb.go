package memdb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum      = "MEMDB\x00\x00\x00" // File format identifier
	memdbVersion  = 1                   // Snapshot format version
	reservoirSize = 1028                // Sample size of the row size histogram
)

const supportedFeatures = db.FeatureInsert | db.FeatureUpdate | db.FeatureDelete |
	db.FeatureGet | db.FeatureSelect | db.FeatureSequence | db.FeatureSave | db.FeatureLoad

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// table holds all rows of one object type
type table struct {
	rows  *xsync.MapOf[string, db.Row]
	count gometrics.Counter
	sizes gometrics.Histogram
}

func newTable() *table {
	return &table{
		rows:  xsync.NewMapOf[string, db.Row](),
		count: gometrics.NewCounter(),
		sizes: gometrics.NewHistogram(gometrics.NewUniformSample(reservoirSize)),
	}
}

type memDB struct {
	mu        sync.RWMutex
	tables    *xsync.MapOf[string, *table]
	sequences *xsync.MapOf[string, int64]
	currIndex atomic.Uint64
}

// TableInfo is the per table part of DatabaseInfo.Metadata
type TableInfo struct {
	Rows         int64   `json:"rows"`
	MeanRowBytes float64 `json:"mean_row_bytes"`
	P99RowBytes  float64 `json:"p99_row_bytes"`
}

// Metadata is the implementation specific part of DatabaseInfo
type Metadata struct {
	Tables    map[string]TableInfo `json:"tables"`
	Sequences map[string]int64     `json:"sequences"`
}

// NewMemDB creates a new empty in-memory database.
func NewMemDB() db.RowDB {
	return &memDB{
		tables:    xsync.NewMapOf[string, *table](),
		sequences: xsync.NewMapOf[string, int64](),
	}
}

func (m *memDB) table(objType string) *table {
	t, _ := m.tables.LoadOrCompute(objType, newTable)
	return t
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

func (m *memDB) Insert(rows []db.Row, writeIndex uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// validate the whole batch first
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Type == "" || row.ID == "" {
			return fmt.Errorf("%w: type=%q id=%q", db.ErrInvalid, row.Type, row.ID)
		}
		key := row.Type + "/" + row.ID
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s appears twice in batch", db.ErrConflict, key)
		}
		seen[key] = struct{}{}
		if t, ok := m.tables.Load(row.Type); ok {
			if _, exists := t.rows.Load(row.ID); exists {
				return fmt.Errorf("%w: %s", db.ErrConflict, key)
			}
		}
	}

	for _, row := range rows {
		t := m.table(row.Type)
		stored := row.Clone()
		stored.Index = writeIndex
		t.rows.Store(stored.ID, stored)
		t.count.Inc(1)
		t.sizes.Update(int64(stored.SizeBytes()))
	}
	m.SetWriteIdx(writeIndex)
	return nil
}

// match checks that every mutation selects its persisted row
func (m *memDB) match(mutations []db.Mutation) error {
	for _, mut := range mutations {
		if mut.Row.Type == "" || mut.Row.ID == "" {
			return fmt.Errorf("%w: type=%q id=%q", db.ErrInvalid, mut.Row.Type, mut.Row.ID)
		}
		t, ok := m.tables.Load(mut.Row.Type)
		if !ok {
			return fmt.Errorf("%w: %s/%s", db.ErrNotFound, mut.Row.Type, mut.Row.ID)
		}
		stored, ok := t.rows.Load(mut.Row.ID)
		if !ok || !mut.Condition.Match(stored) {
			return fmt.Errorf("%w: %s/%s (condition %s)", db.ErrNotFound, mut.Row.Type, mut.Row.ID, mut.Condition)
		}
	}
	return nil
}

func (m *memDB) Update(mutations []db.Mutation, writeIndex uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.match(mutations); err != nil {
		return err
	}
	for _, mut := range mutations {
		t := m.table(mut.Row.Type)
		stored := mut.Row.Clone()
		stored.Index = writeIndex
		t.rows.Store(stored.ID, stored)
		t.sizes.Update(int64(stored.SizeBytes()))
	}
	m.SetWriteIdx(writeIndex)
	return nil
}

func (m *memDB) Delete(mutations []db.Mutation, writeIndex uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.match(mutations); err != nil {
		return err
	}
	for _, mut := range mutations {
		t := m.table(mut.Row.Type)
		if _, loaded := t.rows.LoadAndDelete(mut.Row.ID); loaded {
			t.count.Dec(1)
		}
	}
	m.SetWriteIdx(writeIndex)
	return nil
}

func (m *memDB) NextValue(sequence string, writeIndex uint64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, _ := m.sequences.Compute(sequence, func(old int64, _ bool) (int64, bool) {
		return old + 1, false
	})
	m.SetWriteIdx(writeIndex)
	return value
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

func (m *memDB) Get(objType, id string) (db.Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables.Load(objType)
	if !ok {
		return db.Row{}, false
	}
	row, ok := t.rows.Load(id)
	if !ok {
		return db.Row{}, false
	}
	return row.Clone(), true
}

func (m *memDB) Select(objType string, c cond.Condition) []db.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]db.Row, 0)
	t, ok := m.tables.Load(objType)
	if !ok {
		return result
	}
	t.rows.Range(func(_ string, row db.Row) bool {
		if c.Match(row) {
			result = append(result, row.Clone())
		}
		return true
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// snapshot is the serialized form of the database
type snapshot struct {
	Version   int              `json:"version"`
	WriteIdx  uint64           `json:"write_idx"`
	Sequences map[string]int64 `json:"sequences"`
	Rows      []db.Row         `json:"rows"`
}

func (m *memDB) Save(w io.Writer) error {
	m.mu.RLock()
	snap := snapshot{
		Version:   memdbVersion,
		WriteIdx:  m.WriteIdx(),
		Sequences: make(map[string]int64),
		Rows:      make([]db.Row, 0),
	}
	m.sequences.Range(func(name string, value int64) bool {
		snap.Sequences[name] = value
		return true
	})
	m.tables.Range(func(_ string, t *table) bool {
		t.rows.Range(func(_ string, row db.Row) bool {
			snap.Rows = append(snap.Rows, row)
			return true
		})
		return true
	})
	m.mu.RUnlock()

	// deterministic output
	sort.Slice(snap.Rows, func(i, j int) bool {
		if snap.Rows[i].Type != snap.Rows[j].Type {
			return snap.Rows[i].Type < snap.Rows[j].Type
		}
		return snap.Rows[i].ID < snap.Rows[j].ID
	})

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		return err
	}
	return bw.Flush()
}

func (m *memDB) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	magic := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("failed to read snapshot header: %w", err)
	}
	if string(magic) != magicNum {
		return fmt.Errorf("invalid snapshot header")
	}

	var snap snapshot
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != memdbVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables.Clear()
	m.sequences.Clear()
	for name, value := range snap.Sequences {
		m.sequences.Store(name, value)
	}
	for _, row := range snap.Rows {
		t := m.table(row.Type)
		t.rows.Store(row.ID, row)
		t.count.Inc(1)
		t.sizes.Update(int64(row.SizeBytes()))
	}
	m.currIndex.Store(snap.WriteIdx)
	return nil
}

// --------------------------------------------------------------------------
// Feature Support
// --------------------------------------------------------------------------

func (m *memDB) SupportsFeature(feature db.Feature) bool {
	return feature&supportedFeatures == feature
}

func (m *memDB) GetInfo() db.DatabaseInfo {
	meta := Metadata{
		Tables:    make(map[string]TableInfo),
		Sequences: make(map[string]int64),
	}
	size := 0
	m.tables.Range(func(name string, t *table) bool {
		info := TableInfo{
			Rows:         t.count.Count(),
			MeanRowBytes: t.sizes.Mean(),
			P99RowBytes:  t.sizes.Percentile(0.99),
		}
		meta.Tables[name] = info
		size += int(info.MeanRowBytes * float64(info.Rows))
		return true
	})
	m.sequences.Range(func(name string, value int64) bool {
		meta.Sequences[name] = value
		return true
	})

	features := make([]db.Feature, 0)
	for f := db.FeatureInsert; f <= db.FeatureLoad; f <<= 1 {
		if m.SupportsFeature(f) {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		SizeBytes:         size,
		DbType:            db.ImplMemDB,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// --------------------------------------------------------------------------
// Write Index Operations
// --------------------------------------------------------------------------

func (m *memDB) SetWriteIdx(index uint64) {
	for {
		curr := m.currIndex.Load()
		if index <= curr || m.currIndex.CompareAndSwap(curr, index) {
			return
		}
	}
}

func (m *memDB) WriteIdx() uint64 {
	return m.currIndex.Load()
}

func (m *memDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables.Clear()
	m.sequences.Clear()
	return nil
}
