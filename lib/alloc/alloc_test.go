package alloc

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dUID/lib/seq"
)

// countingSource is a thread-safe in-memory sequence that counts its calls.
type countingSource struct {
	next  atomic.Int64
	calls atomic.Int64
	fail  atomic.Bool
}

func (s *countingSource) NextValue() (int64, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return 0, errors.New("unreachable")
	}
	return s.next.Add(1), nil
}

func TestBlockAmortization(t *testing.T) {
	src := &countingSource{}
	a := New(src)

	for i := 0; i < BlockSize; i++ {
		id, err := a.NextID()
		if err != nil {
			t.Fatalf("NextID() error = %v", err)
		}
		if want := int64(BlockSize + i); id != want {
			t.Fatalf("NextID() = %d, want %d", id, want)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source calls after %d ids = %d, want 1", BlockSize, got)
	}

	id, err := a.NextID()
	if err != nil {
		t.Fatal(err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("source calls after %d ids = %d, want 2", BlockSize+1, got)
	}
	if id != 2*BlockSize {
		t.Errorf("first id of second block = %d, want %d", id, 2*BlockSize)
	}
}

func TestUniqueAcrossProcesses(t *testing.T) {
	// several allocators simulate processes sharing one source
	src := &countingSource{}
	const processes, workers, perWorker = 4, 8, 700

	var mu sync.Mutex
	seen := make(map[int64]bool, processes*workers*perWorker)
	var wg sync.WaitGroup
	for p := 0; p < processes; p++ {
		a := New(src)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ids := make([]int64, 0, perWorker)
				for i := 0; i < perWorker; i++ {
					id, err := a.NextID()
					if err != nil {
						t.Errorf("NextID() error = %v", err)
						return
					}
					ids = append(ids, id)
				}
				mu.Lock()
				defer mu.Unlock()
				for _, id := range ids {
					if seen[id] {
						t.Errorf("id %d issued twice", id)
					}
					seen[id] = true
				}
			}()
		}
	}
	wg.Wait()

	if len(seen) != processes*workers*perWorker {
		t.Errorf("distinct ids = %d, want %d", len(seen), processes*workers*perWorker)
	}
}

func TestFailureDoesNotAdvance(t *testing.T) {
	src := &countingSource{}
	src.fail.Store(true)
	a := New(src)

	_, err := a.NextID()
	if !errors.Is(err, ErrSequenceUnavailable) {
		t.Fatalf("NextID() error = %v, want ErrSequenceUnavailable", err)
	}
	if seed, inc := a.State(); seed != -1 || inc != -1 {
		t.Fatalf("State() = (%d, %d), want (-1, -1)", seed, inc)
	}

	src.fail.Store(false)
	for i := 0; i < BlockSize; i++ {
		if _, err := a.NextID(); err != nil {
			t.Fatal(err)
		}
	}

	// exhausted block, the next fetch fails and the state stays exhausted
	src.fail.Store(true)
	if _, err := a.NextID(); err == nil {
		t.Fatal("NextID() expected error")
	}
	seed, inc := a.State()
	if inc != BlockSize {
		t.Errorf("increment = %d, want %d", inc, BlockSize)
	}

	src.fail.Store(false)
	id, err := a.NextID()
	if err != nil {
		t.Fatal(err)
	}
	if newSeed, _ := a.State(); newSeed == seed || id != newSeed*BlockSize {
		t.Errorf("after recovery id = %d, seed = %d (old %d)", id, newSeed, seed)
	}
}

func TestSeedOverflow(t *testing.T) {
	tests := []struct {
		name    string
		seed    int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"max", MaxSeed, false},
		{"max plus one", MaxSeed + 1, true},
		{"negative", -5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(seq.SourceFunc(func() (int64, error) { return tt.seed, nil }))
			id, err := a.NextID()
			if tt.wantErr {
				if !errors.Is(err, ErrSeedOverflow) {
					t.Fatalf("NextID() error = %v, want ErrSeedOverflow", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextID() error = %v", err)
			}
			if id != tt.seed*BlockSize {
				t.Errorf("NextID() = %d, want %d", id, tt.seed*BlockSize)
			}
		})
	}
}
