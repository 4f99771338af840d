package fseq

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestNextValue(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seq", "objectidseed")

	s, err := New(path)
	is.NoErr(err)

	for want := int64(1); want <= 3; want++ {
		v, err := s.NextValue()
		is.NoErr(err)
		is.Equal(v, want)
	}

	cur, err := s.Current()
	is.NoErr(err)
	is.Equal(cur, int64(3))

	// a second handle continues where the first stopped
	s2, err := New(path)
	is.NoErr(err)
	v, err := s2.NextValue()
	is.NoErr(err)
	is.Equal(v, int64(4))
}

func TestConcurrentHandles(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "shared")

	const handles, perHandle = 4, 50
	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for h := 0; h < handles; h++ {
		s, err := New(path)
		is.NoErr(err)
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perHandle; i++ {
					v, err := s.NextValue()
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
	}
	wg.Wait()
	is.Equal(len(seen), handles*2*perHandle)
}

func TestCorruptFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "corrupt")
	is.NoErr(os.WriteFile(path, []byte("not a number"), 0o644))

	s, err := New(path)
	is.NoErr(err)
	_, err = s.NextValue()
	is.True(err != nil) // corrupt content must not be treated as zero
}

func TestEmptyPath(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("New(\"\") expected error")
	}
}
