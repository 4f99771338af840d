package alloc

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ValentinKolb/dUID/lib/seq"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

// BlockSize is the number of ids issued locally per fetched seed.
const BlockSize = 1024

// MaxSeed is the largest seed whose block still fits into an int64.
const MaxSeed = (math.MaxInt64 - (BlockSize - 1)) / BlockSize

var (
	ErrSequenceUnavailable = errors.New("sequence source unavailable")
	ErrSeedOverflow        = errors.New("seed out of range")
)

var (
	log = logger.GetLogger("alloc")

	idsIssued     = metrics.NewCounter(`duid_alloc_ids_issued_total`)
	seedsFetched  = metrics.NewCounter(`duid_alloc_seeds_fetched_total`)
	fetchFailures = metrics.NewCounter(`duid_alloc_seed_fetch_failures_total`)
)

// Allocator issues process-unique ids from a shared sequence source.
// Every fetched seed reserves the block [seed*BlockSize, seed*BlockSize+BlockSize).
// Since the source never hands out a seed twice, ids are unique across all
// processes sharing the source.
type Allocator struct {
	mu     sync.Mutex
	source seq.ISequenceSource
	seed   int64
	inc    int64
}

// New returns an allocator without a seed. The first NextID call fetches one.
func New(source seq.ISequenceSource) *Allocator {
	return &Allocator{
		source: source,
		seed:   -1,
		inc:    -1,
	}
}

// NextID returns a new id. The lock is held during a seed fetch.
// If the fetch fails, the state is left unchanged and the error is returned.
func (a *Allocator) NextID() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seed == -1 || a.inc >= BlockSize {
		seed, err := a.source.NextValue()
		if err != nil {
			fetchFailures.Inc()
			log.Errorf("failed to fetch seed: %v", err)
			return 0, fmt.Errorf("%w: %w", ErrSequenceUnavailable, err)
		}
		if seed < 0 || seed > MaxSeed {
			fetchFailures.Inc()
			return 0, fmt.Errorf("%w: %d (max %d)", ErrSeedOverflow, seed, MaxSeed)
		}
		seedsFetched.Inc()
		log.Debugf("fetched seed %d", seed)
		a.seed = seed
		a.inc = 0
	}

	id := a.seed*BlockSize + a.inc
	a.inc++
	idsIssued.Inc()
	return id, nil
}

// State returns the current seed and the number of ids issued from it.
// Both are -1 before the first fetch.
func (a *Allocator) State() (seed, increment int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seed, a.inc
}
