package id

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dUID/cmd/util"
	"github.com/ValentinKolb/dUID/lib/alloc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Benchmark id allocation against the configured sequence",
		PreRunE: processPerfConfig,
		RunE:    runPerf,
	}
	perfNumThreads = 10
	perfAllocators = 1
)

func init() {
	key := "threads"
	perfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines allocating ids"))
	key = "allocators"
	perfCmd.Flags().Int(key, 1, util.WrapString("Number of independent allocators sharing the sequence (simulates several processes)"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	perfNumThreads = viper.GetInt("threads")
	perfAllocators = max(viper.GetInt("allocators"), 1)
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dUID id allocation")
	fmt.Println()
	fmt.Println("Configuration:")
	if viper.GetString("sequence-file") == "" {
		fmt.Println(util.GetClientConfig().String())
	} else {
		fmt.Printf("Sequence file: %s\n", viper.GetString("sequence-file"))
	}
	fmt.Printf("Threads: %d\nAllocators: %d\n\n", perfNumThreads, perfAllocators)

	// raw sequence round trips
	seqResult := testing.Benchmark(func(b *testing.B) {
		b.SetParallelism(perfNumThreads)
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if _, err := source.NextValue(); err != nil {
					b.Errorf("sequence: %v", err)
					return
				}
			}
		})
	})
	printResult("sequence", seqResult)

	// ids through allocators, checked for duplicates
	var duplicates int
	allocResult := testing.Benchmark(func(b *testing.B) {
		allocators := make([]*alloc.Allocator, perfAllocators)
		for i := range allocators {
			allocators[i] = newAllocator()
		}
		var (
			mu   sync.Mutex
			seen = make(map[int64]struct{}, b.N)
			next int
		)

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			mu.Lock()
			a := allocators[next%len(allocators)]
			next++
			mu.Unlock()

			for pb.Next() {
				id, err := a.NextID()
				if err != nil {
					b.Errorf("allocate: %v", err)
					return
				}
				mu.Lock()
				if _, ok := seen[id]; ok {
					duplicates++
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		})
	})
	printResult("allocate", allocResult)

	if duplicates > 0 {
		return fmt.Errorf("%d duplicate ids allocated", duplicates)
	}
	return nil
}

func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}
