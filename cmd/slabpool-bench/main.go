package main

import (
	"flag"
	"fmt"
	"log"
	"sync"

	"github.com/kesh-labs/slabpool"
)

var (
	workersFlag     = flag.Int("workers", 256, "number of goroutines allocating concurrently")
	iterationsFlag  = flag.Int("iterations", 100000, "allocations performed per worker")
	bufferSizeFlag  = flag.Int("buffer-size", 4096, "capacity requested for each buffer")
	slabSizeFlag    = flag.Int("slab-size", 64*1024, "backing slab size in bytes")
	memoryCapMBFlag = flag.Int64("memory-cap-mb", 0, "total slab memory cap in MiB, 0 for unlimited")
)

func main() {
	flag.Parse()

	cfg := slabpool.Build().SlabSize(*slabSizeFlag)
	if *memoryCapMBFlag > 0 {
		cfg = cfg.MemoryCap(*memoryCapMBFlag * 1024 * 1024)
	}

	allocator, err := cfg.Finish()
	if err != nil {
		log.Fatalf("building allocator: %s", err)
	}
	defer allocator.Close()

	var wg sync.WaitGroup
	for i := 0; i < *workersFlag; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			workerLoop(allocator, *iterationsFlag, *bufferSizeFlag)
		}()
	}
	wg.Wait()

	stats := allocator.Stats()
	fmt.Printf("slabs=%d fast-path=%d fallback=%d\n", stats.Slabs, stats.FastPathAllocations, stats.FallbackAllocations)
}

func workerLoop(allocator *slabpool.Allocator, iterations, bufferSize int) {
	for i := 0; i < iterations; i++ {
		buf := slabpool.NewBufferWithCapacity(allocator, bufferSize)
		buf.Release()
	}
}
