package datalake_test

import (
	"sync"
	"testing"

	"github.com/sparkify/datalake"
)

func TestNexter(t *testing.T) {
	n := datalake.NewNexter(datalake.NexterStartFrom(19))
	if num := n.Next(); num != 19 {
		t.Fatalf("expected 19 for Next, but %d", num)
	}
	if num := n.Last(); num != 19 {
		t.Fatalf("expected 19 for Last, but %d", num)
	}
}

func TestNexterConcurrent(t *testing.T) {
	n := datalake.NewNexter()
	var mu sync.Mutex
	seen := make(map[uint64]struct{})
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := n.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 800 {
		t.Fatalf("expected 800 unique ids, got %d", len(seen))
	}
	if n.Last() != 799 {
		t.Fatalf("expected last id 799, got %d", n.Last())
	}
}
