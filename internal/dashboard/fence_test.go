package dashboard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFence(t *testing.T) {
	var f Fence

	first := f.Next()
	assert.True(t, f.Current(first))

	second := f.Next()
	assert.False(t, f.Current(first))
	assert.True(t, f.Current(second))

	f.Invalidate()
	assert.False(t, f.Current(second))
}

func TestFence_Concurrent(t *testing.T) {
	var f Fence
	var wg sync.WaitGroup
	ids := make(chan uint64, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- f.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	current := 0
	for id := range ids {
		assert.False(t, seen[id], "ids are unique")
		seen[id] = true
		if f.Current(id) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}
