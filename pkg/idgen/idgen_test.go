package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator(t *testing.T) {
	t.Run("starts after base", func(t *testing.T) {
		g := New(1000)
		assert.Equal(t, int64(1001), g.Next())
		assert.Equal(t, int64(1002), g.Next())
		assert.Equal(t, int64(1002), g.Last())
	})

	t.Run("advance never moves backwards", func(t *testing.T) {
		g := New(1000)
		g.Advance(1500)
		assert.Equal(t, int64(1501), g.Next())
		g.Advance(1200)
		assert.Equal(t, int64(1502), g.Next())
	})

	t.Run("concurrent allocation is unique", func(t *testing.T) {
		g := New(0)
		const workers, perWorker = 8, 500
		var mu sync.Mutex
		seen := make(map[int64]struct{}, workers*perWorker)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				local := make([]int64, 0, perWorker)
				for i := 0; i < perWorker; i++ {
					local = append(local, g.Next())
				}
				mu.Lock()
				for _, id := range local {
					seen[id] = struct{}{}
				}
				mu.Unlock()
			}()
		}
		wg.Wait()
		require.Len(t, seen, workers*perWorker)
		assert.Equal(t, int64(workers*perWorker), g.Last())
	})
}
