package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()

	first, created := r.GetOrCreate("s1", func() *Instance {
		return NewInstance("s1", nil, nil, nil, nil, nil)
	})
	require.True(t, created)

	second, created := r.GetOrCreate("s1", func() *Instance {
		t.Fatal("factory must not run for an existing session")
		return nil
	})
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentCreateIsAtomic(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	var instances []*Instance

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in, _ := r.GetOrCreate("shared", func() *Instance {
				return NewInstance("shared", nil, nil, nil, nil, nil)
			})
			mu.Lock()
			instances = append(instances, in)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, instances, 32)
	for _, in := range instances {
		assert.Same(t, instances[0], in)
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("s1", func() *Instance { return NewInstance("s1", nil, nil, nil, nil, nil) })

	r.Remove("s1")
	_, ok := r.Get("s1")
	assert.False(t, ok)
}

func TestRegistrySweepEvictsOnlyIdle(t *testing.T) {
	r := NewRegistry()

	idle, _ := r.GetOrCreate("idle", func() *Instance { return NewInstance("idle", nil, nil, nil, nil, nil) })
	busy, _ := r.GetOrCreate("busy", func() *Instance { return NewInstance("busy", nil, nil, nil, nil, nil) })

	// Backdate the idle instance; keep the busy one mid-drain.
	idle.mu.Lock()
	idle.lastActivity = time.Now().Add(-time.Hour)
	idle.mu.Unlock()

	busy.mu.Lock()
	busy.lastActivity = time.Now().Add(-time.Hour)
	busy.busy = true
	busy.mu.Unlock()

	evicted := r.Sweep(time.Now().Add(-time.Minute))
	assert.Equal(t, 1, evicted)

	_, ok := r.Get("idle")
	assert.False(t, ok)
	_, ok = r.Get("busy")
	assert.True(t, ok)
}
