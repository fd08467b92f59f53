package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_GetOrCreate(t *testing.T) {
	store := NewInMemoryStore()

	_, ok := store.Get("s1")
	assert.False(t, ok)

	a := store.GetOrCreate("s1")
	b := store.GetOrCreate("s1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, store.Len())

	c := store.Create("s1")
	assert.NotSame(t, a, c)

	got, ok := store.Get("s1")
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.True(t, store.Delete("s1"))
	assert.False(t, store.Delete("s1"))
}

func TestInMemoryStore_ConcurrentGetOrCreate(t *testing.T) {
	store := NewInMemoryStore()
	results := make([]*Session, 32)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestInMemoryStore_Prune(t *testing.T) {
	store := NewInMemoryStore()
	old := store.GetOrCreate("old")
	old.mu.Lock()
	old.updated = time.Now().Add(-2 * time.Hour)
	old.mu.Unlock()
	store.GetOrCreate("fresh")

	removed := store.Prune(time.Hour)
	assert.Equal(t, []string{"old"}, removed)
	_, ok := store.Get("fresh")
	assert.True(t, ok)
}

func TestInMemoryStore_PruneKeepsBusySessions(t *testing.T) {
	store := NewInMemoryStore()
	busy := store.GetOrCreate("busy")
	require.True(t, busy.TryBeginTurn())
	busy.mu.Lock()
	busy.updated = time.Now().Add(-2 * time.Hour)
	busy.mu.Unlock()

	assert.Empty(t, store.Prune(time.Hour))

	busy.EndTurn()
	busy.mu.Lock()
	busy.updated = time.Now().Add(-2 * time.Hour)
	busy.mu.Unlock()
	assert.Equal(t, []string{"busy"}, store.Prune(time.Hour))
}

func TestInMemoryStore_PruneKeepsAttachedSessions(t *testing.T) {
	store := NewInMemoryStore()
	live := store.GetOrCreate("live")
	detach := live.Attach()
	live.mu.Lock()
	live.updated = time.Now().Add(-2 * time.Hour)
	live.mu.Unlock()

	assert.Empty(t, store.Prune(time.Hour))

	detach()
	detach()
	assert.False(t, live.Attached())
	live.mu.Lock()
	live.updated = time.Now().Add(-2 * time.Hour)
	live.mu.Unlock()
	assert.Equal(t, []string{"live"}, store.Prune(time.Hour))
}
