package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	km := newKeyedMutex()

	var a, b int
	counters := map[string]*int{"a": &a, "b": &b}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				km.Lock(key)
				defer km.Unlock(key)
				*counters[key]++
			}(key)
		}
	}
	wg.Wait()

	assert.Equal(t, 50, a)
	assert.Equal(t, 50, b)
}

func TestKeyedMutex_EvictsIdleEntries(t *testing.T) {
	km := newKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("chat-1")
			km.Unlock("chat-1")
		}()
	}
	wg.Wait()

	km.Lock("chat-2")
	km.Unlock("chat-2")

	km.mu.Lock()
	defer km.mu.Unlock()
	require.Empty(t, km.locks)
}
