package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs_GeneratesInOrder(t *testing.T) {
	gen := NewSequentialIDs("user")

	assert.Equal(t, "user-1", gen.Generate())
	assert.Equal(t, "user-2", gen.Generate())
	assert.Equal(t, "user-3", gen.Generate())
}

func TestSequentialIDs_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequentialIDs("")

	assert.Equal(t, "id-1", gen.Generate())
}

func TestSequentialIDs_Reset(t *testing.T) {
	gen := NewSequentialIDs("p")

	gen.Generate()
	gen.Generate()
	gen.Reset()

	assert.Equal(t, "p-1", gen.Generate())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDs("c")

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				_, dup := seen.LoadOrStore(id, true)
				assert.False(t, dup, "duplicate id %s", id)
			}
		}()
	}
	wg.Wait()
}
