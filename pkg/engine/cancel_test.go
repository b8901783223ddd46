package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelRegistryRequestAndClear(t *testing.T) {
	registry := NewCancelRegistry()

	assert.False(t, registry.IsRequested("exec-1"))

	registry.Request("exec-1")
	assert.True(t, registry.IsRequested("exec-1"))
	assert.False(t, registry.IsRequested("exec-2"))

	// Requesting twice is idempotent.
	registry.Request("exec-1")
	assert.True(t, registry.IsRequested("exec-1"))

	registry.Clear("exec-1")
	assert.False(t, registry.IsRequested("exec-1"))

	// Clearing an unknown run is harmless.
	registry.Clear("never-seen")
}

func TestCancelRegistryConcurrentAccess(t *testing.T) {
	registry := NewCancelRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("exec-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Request(id)
			registry.IsRequested(id)
			registry.Clear(id)
		}()
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.False(t, registry.IsRequested(fmt.Sprintf("exec-%d", i)))
	}
}
