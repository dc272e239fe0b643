package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunID_ReturnsSameID(t *testing.T) {
	gen := NewFixedRunID("test-run-123")

	assert.Equal(t, "test-run-123", gen.Generate())
	assert.Equal(t, "test-run-123", gen.Generate())
}

func TestFixedRunID_EmptyDefault(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunID("").Generate())
}

func TestFixedRunID_ThreadSafe(t *testing.T) {
	gen := NewFixedRunID("thread-safe-run")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe-run", gen.Generate())
			}
		}()
	}
	wg.Wait()
}
