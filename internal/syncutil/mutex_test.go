package syncutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutexWith(t *testing.T) {
	t.Parallel()
	var (
		wg sync.WaitGroup
		m  Mutex
		n  int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.With(func() { n++ })
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, n)
}
