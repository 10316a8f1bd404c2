package monitoring

import (
	"fmt"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// loggerMu serialises the tests that swap the global logger.
var loggerMu sync.Mutex

func capture(t *testing.T) *[]string {
	t.Helper()
	loggerMu.Lock()
	var lines []string
	var mu sync.Mutex
	SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() {
		SetLogger(log.Printf)
		loggerMu.Unlock()
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)

	Logf("frame %d dropped", 7)
	assert.Equal(t, []string{"frame 7 dropped"}, *lines)

	SetLogger(nil)
	Logf("muted")
	assert.Len(t, *lines, 1, "nil logger must not reach the previous one")
}

func TestComponent(t *testing.T) {
	lines := capture(t)

	Component("detect")("table: %s", "not found")
	assert.Equal(t, []string{"[detect] table: not found"}, *lines)
}

func TestLogf_ConcurrentWithSwap(t *testing.T) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defer SetLogger(log.Printf)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Logf("tick %d", j)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		SetLogger(nil)
	}
	wg.Wait()
}
