package wait

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitWithTimeout(t *testing.T) {
	var w Wait
	assert.False(t, w.WaitWithTimeout(time.Second))

	w.Add(1)
	assert.True(t, w.WaitWithTimeout(20*time.Millisecond))

	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Done()
	}()
	assert.False(t, w.WaitWithTimeout(time.Second))
}
