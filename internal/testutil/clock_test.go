package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtGivenTime(t *testing.T) {
	clock := NewFakeClock(1700000000)
	assert.Equal(t, uint64(1700000000), clock.Unix())
	assert.Equal(t, int64(1700000000), clock.Now().Unix())
}

func TestFakeClock_SetAndAdvance(t *testing.T) {
	clock := NewFakeClock(100)

	assert.Equal(t, uint64(130), clock.Advance(30))
	assert.Equal(t, uint64(130), clock.Unix())

	// Set may move backwards
	clock.Set(50)
	assert.Equal(t, uint64(50), clock.Unix())
}

func TestFakeClock_ConcurrentAdvance(t *testing.T) {
	clock := NewFakeClock(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), clock.Unix())
}

func TestFixedGUIDs_Sequence(t *testing.T) {
	g := NewFixedGUIDs("view")
	assert.Equal(t, "view-1", g.Generate())
	assert.Equal(t, "view-2", g.Generate())

	// A fresh generator restarts the sequence.
	assert.Equal(t, "view-1", NewFixedGUIDs("view").Generate())
}

func TestFixedGUIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "guid-1", NewFixedGUIDs("").Generate())
}
