package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	s := New("initial")
	assert.Equal(t, "initial", s.Get())

	s.Set("changed")
	assert.Equal(t, "changed", s.Get())
}

func TestStore_Update(t *testing.T) {
	s := New(10)
	got := s.Update(func(v int) int { return v + 5 })
	assert.Equal(t, 15, got)
	assert.Equal(t, 15, s.Get())
}

func TestStore_Subscribe(t *testing.T) {
	s := New(0)

	var seen []int
	cancel := s.Subscribe(func(v int) { seen = append(seen, v) })

	s.Set(1)
	s.Update(func(v int) int { return v + 1 })
	require.Equal(t, []int{1, 2}, seen)

	cancel()
	s.Set(99)
	assert.Equal(t, []int{1, 2}, seen, "cancelled subscriber must not fire")

	// Second cancel is a no-op.
	cancel()
}

func TestStore_SubscriberOrder(t *testing.T) {
	s := New(0)

	var order []string
	s.Subscribe(func(int) { order = append(order, "first") })
	s.Subscribe(func(int) { order = append(order, "second") })

	s.Set(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Get())
}
