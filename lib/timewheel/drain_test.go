package timewheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainFullWheel(t *testing.T) {
	w := MustNew[int](10)
	for i := 0; i < 10; i++ {
		w.Schedule(i, i)
	}

	var got []int
	ticks := w.DrainAll(func(batch []int) {
		got = append(got, batch...)
	})
	assert.Equal(t, 10, ticks)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
	assert.Equal(t, 0, w.Size())
}

func TestDrainEmptyWheel(t *testing.T) {
	w := MustNew[int](10)
	d := w.Drain()
	assert.False(t, d.Next())
	assert.Nil(t, d.Batch())
	assert.Equal(t, 0, d.Ticks())
	assert.Equal(t, 0, w.Position())
}

func TestDrainTicksThroughEmptyBuckets(t *testing.T) {
	w := MustNew[string](10)
	w.Schedule(6, "far")

	var batches [][]string
	d := w.Drain()
	for d.Next() {
		batches = append(batches, d.Batch())
	}

	assert.Len(t, batches, 7)
	for _, b := range batches[:6] {
		assert.Empty(t, b)
	}
	assert.Equal(t, []string{"far"}, batches[6])
	assert.Equal(t, 7, d.Ticks())
	assert.Equal(t, 7, w.Position())
}

func TestDrainStopsAfterLastValue(t *testing.T) {
	w := MustNew[int](10)
	w.Schedule(2, 1)
	w.Schedule(0, 2)

	d := w.Drain()
	assert.True(t, d.Next())
	assert.Equal(t, []int{2}, d.Batch())
	assert.True(t, d.Next())
	assert.Empty(t, d.Batch())
	assert.True(t, d.Next())
	assert.Equal(t, []int{1}, d.Batch())
	assert.False(t, d.Next())

	// sticky once finished
	w.Schedule(0, 3)
	assert.False(t, d.Next())
	assert.Equal(t, 1, w.Size())
}

func TestDrainWithReschedule(t *testing.T) {
	w := MustNew[int](4)
	w.Schedule(1, 0)

	var seen []int
	d := w.Drain()
	for d.Next() {
		for _, v := range d.Batch() {
			seen = append(seen, v)
			if v < 3 {
				w.Schedule(1, v+1)
			}
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
	assert.Equal(t, 8, d.Ticks())
}

func TestDrainAllNilFunc(t *testing.T) {
	w := MustNew[int](3)
	w.Schedule(2, 1)
	assert.Equal(t, 3, w.DrainAll(nil))
	assert.Equal(t, 0, w.Size())
}
