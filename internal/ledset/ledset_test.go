package ledset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSortsAndDedups(t *testing.T) {
	s := New(5, 1, 3, 1, 2)
	assert.Equal(t, []int{1, 2, 3, 5}, s.Data())
}

func TestAppendKeepsSorted(t *testing.T) {
	s := New()
	s.Append(3)
	s.Append(1)
	s.Append(2)
	s.Append(1)
	assert.Equal(t, []int{1, 2, 3}, s.Data())
}

func TestBatchDefersNormalization(t *testing.T) {
	s := New()
	s.Batch()
	s.Append(3)
	s.Append(1)
	s.Append(1)
	// still unsorted/duplicated mid-batch
	require.Equal(t, []int{3, 1, 1}, s.data)
	s.EndBatch()
	assert.Equal(t, []int{1, 3}, s.Data())
}

func TestNestedBatches(t *testing.T) {
	s := New()
	s.Batch()
	s.Batch()
	s.Append(2)
	s.Append(1)
	s.EndBatch() // inner close: still open outer batch
	require.Equal(t, []int{2, 1}, s.data)
	s.EndBatch()
	assert.Equal(t, []int{1, 2}, s.Data())
}

func TestUnion(t *testing.T) {
	a := New(1, 2, 5)
	b := New(2, 3)
	assert.Equal(t, []int{1, 2, 3, 5}, Union(a, b).Data())
}

func TestDifference(t *testing.T) {
	a := New(1, 2, 3, 5)
	b := New(2, 3)
	assert.Equal(t, []int{1, 5}, Difference(a, b).Data())
}

func TestIntersection(t *testing.T) {
	a := New(1, 2, 3, 5)
	b := New(2, 3, 9)
	assert.Equal(t, []int{2, 3}, Intersection(a, b).Data())
}

func TestContains(t *testing.T) {
	s := New(1, 2, 5)
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(3))
}

func TestAdjustRemovedBefore(t *testing.T) {
	s := New(1, 2, 3)
	s.AdjustRemoved(10, 5)
	assert.Equal(t, []int{1, 2, 3}, s.Data())
}

func TestAdjustRemovedInside(t *testing.T) {
	s := New(10, 11, 12)
	s.AdjustRemoved(10, 5)
	assert.Equal(t, []int{}, s.Data())
}

func TestAdjustRemovedStraddling(t *testing.T) {
	s := New(8, 10, 12, 20)
	s.AdjustRemoved(10, 5) // removes [10,15)
	assert.Equal(t, []int{8, 15}, s.Data())
}

func TestAppendAll(t *testing.T) {
	a := New(1, 3)
	b := New(2, 3, 4)
	a.AppendAll(b)
	assert.Equal(t, []int{1, 2, 3, 4}, a.Data())
}

func TestCloneIndependence(t *testing.T) {
	a := New(1, 2)
	b := a.Clone()
	b.Append(3)
	assert.Equal(t, []int{1, 2}, a.Data())
	assert.Equal(t, []int{1, 2, 3}, b.Data())
}
