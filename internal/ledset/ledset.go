// Package ledset implements the ordered-unique pixel index set used
// throughout Freyr to describe which pixels an animation, tier, or egress
// owns.
package ledset

import "sort"

// LEDSet is an ordered-unique collection of nonnegative pixel indices.
// Storage is kept sorted ascending and deduplicated after every public
// mutation unless a batch is open (see Batch/EndBatch).
type LEDSet struct {
	data      []int
	batch     int
	batchDiry bool
}

// New creates an LEDSet from the given indices, sorting and deduplicating
// them immediately.
func New(indices ...int) *LEDSet {
	s := &LEDSet{data: append([]int(nil), indices...)}
	s.normalize()
	return s
}

// Batch opens a batched-modification window: Append no longer sorts/dedups
// until the matching EndBatch closes the outermost window. Batches nest.
func (s *LEDSet) Batch() {
	s.batch++
}

// EndBatch closes one batch level. When the outermost batch closes and the
// set was mutated during the batch, storage is normalized once.
func (s *LEDSet) EndBatch() {
	if s.batch == 0 {
		return
	}
	s.batch--
	if s.batch == 0 && s.batchDiry {
		s.normalize()
		s.batchDiry = false
	}
}

func (s *LEDSet) normalize() {
	sort.Ints(s.data)
	out := s.data[:0]
	var prev int
	havePrev := false
	for _, v := range s.data {
		if havePrev && v == prev {
			continue
		}
		out = append(out, v)
		prev = v
		havePrev = true
	}
	s.data = out
}

// Append adds a single index. Outside a batch this sorts/dedups
// immediately; inside a batch the normalization is deferred to EndBatch.
func (s *LEDSet) Append(index int) {
	s.data = append(s.data, index)
	if s.batch > 0 {
		s.batchDiry = true
		return
	}
	s.normalize()
}

// AppendAll appends every index from other (duplicates collapse on
// normalization).
func (s *LEDSet) AppendAll(other *LEDSet) {
	if other == nil {
		return
	}
	s.Batch()
	for _, v := range other.data {
		s.Append(v)
	}
	s.EndBatch()
}

// Len returns the number of indices in the set.
func (s *LEDSet) Len() int { return len(s.data) }

// Empty reports whether the set has no indices.
func (s *LEDSet) Empty() bool { return len(s.data) == 0 }

// Data returns the raw contiguous, sorted, deduplicated backing array. The
// slice must not be mutated by the caller; hot animation loops use this to
// index pixels with a single bounds check per element.
func (s *LEDSet) Data() []int { return s.data }

// Contains reports set membership in O(log n).
func (s *LEDSet) Contains(index int) bool {
	i := sort.SearchInts(s.data, index)
	return i < len(s.data) && s.data[i] == index
}

// Clone returns an independent copy of the set.
func (s *LEDSet) Clone() *LEDSet {
	return &LEDSet{data: append([]int(nil), s.data...)}
}

// Union returns a new set containing every index present in a or b.
func Union(a, b *LEDSet) *LEDSet {
	out := &LEDSet{data: make([]int, 0, a.Len()+b.Len())}
	ai, bi := 0, 0
	for ai < len(a.data) && bi < len(b.data) {
		switch {
		case a.data[ai] < b.data[bi]:
			out.data = append(out.data, a.data[ai])
			ai++
		case a.data[ai] > b.data[bi]:
			out.data = append(out.data, b.data[bi])
			bi++
		default:
			out.data = append(out.data, a.data[ai])
			ai++
			bi++
		}
	}
	out.data = append(out.data, a.data[ai:]...)
	out.data = append(out.data, b.data[bi:]...)
	return out
}

// Difference returns a new set containing every index of a not present in b.
func Difference(a, b *LEDSet) *LEDSet {
	out := &LEDSet{data: make([]int, 0, a.Len())}
	bi := 0
	for _, v := range a.data {
		for bi < len(b.data) && b.data[bi] < v {
			bi++
		}
		if bi < len(b.data) && b.data[bi] == v {
			continue
		}
		out.data = append(out.data, v)
	}
	return out
}

// Intersection returns a new set containing every index present in both a
// and b.
func Intersection(a, b *LEDSet) *LEDSet {
	out := &LEDSet{data: make([]int, 0, min(a.Len(), b.Len()))}
	ai, bi := 0, 0
	for ai < len(a.data) && bi < len(b.data) {
		switch {
		case a.data[ai] < b.data[bi]:
			ai++
		case a.data[ai] > b.data[bi]:
			bi++
		default:
			out.data = append(out.data, a.data[ai])
			ai++
			bi++
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AdjustRemoved shifts every index >= offset+count downward by count and
// drops indices within [offset, offset+count). Used to keep LEDSets
// consistent when an egress splices pixels out of the frame.
func (s *LEDSet) AdjustRemoved(offset, count int) {
	if count <= 0 {
		return
	}
	end := offset + count
	out := s.data[:0]
	for _, v := range s.data {
		switch {
		case v < offset:
			out = append(out, v)
		case v >= end:
			out = append(out, v-count)
		default:
			// dropped: inside the removed range
		}
	}
	s.data = out
}
