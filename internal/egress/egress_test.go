package egress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/frame"
)

type recordingBackend struct {
	flushed []frame.Pixel
	err     error
}

func (b *recordingBackend) Flush(offset, count int, pixels []frame.Pixel) error {
	b.flushed = append([]frame.Pixel{}, pixels...)
	return b.err
}

func TestAddGrowsFrameAndTriggersHook(t *testing.T) {
	f := frame.New()
	var added int
	list := NewList(f, Hooks{LEDsAdded: func(n int) { added += n }})

	list.Add("strand0", 10, &recordingBackend{})
	assert.Equal(t, 10, f.Len())
	assert.Equal(t, 10, added)
}

func TestRemoveShrinksFrameAndTriggersHookWithOffset(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("strand0", 5, &recordingBackend{})
	var gotOffset, gotCount int
	list.hooks.LEDsRemoved = func(offset, count int) { gotOffset, gotCount = offset, count }
	list.Add("strand1", 5, &recordingBackend{})

	require.NoError(t, list.Remove("strand1"))
	assert.Equal(t, 5, gotOffset)
	assert.Equal(t, 5, gotCount)
	assert.Equal(t, 5, f.Len())
}

func TestRemoveUnknownErrors(t *testing.T) {
	list := NewList(frame.New(), Hooks{})
	assert.Error(t, list.Remove("nope"))
}

func TestOffsetsArePrefixSums(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("a", 3, &recordingBackend{})
	list.Add("b", 4, &recordingBackend{})

	_, offsetA, ok := list.Get("a")
	require.True(t, ok)
	_, offsetB, ok := list.Get("b")
	require.True(t, ok)

	assert.Equal(t, 0, offsetA)
	assert.Equal(t, 3, offsetB)
}

func TestTotalEqualsFrameLen(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("a", 3, &recordingBackend{})
	list.Add("b", 4, &recordingBackend{})
	assert.Equal(t, f.Len(), list.Total())
}

func TestFlushAllSkipsInactive(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("a", 2, &recordingBackend{})
	b2 := &recordingBackend{}
	list.Add("b", 2, b2)
	require.NoError(t, list.SetActive("b", false))

	f.FlushAnim()
	f.FlushEgress()
	errs := list.FlushAll()
	assert.Empty(t, errs)
	assert.Nil(t, b2.flushed)
}

func TestFlushAllCollectsBackendErrors(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("a", 2, &recordingBackend{err: assertErr})

	f.FlushAnim()
	f.FlushEgress()
	errs := list.FlushAll()
	require.Len(t, errs, 1)
}

var assertErr = errTest{}

type errTest struct{}

func (errTest) Error() string { return "backend failure" }

func TestDefineStreamValidatesSegmentSum(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("a", 4, &recordingBackend{})

	err := list.DefineStream("a", []StreamSegment{{Encoding: "RGB8", Count: 2}})
	assert.Error(t, err)

	err = list.DefineStream("a", []StreamSegment{{Encoding: "RGB8", Count: 4}})
	assert.NoError(t, err)
}

func TestAddZeroCountLeavesFrameUnchangedButAddressable(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("empty", 0, &recordingBackend{})
	assert.Equal(t, 0, f.Len())
	_, _, ok := list.Get("empty")
	assert.True(t, ok)
}

func TestNames(t *testing.T) {
	f := frame.New()
	list := NewList(f, Hooks{})
	list.Add("a", 1, &recordingBackend{})
	list.Add("b", 1, &recordingBackend{})
	assert.Equal(t, []string{"a", "b"}, list.Names())
}
