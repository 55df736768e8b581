package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/frame"
)

func TestTableHasNinetyEntries(t *testing.T) {
	assert.Equal(t, 90, Len())
}

func TestLookupKnownTag(t *testing.T) {
	e, ok := Lookup("RGB8")
	require.True(t, ok)
	assert.Equal(t, 3, e.BytesPerPixel)
}

func TestLookupUnknownTag(t *testing.T) {
	_, ok := Lookup("QQQ8")
	assert.False(t, ok)
}

func TestRGBWEncodesZeroWhiteChannel(t *testing.T) {
	e, ok := Lookup("RGBW8")
	require.True(t, ok)
	buf := e.Encode(nil, frame.Pixel{R: 1, G: 1, B: 1})
	require.Len(t, buf, 4)
	assert.Equal(t, byte(0), buf[3])
}

func TestPermutationOrdersBytes(t *testing.T) {
	e, ok := Lookup("BGR8")
	require.True(t, ok)
	buf := e.Encode(nil, frame.Pixel{R: 0.2, G: 0.4, B: 0.6})
	rEntry, _ := Lookup("RGB8")
	rbuf := rEntry.Encode(nil, frame.Pixel{R: 0.2, G: 0.4, B: 0.6})
	// BGR8 emits RGB8's three bytes in reverse order.
	assert.Equal(t, []byte{rbuf[2], rbuf[1], rbuf[0]}, buf)
}

func TestWidth16RoundsToNearestLSB(t *testing.T) {
	e, ok := Lookup("RGB16")
	require.True(t, ok)
	buf := e.Encode(nil, frame.Pixel{R: 1, G: 0, B: 0.5})
	require.Len(t, buf, 6)
	assert.Equal(t, byte(0xFF), buf[0])
	assert.Equal(t, byte(0xFF), buf[1])
}

func TestClampsOutOfRangeComponents(t *testing.T) {
	e, ok := Lookup("RGB8")
	require.True(t, ok)
	buf := e.Encode(nil, frame.Pixel{R: 2, G: -1, B: 0.5})
	assert.Equal(t, byte(0xFF), buf[0])
	assert.Equal(t, byte(0x00), buf[1])
}

func TestPixelsPer512MsgBudget(t *testing.T) {
	e, ok := Lookup("RGB8")
	require.True(t, ok)
	assert.Equal(t, 512/3, e.PixelsPer512Msg)
}

func TestAllRGBWPermutationsPresent(t *testing.T) {
	count := 0
	for tag, e := range Table {
		if len(e.Permutation) == 4 {
			count++
			_ = tag
		}
	}
	assert.Equal(t, 24*3, count)
}
