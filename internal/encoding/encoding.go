// Package encoding implements the pixel color encoding table: 90 tags
// spanning every component permutation of RGB (6) and RGBW (24) at 8/16/24
// bits per channel. The upsilon-striped UDP wire format is implemented in
// internal/egress.
package encoding

import (
	"fmt"

	"github.com/freyr-engine/freyr/internal/frame"
)

// Width is bits per channel.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
	Width24 Width = 24
)

// EncodeFunc appends the wire bytes for one pixel to dst and returns the
// extended slice.
type EncodeFunc func(dst []byte, p frame.Pixel) []byte

// Entry describes one encoding tag's wire characteristics.
type Entry struct {
	Tag             string
	Permutation     string // e.g. "RGB", "GRBW"
	Width           Width
	BytesPerPixel   int
	PixelsPer512Msg int
	Encode          EncodeFunc
}

// Table holds every defined encoding keyed by tag.
var Table = buildTable()

var rgbPerms = []string{"RGB", "RBG", "GRB", "GBR", "BRG", "BGR"}

// rgbwPerms enumerates all 24 orderings of R, G, B, W.
var rgbwPerms = permuteRGBW()

func permuteRGBW() []string {
	letters := []byte{'R', 'G', 'B', 'W'}
	var out []string
	var permute func(prefix []byte, rest []byte)
	permute = func(prefix []byte, rest []byte) {
		if len(rest) == 0 {
			out = append(out, string(prefix))
			return
		}
		for i := range rest {
			next := append(append([]byte{}, prefix...), rest[i])
			remaining := append(append([]byte{}, rest[:i]...), rest[i+1:]...)
			permute(next, remaining)
		}
	}
	permute(nil, letters)
	return out
}

func buildTable() map[string]Entry {
	tbl := make(map[string]Entry)
	widths := []Width{Width8, Width16, Width24}

	for _, perm := range rgbPerms {
		for _, w := range widths {
			e := makeEntry(perm, w)
			tbl[e.Tag] = e
		}
	}
	for _, perm := range rgbwPerms {
		for _, w := range widths {
			e := makeEntry(perm, w)
			tbl[e.Tag] = e
		}
	}
	return tbl
}

func makeEntry(perm string, w Width) Entry {
	channels := len(perm)
	bytesPerChannel := int(w) / 8
	bpp := channels * bytesPerChannel
	tag := fmt.Sprintf("%s%d", perm, w)

	budget := 512 / bpp

	return Entry{
		Tag:             tag,
		Permutation:     perm,
		Width:           w,
		BytesPerPixel:   bpp,
		PixelsPer512Msg: budget,
		Encode:          encoderFor(perm, w),
	}
}

func encoderFor(perm string, w Width) EncodeFunc {
	return func(dst []byte, p frame.Pixel) []byte {
		cp := p.Clamp()
		for _, ch := range perm {
			var v float64
			switch ch {
			case 'R':
				v = cp.R
			case 'G':
				v = cp.G
			case 'B':
				v = cp.B
			case 'W':
				v = 0
			}
			dst = appendChannel(dst, v, w)
		}
		return dst
	}
}

func appendChannel(dst []byte, v float64, w Width) []byte {
	switch w {
	case Width8:
		return append(dst, scale(v, 0xFF))
	case Width16:
		u := uint16(v*0xFFFF + 0.5)
		return append(dst, byte(u>>8), byte(u))
	case Width24:
		u := uint32(v*0xFFFFFF + 0.5)
		return append(dst, byte(u>>16), byte(u>>8), byte(u))
	default:
		return append(dst, scale(v, 0xFF))
	}
}

func scale(v float64, max uint32) byte {
	return byte(v*float64(max) + 0.5)
}

// Lookup returns the entry for tag, or false if tag is unknown.
func Lookup(tag string) (Entry, bool) {
	e, ok := Table[tag]
	return e, ok
}

// Len reports the total number of defined encodings (expected 90: 6 RGB
// perms + 24 RGBW perms, each at 3 widths).
func Len() int {
	return len(Table)
}
