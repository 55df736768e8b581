package compositor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freyr-engine/freyr/internal/ledset"
)

// Coordinate is a pixel's 3D position, as populated by coordinates_set.
type Coordinate struct {
	X, Y, Z float64
}

// CoordinateSource is implemented by the coordinates module: it exposes the
// per-pixel coordinate table the voxel selector consults.
type CoordinateSource interface {
	Coordinate(index int) (Coordinate, bool)
	Len() int
}

// GroupSource is implemented by the grouping module: it resolves a named
// group to its member pixel indices.
type GroupSource interface {
	Group(name string) (*ledset.LEDSet, bool)
}

// SelectorContext supplies the selector parser with the data sources named
// selectors consult.
type SelectorContext struct {
	FrameLen    int
	Coordinates CoordinateSource
	Groups      GroupSource
}

// ParseSelectors parses one or more whitespace-delimited selectors and
// unions their pixels, per §4.9.
func ParseSelectors(tokens []string, ctx SelectorContext) (*ledset.LEDSet, error) {
	result := ledset.New()
	i := 0
	for i < len(tokens) {
		set, consumed, err := parseOne(tokens[i:], ctx)
		if err != nil {
			return nil, err
		}
		result = ledset.Union(result, set)
		i += consumed
	}
	return result, nil
}

func parseOne(tokens []string, ctx SelectorContext) (*ledset.LEDSet, int, error) {
	if len(tokens) == 0 {
		return nil, 0, fmt.Errorf("selector: missing argument")
	}
	switch tokens[0] {
	case "all":
		set := ledset.New()
		for i := 0; i < ctx.FrameLen; i++ {
			set.Append(i)
		}
		return set, 1, nil

	case "voxel":
		return parseVoxel(tokens, ctx)

	default:
		if ctx.Groups == nil {
			return nil, 0, fmt.Errorf("selector: no group source configured for %q", tokens[0])
		}
		set, ok := ctx.Groups.Group(tokens[0])
		if !ok {
			return nil, 0, fmt.Errorf("selector: unknown group %q", tokens[0])
		}
		return set.Clone(), 1, nil
	}
}

func parseVoxel(tokens []string, ctx SelectorContext) (*ledset.LEDSet, int, error) {
	// voxel cx cy cz ex [ey ez]
	if len(tokens) < 5 {
		return nil, 0, fmt.Errorf("selector: voxel requires at least cx cy cz ex")
	}
	nums := make([]float64, 0, 6)
	consumed := 1
	for consumed < len(tokens) && len(nums) < 6 {
		v, err := strconv.ParseFloat(tokens[consumed], 64)
		if err != nil {
			break
		}
		nums = append(nums, v)
		consumed++
	}
	if len(nums) < 4 {
		return nil, 0, fmt.Errorf("selector: voxel requires cx cy cz ex [ey ez]")
	}
	cx, cy, cz, ex := nums[0], nums[1], nums[2], nums[3]
	ey, ez := ex, ex
	if len(nums) >= 5 {
		ey = nums[4]
	}
	if len(nums) >= 6 {
		ez = nums[5]
	}

	set := ledset.New()
	if ctx.Coordinates == nil {
		return set, consumed, nil
	}
	for i := 0; i < ctx.Coordinates.Len(); i++ {
		c, ok := ctx.Coordinates.Coordinate(i)
		if !ok {
			continue
		}
		if withinBox(c, cx, cy, cz, ex, ey, ez) {
			set.Append(i)
		}
	}
	return set, consumed, nil
}

func withinBox(c Coordinate, cx, cy, cz, ex, ey, ez float64) bool {
	return absf(c.X-cx) <= ex && absf(c.Y-cy) <= ey && absf(c.Z-cz) <= ez
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SplitSelectorLine is a small helper for commands that embed a selector
// clause inline (e.g. "display X on <selector> tier T"): it splits the
// remaining argument string on whitespace for ParseSelectors.
func SplitSelectorLine(s string) []string {
	return strings.Fields(s)
}
