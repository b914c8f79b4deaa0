package card

import (
	"math"
	"strconv"
)

// Native canvas the layout is defined on.
const (
	NativeWidth  = 600
	NativeHeight = 250

	MaxWidth  = 1200
	MaxHeight = 600
)

// nativeRatio is the template aspect ratio, 12:5.
const nativeRatio = float64(NativeWidth) / float64(NativeHeight)

// Size is the pixel size a card is rendered at.
type Size struct {
	Width  int
	Height int
}

// NativeSize is the size the layout is defined at.
var NativeSize = Size{Width: NativeWidth, Height: NativeHeight}

// Scale returns the horizontal and vertical factors that map the native canvas onto s.
func (s Size) Scale() (float64, float64) {
	return float64(s.Width) / NativeWidth, float64(s.Height) / NativeHeight
}

// IsNative reports whether s needs no scaling.
func (s Size) IsNative() bool {
	return s == NativeSize
}

// ParseDimension parses a width or height query value. Absent, unparsable and
// non-positive values report ok == false.
func ParseDimension(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ResolveSize turns the raw width and height query values into the final render
// size. Dimensions are clamped to MaxWidth x MaxHeight first, then the other
// dimension is derived so the result keeps the native 12:5 aspect ratio.
func ResolveSize(rawWidth, rawHeight string) Size {
	w, hasWidth := ParseDimension(rawWidth)
	h, hasHeight := ParseDimension(rawHeight)

	w = min(w, MaxWidth)
	h = min(h, MaxHeight)

	switch {
	case hasWidth && hasHeight:
		if float64(w)/float64(h) > nativeRatio {
			return fromHeight(h)
		}
		return fromWidth(w)
	case hasWidth:
		return fromWidth(w)
	case hasHeight:
		s := fromHeight(h)
		if s.Width > MaxWidth {
			return fromWidth(MaxWidth)
		}
		return s
	default:
		return NativeSize
	}
}

func fromWidth(w int) Size {
	return Size{Width: w, Height: atLeastOne(math.Round(float64(w) / nativeRatio))}
}

func fromHeight(h int) Size {
	return Size{Width: atLeastOne(math.Round(float64(h) * nativeRatio)), Height: h}
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
