package cv

import (
	"fmt"

	"github.com/soypat/geometry/ms2"
)

// MorphShape selects the footprint of a generated structuring element.
type MorphShape int

const (
	// MorphRect is a full rectangular footprint, every position on.
	MorphRect MorphShape = iota
	// MorphCross keeps only the anchor row and anchor column on.
	MorphCross
	// MorphEllipse keeps positions inside the ellipse inscribed in the
	// rectangle on.
	MorphEllipse
)

func (m MorphShape) String() string {
	switch m {
	case MorphRect:
		return "rect"
	case MorphCross:
		return "cross"
	case MorphEllipse:
		return "ellipse"
	}
	return "unknown"
}

// StructuringElement is a binary mask defining which neighbor offsets
// participate in a morphological operation. The mask is stored row-major,
// one byte per position, zero meaning "off". A nil mask means every
// position is on.
//
// The element is anchored at its geometric center; for even dimensions the
// anchor rounds toward the lower-indexed half.
type StructuringElement struct {
	Width  int
	Height int
	Mask   []uint8
}

// NewStructuringElement builds a Width x Height element of the given shape.
// MorphRect elements carry a nil mask.
func NewStructuringElement(shape MorphShape, width, height int) (StructuringElement, error) {
	se := StructuringElement{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return se, fmt.Errorf("%w: structuring element %dx%d", ErrInvalidArgument, width, height)
	}
	if shape == MorphRect {
		return se, nil
	}
	ax, ay := se.Anchor()
	// Semi-axes of the inscribed ellipse. A 1-wide axis degenerates to
	// zero; divide by 1 instead so the offset (always zero there) survives.
	semi := ms2.Vec{X: float32(width-1) / 2, Y: float32(height-1) / 2}
	if semi.X == 0 {
		semi.X = 1
	}
	if semi.Y == 0 {
		semi.Y = 1
	}
	se.Mask = make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var on bool
			switch shape {
			case MorphCross:
				on = x == ax || y == ay
			case MorphEllipse:
				d := ms2.DivElem(ms2.Vec{X: float32(x - ax), Y: float32(y - ay)}, semi)
				on = ms2.Dot(d, d) <= 1
			default:
				return se, fmt.Errorf("%w: morph shape %d", ErrInvalidArgument, shape)
			}
			if on {
				se.Mask[y*width+x] = 1
			}
		}
	}
	return se, nil
}

// Anchor returns the element position aligned with the pixel being computed.
func (se StructuringElement) Anchor() (x, y int) {
	return se.Width / 2, se.Height / 2
}

// On reports whether position (x, y) of the element participates.
func (se StructuringElement) On(x, y int) bool {
	return se.Mask == nil || se.Mask[y*se.Width+x] != 0
}

// NumOn returns the number of participating positions.
func (se StructuringElement) NumOn() int {
	if se.Mask == nil {
		return se.Width * se.Height
	}
	n := 0
	for _, v := range se.Mask {
		if v != 0 {
			n++
		}
	}
	return n
}

func (se StructuringElement) Validate() error {
	if se.Width <= 0 || se.Height <= 0 {
		return fmt.Errorf("%w: structuring element %dx%d", ErrInvalidArgument, se.Width, se.Height)
	}
	if se.Mask != nil && len(se.Mask) != se.Width*se.Height {
		return fmt.Errorf("%w: mask of %d bytes for %dx%d element", ErrInvalidArgument, len(se.Mask), se.Width, se.Height)
	}
	return nil
}
