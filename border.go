package cv

import "golang.org/x/exp/constraints"

// BorderType selects how coordinates outside the image are resolved when a
// kernel footprint straddles the edge or an output pixel lies in an
// expanded margin.
type BorderType int

const (
	// BorderConstant fills out-of-range samples with a fixed value.
	BorderConstant BorderType = iota
	// BorderReplicate clamps to the nearest edge pixel: aaa|abcdefgh|hhh.
	BorderReplicate
	// BorderReflect mirrors including the edge pixel: cba|abcdefgh|hgf.
	BorderReflect
	// BorderWrap wraps around periodically: fgh|abcdefgh|abc.
	BorderWrap
	// BorderReflect101 mirrors excluding the edge pixel: dcb|abcdefgh|gfe.
	BorderReflect101

	BorderDefault = BorderReflect101
)

func (b BorderType) String() string {
	switch b {
	case BorderConstant:
		return "constant"
	case BorderReplicate:
		return "replicate"
	case BorderReflect:
		return "reflect"
	case BorderWrap:
		return "wrap"
	case BorderReflect101:
		return "reflect101"
	}
	return "unknown"
}

// Valid reports whether b is one of the supported border policies.
func (b BorderType) Valid() bool {
	return b >= BorderConstant && b <= BorderReflect101
}

// UseConstant is returned by BorderInterpolate when the coordinate resolves
// to the constant fill value rather than a source sample.
const UseConstant = -1

// BorderInterpolate maps a possibly out-of-range coordinate pos to a valid
// index in [0, length) according to the border policy, or UseConstant for
// BorderConstant when pos falls outside the image.
//
// The mapping is applied independently per axis; a 2D tap is in bounds only
// if both axes resolve to valid indices.
func BorderInterpolate(pos, length int, border BorderType) int {
	if pos >= 0 && pos < length {
		return pos
	}
	switch border {
	case BorderReplicate:
		return clamp(pos, 0, length-1)
	case BorderReflect, BorderReflect101:
		if length == 1 {
			return 0
		}
		// Reflect101 excludes the boundary sample from the fold, shifting
		// the mirror axis one pixel inward.
		delta := 0
		if border == BorderReflect101 {
			delta = 1
		}
		for pos < 0 || pos >= length {
			if pos < 0 {
				pos = -pos - 1 + delta
			} else {
				pos = 2*length - 1 - delta - pos
			}
		}
		return pos
	case BorderWrap:
		pos %= length
		if pos < 0 {
			pos += length
		}
		return pos
	}
	return UseConstant
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
