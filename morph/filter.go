package morph

import (
	cv "github.com/1C4nfaN/ppl.cv"
)

// Eroder is a reusable erosion configuration. Parameters may be adjusted
// between applications through the Controls surface.
type Eroder[T cv.Pixel] struct {
	se     cv.StructuringElement
	border cv.BorderType
	value  T
	ctrls  []cv.Control
}

func NewEroder[T cv.Pixel](se cv.StructuringElement, border cv.BorderType, borderValue T) *Eroder[T] {
	e := &Eroder[T]{se: se, border: border, value: borderValue}
	e.ctrls = []cv.Control{
		&cv.ControlEnum[cv.BorderType]{
			Name:        "Border policy",
			Description: "How coordinates outside the image are resolved",
			Value:       border,
			ValidValues: []cv.BorderType{
				cv.BorderConstant, cv.BorderReplicate, cv.BorderReflect,
				cv.BorderWrap, cv.BorderReflect101,
			},
			OnChange: func(b cv.BorderType) error {
				e.border = b
				return nil
			},
		},
		&cv.ControlOrdered[T]{
			Name:        "Border value",
			Description: "Fill value for the constant border policy",
			Value:       borderValue,
			Min:         0,
			Max:         maxOf[T](),
			Step:        1,
			OnChange: func(v T) error {
				e.value = v
				return nil
			},
		},
	}
	return e
}

// Controls returns the adjustable parameters of the filter.
func (e *Eroder[T]) Controls() []cv.Control { return e.ctrls }

// Apply erodes src into dst with the current configuration.
func (e *Eroder[T]) Apply(dst []T, dstStride int, src []T, dims cv.Dims) error {
	return Erode(dst, dstStride, src, dims, e.se, e.border, e.value)
}
