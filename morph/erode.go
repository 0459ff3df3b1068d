// Package morph implements the CPU reference versions of the image kernels:
// morphological erosion with an arbitrary binary structuring element and
// border expansion (copyMakeBorder). Both are data-parallel over output
// rows and produce results identical to the GPU engines in package gpu.
package morph

import (
	"math"

	"github.com/chewxy/math32"

	cv "github.com/1C4nfaN/ppl.cv"
)

// maxOf returns the maximum representable value of T, the identity element
// of the windowed minimum.
func maxOf[T cv.Pixel]() T {
	var v T
	switch p := any(&v).(type) {
	case *uint8:
		*p = math.MaxUint8
	case *float32:
		*p = math32.MaxFloat32
	}
	return v
}

// Erode writes to every pixel of dst the per-channel minimum of src over
// the structuring-element footprint anchored at that pixel. Out-of-bounds
// taps resolve through the border policy; for cv.BorderConstant they
// contribute borderValue.
//
// dims describes src. dst has the same logical extent with row stride
// dstStride and must not overlap src. On error dst is untouched.
func Erode[T cv.Pixel](dst []T, dstStride int, src []T, dims cv.Dims, se cv.StructuringElement, border cv.BorderType, borderValue T) error {
	dstDims := dims
	dstDims.Stride = dstStride
	if err := cv.CheckShapes(dst, dstDims, src, dims, border); err != nil {
		return err
	}
	if err := se.Validate(); err != nil {
		return err
	}
	ax, ay := se.Anchor()
	kx0, ky0 := -ax, -ay
	ch := dims.Channels
	return parallelRows(dims.Height, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			dstRow := dst[y*dstStride:]
			for x := 0; x < dims.Width; x++ {
				for c := 0; c < ch; c++ {
					acc := maxOf[T]()
					for dy := 0; dy < se.Height; dy++ {
						sy := cv.BorderInterpolate(y+ky0+dy, dims.Height, border)
						for dx := 0; dx < se.Width; dx++ {
							if !se.On(dx, dy) {
								continue
							}
							v := borderValue
							if sy != cv.UseConstant {
								sx := cv.BorderInterpolate(x+kx0+dx, dims.Width, border)
								if sx != cv.UseConstant {
									v = src[sy*dims.Stride+sx*ch+c]
								}
							}
							if v < acc {
								acc = v
							}
						}
					}
					dstRow[x*ch+c] = acc
				}
			}
		}
		return nil
	})
}
