package morph

import (
	"fmt"

	cv "github.com/1C4nfaN/ppl.cv"
)

// CopyMakeBorder forms a border around src. The interior sub-rectangle
// [top, top+height) x [left, left+width) of dst is an exact copy of src;
// the margin is filled according to the border policy, with the coordinate
// fold applied independently per axis. Corners compose both 1D folds.
//
// dims describes src. dst has logical extent
// (height+top+bottom) x (width+left+right) with row stride dstStride.
func CopyMakeBorder[T cv.Pixel](dst []T, dstStride int, src []T, dims cv.Dims, top, bottom, left, right int, border cv.BorderType, borderValue T) error {
	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return fmt.Errorf("%w: negative margin %d,%d,%d,%d", cv.ErrInvalidArgument, top, bottom, left, right)
	}
	outDims := cv.Dims{
		Width:    dims.Width + left + right,
		Height:   dims.Height + top + bottom,
		Channels: dims.Channels,
		Stride:   dstStride,
	}
	if err := cv.CheckShapes(dst, outDims, src, dims, border); err != nil {
		return err
	}
	ch := dims.Channels
	return parallelRows(outDims.Height, func(y0, y1 int) error {
		for oy := y0; oy < y1; oy++ {
			sy := cv.BorderInterpolate(oy-top, dims.Height, border)
			dstRow := dst[oy*dstStride:]
			for ox := 0; ox < outDims.Width; ox++ {
				sx := cv.UseConstant
				if sy != cv.UseConstant {
					sx = cv.BorderInterpolate(ox-left, dims.Width, border)
				}
				if sx == cv.UseConstant {
					for c := 0; c < ch; c++ {
						dstRow[ox*ch+c] = borderValue
					}
					continue
				}
				si := sy*dims.Stride + sx*ch
				copy(dstRow[ox*ch:ox*ch+ch], src[si:si+ch])
			}
		}
		return nil
	})
}
