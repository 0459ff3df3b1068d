package gpu

import (
	_ "embed"
	"fmt"

	cv "github.com/1C4nfaN/ppl.cv"
)

//go:embed border_u8.wgsl
var borderU8WGSL string

//go:embed border_f32.wgsl
var borderF32WGSL string

// CopyMakeBorder enqueues a GPU border expansion of src into dst and
// returns without waiting for completion; dst holds the result only after
// a subsequent Stream.Synchronize returns nil. Semantics match
// [morph.CopyMakeBorder]: the interior of dst is an exact copy of src and
// the top/bottom/left/right margin is filled per the border policy.
func CopyMakeBorder[T cv.Pixel](s *Stream, dst []T, dstStride int, src []T, dims cv.Dims, top, bottom, left, right int, border cv.BorderType, borderValue T) error {
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
	kind := scalarOf[T]()
	pipe, err := s.pipeline(opBorder, kind)
	if err != nil {
		return err
	}

	outLen := outDims.NumElements()
	d := dispatch{
		pipe: pipe,
		uniforms: []uint32{
			uint32(dims.Height), uint32(dims.Width), uint32(dims.Channels),
			uint32(dims.Stride), uint32(dstStride),
			uint32(top), uint32(left),
			uint32(border), valueBits(borderValue),
			uint32(outDims.Height), uint32(outDims.Width), uint32(outLen),
		},
		input:   uploadBytes(src, dims.NumElements()),
		outSize: outputSize[T](outLen),
		copyOut: copyRows(dst, outDims),
	}
	if kind == scalarU8 {
		words := uint32((outLen + 3) / 4)
		d.groupsX, d.groupsY, d.groupsZ = (words+63)/64, 1, 1
	} else {
		d.groupsX = uint32((outDims.Width + 7) / 8)
		d.groupsY = uint32((outDims.Height + 7) / 8)
		d.groupsZ = 1
	}
	return s.enqueue(d)
}
