package gpu

import (
	_ "embed"

	cv "github.com/1C4nfaN/ppl.cv"
)

//go:embed border_index.wgsl
var borderIndexWGSL string

//go:embed erode_u8.wgsl
var erodeU8WGSL string

//go:embed erode_f32.wgsl
var erodeF32WGSL string

// Erode enqueues a GPU erosion of src into dst and returns without waiting
// for completion; dst holds the result only after a subsequent
// Stream.Synchronize returns nil. Semantics match [morph.Erode]: every
// output element is the per-channel minimum of src over the
// structuring-element footprint under the border policy.
//
// dims describes src. dst has the same logical extent with row stride
// dstStride and must not overlap src.
func Erode[T cv.Pixel](s *Stream, dst []T, dstStride int, src []T, dims cv.Dims, se cv.StructuringElement, border cv.BorderType, borderValue T) error {
	dstDims := dims
	dstDims.Stride = dstStride
	if err := cv.CheckShapes(dst, dstDims, src, dims, border); err != nil {
		return err
	}
	if err := se.Validate(); err != nil {
		return err
	}
	kind := scalarOf[T]()
	pipe, err := s.pipeline(opErode, kind)
	if err != nil {
		return err
	}

	outLen := dstDims.NumElements()
	d := dispatch{
		pipe: pipe,
		uniforms: []uint32{
			uint32(dims.Height), uint32(dims.Width), uint32(dims.Channels),
			uint32(dims.Stride), uint32(dstStride),
			uint32(se.Width), uint32(se.Height),
			uint32(border), valueBits(borderValue),
			uint32(outLen), 0, 0,
		},
		input:   uploadBytes(src, dims.NumElements()),
		mask:    maskWords(se),
		outSize: outputSize[T](outLen),
		copyOut: copyRows(dst, dstDims),
	}
	if kind == scalarU8 {
		// One invocation per packed output word of 4 bytes.
		words := uint32((outLen + 3) / 4)
		d.groupsX, d.groupsY, d.groupsZ = (words+63)/64, 1, 1
	} else {
		d.groupsX = uint32((dims.Width + 7) / 8)
		d.groupsY = uint32((dims.Height + 7) / 8)
		d.groupsZ = 1
	}
	return s.enqueue(d)
}
