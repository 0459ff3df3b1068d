package gpu

import (
	"math"
	"strings"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	cv "github.com/1C4nfaN/ppl.cv"
)

// scalarKind tags the pixel component type of a kernel specialization.
type scalarKind int

const (
	scalarU8 scalarKind = iota
	scalarF32
)

func scalarOf[T cv.Pixel]() scalarKind {
	var v T
	if _, ok := any(v).(float32); ok {
		return scalarF32
	}
	return scalarU8
}

// valueBits encodes a border fill value into a 32-bit uniform word:
// IEEE bits for float32, zero-extended for uint8.
func valueBits[T cv.Pixel](v T) uint32 {
	switch x := any(v).(type) {
	case uint8:
		return uint32(x)
	case float32:
		return math.Float32bits(x)
	}
	return 0
}

// uploadBytes returns the raw bytes of the first n elements of data,
// padded to the 4-byte granularity buffer writes require.
func uploadBytes[T cv.Pixel](data []T, n int) []byte {
	b := wgpu.ToBytes(data[:n])
	if len(b)%4 != 0 {
		padded := make([]byte, (len(b)+3)&^3)
		copy(padded, b)
		b = padded
	}
	return b
}

// outputSize returns the byte size of a device buffer holding n elements
// of T, padded to the 4-byte copy granularity.
func outputSize[T cv.Pixel](n int) uint64 {
	var z T
	return uint64((n*int(unsafe.Sizeof(z)) + 3) &^ 3)
}

// typedView reinterprets a mapped staging buffer as elements of T.
func typedView[T cv.Pixel](b []byte) []T {
	var z T
	n := len(b) / int(unsafe.Sizeof(z))
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// copyRows copies the logical rows of a completed output back into the
// caller's slice, leaving stride padding untouched.
func copyRows[T cv.Pixel](dst []T, dims cv.Dims) func(mapped []byte) {
	return func(mapped []byte) {
		view := typedView[T](mapped)
		row := dims.SizeRow()
		for y := 0; y < dims.Height; y++ {
			off := y * dims.Stride
			copy(dst[off:off+row], view[off:off+row])
		}
	}
}

// maskWords expands a structuring element into one word per tap for the
// shader-side mask buffer, resolving the nil all-on convention.
func maskWords(se cv.StructuringElement) []uint32 {
	words := make([]uint32, se.Width*se.Height)
	for y := 0; y < se.Height; y++ {
		for x := 0; x < se.Width; x++ {
			if se.On(x, y) {
				words[y*se.Width+x] = 1
			}
		}
	}
	return words
}

const (
	opErode  = "erode"
	opBorder = "border"
)

// shaderSource assembles the WGSL for one kernel specialization. The
// border fold lives in a single shared snippet spliced into every kernel
// so all backends fold coordinates identically.
func shaderSource(op string, kind scalarKind) string {
	var code string
	switch {
	case op == opErode && kind == scalarU8:
		code = erodeU8WGSL
	case op == opErode && kind == scalarF32:
		code = erodeF32WGSL
	case op == opBorder && kind == scalarU8:
		code = borderU8WGSL
	case op == opBorder && kind == scalarF32:
		code = borderF32WGSL
	}
	return strings.Replace(code, "// BORDER_INDEX_PLACEHOLDER", borderIndexWGSL, 1)
}
