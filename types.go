// Package cv provides image processing kernels operating on strided 2D
// pixel buffers, with a WebGPU compute backend in package gpu and a
// data-parallel CPU reference backend in package morph.
//
// Buffers are caller-owned flat slices addressed as
// row*Stride + col*Channels + channel. Stride is measured in elements and
// may exceed Width*Channels to allow padded or aligned row storage.
package cv

import (
	"errors"
	"fmt"
)

// Pixel is the set of supported pixel component types.
type Pixel interface {
	uint8 | float32
}

// Error taxonomy shared by every entry point. Validation failures are
// detected synchronously and returned before any work is enqueued;
// execution failures surface from the device at the synchronization point.
var (
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrUnsupportedConfiguration = errors.New("unsupported pixel type or channel count")
	ErrDeviceFailure            = errors.New("device failure")
)

// Dims describes the in-memory structure of an image buffer.
// Row spacing must be homogenous in the entire image, separated by Stride elements.
type Dims struct {
	Width    int
	Height   int
	Channels int
	// Stride is the number of elements between the start of consecutive
	// rows. It is width*channels for densely packed data and may be larger
	// for pitch-allocated data.
	Stride int
}

// Validate reports whether the dimensions describe a well-formed buffer
// with a supported channel count.
func (d Dims) Validate() error {
	if d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrInvalidArgument, d.Width, d.Height)
	}
	switch d.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedConfiguration, d.Channels)
	}
	if d.Stride < d.Width*d.Channels {
		return fmt.Errorf("%w: stride %d smaller than row size %d", ErrInvalidArgument, d.Stride, d.Width*d.Channels)
	}
	return nil
}

func (d Dims) NumPixels() int64 {
	return int64(d.Height) * int64(d.Width)
}

// SizeRow returns the number of elements in one logical row.
func (d Dims) SizeRow() int {
	return d.Width * d.Channels
}

// NumElements returns the readable section size of the buffer in elements.
func (d Dims) NumElements() int {
	if d.Height == 0 || d.Width == 0 {
		return 0
	}
	return (d.Height-1)*d.Stride + d.SizeRow()
}

// CheckBuffer verifies that a slice of n elements can back an image with
// these dimensions.
func (d Dims) CheckBuffer(n int) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if n < d.NumElements() {
		return fmt.Errorf("%w: buffer of %d elements smaller than image size %d", ErrInvalidArgument, n, d.NumElements())
	}
	return nil
}

// CheckShapes performs the argument validation shared by every engine entry
// point: well-formed source and destination descriptors backed by large
// enough buffers, matching channel counts and a known border policy.
func CheckShapes[T Pixel](dst []T, dstDims Dims, src []T, srcDims Dims, border BorderType) error {
	if err := srcDims.CheckBuffer(len(src)); err != nil {
		return err
	}
	if dstDims.Channels != srcDims.Channels {
		return fmt.Errorf("%w: destination has %d channels, source %d", ErrInvalidArgument, dstDims.Channels, srcDims.Channels)
	}
	if err := dstDims.CheckBuffer(len(dst)); err != nil {
		return err
	}
	if !border.Valid() {
		return fmt.Errorf("%w: border type %d", ErrInvalidArgument, border)
	}
	return nil
}
