package gpu

import (
	"math/rand"
	"testing"

	cv "github.com/1C4nfaN/ppl.cv"
	"github.com/1C4nfaN/ppl.cv/morph"
)

// openStream acquires a Stream for testing, skipping when no WebGPU
// adapter is available on the host.
func openStream(t *testing.T) *Stream {
	t.Helper()
	s, err := Open()
	if err != nil {
		t.Skipf("no gpu device: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func randomU8(rng *rand.Rand, n int) []uint8 {
	pix := make([]uint8, n)
	for i := range pix {
		pix[i] = uint8(rng.Intn(256))
	}
	return pix
}

func randomF32(rng *rand.Rand, n int) []float32 {
	pix := make([]float32, n)
	for i := range pix {
		pix[i] = rng.Float32() * 100
	}
	return pix
}

var allBorders = []cv.BorderType{
	cv.BorderConstant, cv.BorderReplicate, cv.BorderReflect,
	cv.BorderWrap, cv.BorderReflect101,
}

func TestErodeMatchesCPUUint8(t *testing.T) {
	s := openStream(t)
	rng := rand.New(rand.NewSource(21))

	// Stride deliberately not word aligned to exercise the packed path.
	dims := cv.Dims{Width: 13, Height: 9, Channels: 3, Stride: 41}
	src := randomU8(rng, dims.NumElements())
	se, err := cv.NewStructuringElement(cv.MorphEllipse, 5, 3)
	if err != nil {
		t.Fatalf("structuring element: %v", err)
	}

	for _, border := range allBorders {
		got := make([]uint8, dims.NumElements())
		want := make([]uint8, dims.NumElements())
		if err := Erode(s, got, dims.Stride, src, dims, se, border, 33); err != nil {
			t.Fatalf("Erode(%v): %v", border, err)
		}
		if err := s.Synchronize(); err != nil {
			t.Fatalf("Synchronize(%v): %v", border, err)
		}
		if err := morph.Erode(want, dims.Stride, src, dims, se, border, 33); err != nil {
			t.Fatalf("cpu erode: %v", err)
		}
		assertRowsEqualU8(t, want, got, dims, border.String())
	}
}

func TestErodeMatchesCPUFloat32(t *testing.T) {
	s := openStream(t)
	rng := rand.New(rand.NewSource(22))

	dims := cv.Dims{Width: 17, Height: 11, Channels: 1, Stride: 19}
	src := randomF32(rng, dims.NumElements())
	se, err := cv.NewStructuringElement(cv.MorphCross, 3, 3)
	if err != nil {
		t.Fatalf("structuring element: %v", err)
	}

	got := make([]float32, dims.NumElements())
	want := make([]float32, dims.NumElements())
	if err := Erode(s, got, dims.Stride, src, dims, se, cv.BorderReflect101, 0); err != nil {
		t.Fatalf("Erode: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if err := morph.Erode(want, dims.Stride, src, dims, se, cv.BorderReflect101, 0); err != nil {
		t.Fatalf("cpu erode: %v", err)
	}
	for y := 0; y < dims.Height; y++ {
		for i := 0; i < dims.SizeRow(); i++ {
			off := y*dims.Stride + i
			// The windowed minimum selects an input verbatim; exact
			// comparison is valid even for floats.
			if got[off] != want[off] {
				t.Fatalf("row %d elem %d: got %v, want %v", y, i, got[off], want[off])
			}
		}
	}
}

func TestCopyMakeBorderMatchesCPU(t *testing.T) {
	s := openStream(t)
	rng := rand.New(rand.NewSource(23))

	dims := cv.Dims{Width: 6, Height: 5, Channels: 4, Stride: 26}
	src := randomU8(rng, dims.NumElements())
	const top, bottom, left, right = 3, 2, 1, 4

	outDims := cv.Dims{
		Width:    dims.Width + left + right,
		Height:   dims.Height + top + bottom,
		Channels: dims.Channels,
	}
	outDims.Stride = outDims.Width*outDims.Channels + 3

	for _, border := range allBorders {
		got := make([]uint8, outDims.NumElements())
		want := make([]uint8, outDims.NumElements())
		if err := CopyMakeBorder(s, got, outDims.Stride, src, dims, top, bottom, left, right, border, 128); err != nil {
			t.Fatalf("CopyMakeBorder(%v): %v", border, err)
		}
		if err := s.Synchronize(); err != nil {
			t.Fatalf("Synchronize(%v): %v", border, err)
		}
		if err := morph.CopyMakeBorder(want, outDims.Stride, src, dims, top, bottom, left, right, border, 128); err != nil {
			t.Fatalf("cpu copyMakeBorder: %v", err)
		}
		assertRowsEqualU8(t, want, got, outDims, border.String())
	}
}

func TestStreamOrdersMultipleOps(t *testing.T) {
	s := openStream(t)
	rng := rand.New(rand.NewSource(24))

	dims := cv.Dims{Width: 8, Height: 8, Channels: 1, Stride: 8}
	src := randomU8(rng, dims.NumElements())
	se := cv.StructuringElement{Width: 3, Height: 3}

	eroded := make([]uint8, dims.NumElements())
	expanded := make([]uint8, 10*10)
	if err := Erode(s, eroded, 8, src, dims, se, cv.BorderReplicate, 0); err != nil {
		t.Fatalf("Erode: %v", err)
	}
	if err := CopyMakeBorder(s, expanded, 10, src, dims, 1, 1, 1, 1, cv.BorderWrap, 0); err != nil {
		t.Fatalf("CopyMakeBorder: %v", err)
	}
	// One synchronization point completes everything enqueued before it.
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}

	wantEroded := make([]uint8, dims.NumElements())
	if err := morph.Erode(wantEroded, 8, src, dims, se, cv.BorderReplicate, 0); err != nil {
		t.Fatalf("cpu erode: %v", err)
	}
	assertRowsEqualU8(t, wantEroded, eroded, dims, "erode")

	wantExpanded := make([]uint8, 10*10)
	if err := morph.CopyMakeBorder(wantExpanded, 10, src, dims, 1, 1, 1, 1, cv.BorderWrap, 0); err != nil {
		t.Fatalf("cpu copyMakeBorder: %v", err)
	}
	outDims := cv.Dims{Width: 10, Height: 10, Channels: 1, Stride: 10}
	assertRowsEqualU8(t, wantExpanded, expanded, outDims, "make-border")

	// Synchronize with nothing pending is a no-op.
	if err := s.Synchronize(); err != nil {
		t.Fatalf("empty Synchronize: %v", err)
	}
}

func TestValidationRunsBeforeEnqueue(t *testing.T) {
	// Argument validation is synchronous and happens before any device
	// interaction, so a nil stream never gets dereferenced.
	dims := cv.Dims{Width: 4, Height: 4, Channels: 1, Stride: 4}
	buf := make([]uint8, 16)
	se := cv.StructuringElement{Width: 3, Height: 3}

	var s *Stream
	if err := Erode(s, buf, 2, buf, dims, se, cv.BorderReplicate, 0); err == nil {
		t.Fatal("expected stride error")
	}
	if err := CopyMakeBorder(s, buf, 4, buf, dims, -1, 0, 0, 0, cv.BorderReplicate, 0); err == nil {
		t.Fatal("expected margin error")
	}
	if err := Erode(s, buf, 4, buf, dims, se, cv.BorderType(99), 0); err == nil {
		t.Fatal("expected border type error")
	}
}

// assertRowsEqualU8 compares the logical rows of two buffers, ignoring
// stride padding.
func assertRowsEqualU8(t *testing.T, want, got []uint8, dims cv.Dims, label string) {
	t.Helper()
	row := dims.SizeRow()
	for y := 0; y < dims.Height; y++ {
		off := y * dims.Stride
		for i := 0; i < row; i++ {
			if want[off+i] != got[off+i] {
				t.Fatalf("%s: row %d elem %d: got %d, want %d", label, y, i, got[off+i], want[off+i])
			}
		}
	}
}
