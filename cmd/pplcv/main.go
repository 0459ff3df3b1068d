// Command pplcv runs the image kernels on PNG files, using the GPU backend
// when a WebGPU device is available and the CPU backend otherwise.
package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cv "github.com/1C4nfaN/ppl.cv"
	"github.com/1C4nfaN/ppl.cv/gpu"
	"github.com/1C4nfaN/ppl.cv/morph"
)

var (
	flagOut    string
	flagBorder string
	flagValue  uint8
	flagCPU    bool

	flagKSize int
	flagShape string

	flagTop, flagBottom, flagLeft, flagRight int
)

var rootCmd = &cobra.Command{
	Use:   "pplcv",
	Short: "Run GPU image kernels on PNG files",
	Long: `pplcv applies morphological erosion or border expansion to a PNG image.

The kernels run on the first available WebGPU device; pass --cpu to force
the data-parallel CPU backend.`,
	SilenceUsage: true,
}

var erodeCmd = &cobra.Command{
	Use:   "erode <input.png>",
	Short: "Erode an image with a structuring element",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, dims, err := loadPNG(args[0])
		if err != nil {
			return err
		}
		shape, err := parseShape(flagShape)
		if err != nil {
			return err
		}
		se, err := cv.NewStructuringElement(shape, flagKSize, flagKSize)
		if err != nil {
			return err
		}
		border, err := parseBorder(flagBorder)
		if err != nil {
			return err
		}
		out := make([]uint8, len(img.Pix))
		run := func(s *gpu.Stream) error {
			return gpu.Erode(s, out, dims.Stride, img.Pix, dims, se, border, flagValue)
		}
		cpu := func() error {
			return morph.NewEroder(se, border, flagValue).Apply(out, dims.Stride, img.Pix, dims)
		}
		if err := execute(run, cpu); err != nil {
			return err
		}
		return savePNG(flagOut, out, dims)
	},
}

var makeBorderCmd = &cobra.Command{
	Use:   "make-border <input.png>",
	Short: "Expand an image with a filled border",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, dims, err := loadPNG(args[0])
		if err != nil {
			return err
		}
		border, err := parseBorder(flagBorder)
		if err != nil {
			return err
		}
		outDims := cv.Dims{
			Width:    dims.Width + flagLeft + flagRight,
			Height:   dims.Height + flagTop + flagBottom,
			Channels: dims.Channels,
		}
		outDims.Stride = outDims.Width * outDims.Channels
		out := make([]uint8, outDims.NumElements())
		run := func(s *gpu.Stream) error {
			return gpu.CopyMakeBorder(s, out, outDims.Stride, img.Pix, dims,
				flagTop, flagBottom, flagLeft, flagRight, border, flagValue)
		}
		cpu := func() error {
			return morph.CopyMakeBorder(out, outDims.Stride, img.Pix, dims,
				flagTop, flagBottom, flagLeft, flagRight, border, flagValue)
		}
		if err := execute(run, cpu); err != nil {
			return err
		}
		return savePNG(flagOut, out, outDims)
	},
}

// execute runs the GPU path and falls back to the CPU path when no device
// can be acquired.
func execute(run func(*gpu.Stream) error, cpu func() error) error {
	if !flagCPU {
		s, err := gpu.Open()
		if err == nil {
			defer s.Close()
			if err = run(s); err != nil {
				return err
			}
			return s.Synchronize()
		}
		log.Warnf("no gpu device, falling back to cpu: %v", err)
	}
	return cpu()
}

func loadPNG(path string) (*image.NRGBA, cv.Dims, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cv.Dims{}, err
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		return nil, cv.Dims{}, fmt.Errorf("decode %s: %w", path, err)
	}
	b := decoded.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x-b.Min.X, y-b.Min.Y, decoded.At(x, y))
		}
	}
	dims := cv.Dims{Width: b.Dx(), Height: b.Dy(), Channels: 4, Stride: img.Stride}
	return img, dims, nil
}

func savePNG(path string, pix []uint8, dims cv.Dims) error {
	img := &image.NRGBA{
		Pix:    pix,
		Stride: dims.Stride,
		Rect:   image.Rect(0, 0, dims.Width, dims.Height),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.Infof("wrote %s (%dx%d)", path, dims.Width, dims.Height)
	return nil
}

func parseBorder(s string) (cv.BorderType, error) {
	for _, b := range []cv.BorderType{
		cv.BorderConstant, cv.BorderReplicate, cv.BorderReflect,
		cv.BorderWrap, cv.BorderReflect101,
	} {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown border type %q", s)
}

func parseShape(s string) (cv.MorphShape, error) {
	for _, m := range []cv.MorphShape{cv.MorphRect, cv.MorphCross, cv.MorphEllipse} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown structuring element shape %q", s)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "out.png", "output PNG path")
	rootCmd.PersistentFlags().StringVar(&flagBorder, "border", cv.BorderReplicate.String(), "border policy: constant|replicate|reflect|wrap|reflect101")
	rootCmd.PersistentFlags().Uint8Var(&flagValue, "value", 0, "fill value for the constant border policy")
	rootCmd.PersistentFlags().BoolVar(&flagCPU, "cpu", false, "force the CPU backend")

	erodeCmd.Flags().IntVar(&flagKSize, "ksize", 3, "structuring element size")
	erodeCmd.Flags().StringVar(&flagShape, "shape", cv.MorphRect.String(), "structuring element shape: rect|cross|ellipse")

	makeBorderCmd.Flags().IntVar(&flagTop, "top", 16, "top margin in pixels")
	makeBorderCmd.Flags().IntVar(&flagBottom, "bottom", 16, "bottom margin in pixels")
	makeBorderCmd.Flags().IntVar(&flagLeft, "left", 16, "left margin in pixels")
	makeBorderCmd.Flags().IntVar(&flagRight, "right", 16, "right margin in pixels")

	rootCmd.AddCommand(erodeCmd, makeBorderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
