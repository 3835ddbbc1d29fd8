package camera

import (
	"fmt"
	"image"
	"time"
)

// Frame is one acquired image: intensity samples in row-major order plus the
// geometry needed to interpret them. Frames are immutable once fetched; the
// capture path hands them to analysis and persistence by value.
type Frame struct {
	Width     int
	Height    int
	BitDepth  int
	Pix       []uint16
	Timestamp time.Time
}

// PixelCount returns the number of samples the frame geometry implies.
func (f Frame) PixelCount() int {
	return f.Width * f.Height
}

// Validate checks the frame's internal consistency.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("frame geometry %dx%d is not positive", f.Width, f.Height)
	}
	if f.BitDepth < 1 || f.BitDepth > 16 {
		return fmt.Errorf("bit depth %d outside supported range 1-16", f.BitDepth)
	}
	if len(f.Pix) != f.PixelCount() {
		return fmt.Errorf("pixel buffer holds %d samples, geometry %dx%d needs %d",
			len(f.Pix), f.Width, f.Height, f.PixelCount())
	}
	return nil
}

// FrameFromImage converts a decoded image into a Frame. Grayscale images
// keep their raw sample values (8-bit for Gray, 16-bit for Gray16); any
// other color model is reduced to 16-bit luminance.
func FrameFromImage(img image.Image) (Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return Frame{}, fmt.Errorf("image has empty bounds %v", b)
	}

	f := Frame{Width: w, Height: h, Pix: make([]uint16, w*h)}

	switch src := img.(type) {
	case *image.Gray:
		f.BitDepth = 8
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				f.Pix[y*w+x] = uint16(row[x])
			}
		}
	case *image.Gray16:
		f.BitDepth = 16
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				f.Pix[y*w+x] = uint16(row[2*x])<<8 | uint16(row[2*x+1])
			}
		}
	default:
		f.BitDepth = 16
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				// Rec. 601 luma over the 16-bit channel values.
				lum := (299*uint32(r) + 587*uint32(g) + 114*uint32(bb)) / 1000
				f.Pix[y*w+x] = uint16(lum)
			}
		}
	}

	return f, nil
}
