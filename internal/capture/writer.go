package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/astrogo/fitsio"

	"github.com/banshee-data/beam.report/internal/camera"
)

// Format selects the on-disk image encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatFITS
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatFITS:
		return "fits"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension for the format, dot included.
func (f Format) Ext() string {
	switch f {
	case FormatFITS:
		return ".fits"
	}
	return ".png"
}

// ParseFormat maps a format name or file extension to a Format. The empty
// string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "fits", "fit":
		return FormatFITS, nil
	}
	return FormatPNG, &camera.ParamError{Field: "format", Reason: fmt.Sprintf("unsupported image format %q (png and fits are available)", s)}
}

// EncodeFrame renders a frame for storage. PNG output uses 8-bit grayscale
// for frames up to 8 bits and 16-bit grayscale for deeper frames, with
// samples left-shifted to the storage depth so a decode at that depth
// keeps the relative intensities.
func EncodeFrame(f camera.Frame, format Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case FormatPNG:
		return encodePNG(f)
	case FormatFITS:
		return encodeFITS(f)
	}
	return nil, fmt.Errorf("unknown format %v", format)
}

func encodePNG(f camera.Frame) ([]byte, error) {
	rect := image.Rect(0, 0, f.Width, f.Height)

	var img image.Image
	if f.BitDepth <= 8 {
		shift := uint(8 - f.BitDepth)
		g := image.NewGray(rect)
		for i, v := range f.Pix {
			g.Pix[i] = uint8(v << shift)
		}
		img = g
	} else {
		shift := uint(16 - f.BitDepth)
		g := image.NewGray16(rect)
		for i, v := range f.Pix {
			s := v << shift
			g.Pix[2*i] = uint8(s >> 8)
			g.Pix[2*i+1] = uint8(s)
		}
		img = g
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeFITS writes a 16-bit FITS image. Samples are stored as signed ints
// offset by 32768, the convention readers undo via the BZERO card.
func encodeFITS(f camera.Frame) ([]byte, error) {
	var buf bytes.Buffer
	fits, err := fitsio.Create(&buf)
	if err != nil {
		return nil, fmt.Errorf("create fits: %w", err)
	}

	im := fitsio.NewImage(16, []int{f.Width, f.Height})

	cards := []fitsio.Card{
		{Name: "BZERO", Value: 32768},
		{Name: "BSCALE", Value: 1.0},
		{Name: "BITDEPTH", Value: f.BitDepth, Comment: "significant bits per sample"},
	}
	if !f.Timestamp.IsZero() {
		cards = append(cards, fitsio.Card{Name: "DATE-OBS", Value: f.Timestamp.UTC().Format(time.RFC3339), Comment: "capture time UTC"})
	}
	if err := im.Header().Append(cards...); err != nil {
		im.Close()
		fits.Close()
		return nil, fmt.Errorf("fits header: %w", err)
	}

	ints := make([]int16, len(f.Pix))
	for i, v := range f.Pix {
		ints[i] = int16(v - 32768)
	}
	if err := im.Write(ints); err != nil {
		im.Close()
		fits.Close()
		return nil, fmt.Errorf("fits data: %w", err)
	}
	if err := fits.Write(im); err != nil {
		im.Close()
		fits.Close()
		return nil, fmt.Errorf("write fits hdu: %w", err)
	}

	if err := im.Close(); err != nil {
		fits.Close()
		return nil, err
	}
	if err := fits.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic publishes data under the final name without ever exposing a
// partial file: the bytes are staged in a hidden sibling and linked into
// place, so the final name appears fully written or not at all. Link fails
// with fs.ErrExist when the name is taken.
func (s *Service) writeAtomic(final string, data []byte) error {
	dir := filepath.Dir(final)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%08x.tmp", filepath.Base(final), s.rng.Uint32()))

	w, err := s.FS.CreateExclusive(tmp)
	if err != nil {
		return fmt.Errorf("stage %s: %w", tmp, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		s.FS.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := w.Close(); err != nil {
		s.FS.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := s.FS.Link(tmp, final); err != nil {
		s.FS.Remove(tmp)
		return err
	}
	return s.FS.Remove(tmp)
}
