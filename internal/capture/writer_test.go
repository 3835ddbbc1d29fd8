package capture

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"io/fs"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/fsutil"
	"github.com/banshee-data/beam.report/internal/histogram"
	"github.com/banshee-data/beam.report/internal/timeutil"
)

func TestEncodePNG8Bit(t *testing.T) {
	f := camera.Frame{Width: 2, Height: 2, BitDepth: 8, Pix: []uint16{0, 100, 200, 255}}

	data, err := EncodeFrame(f, FormatPNG)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded as %T, want *image.Gray", img)
	}
	for i, want := range []uint8{0, 100, 200, 255} {
		if gray.Pix[i] != want {
			t.Errorf("pixel %d = %d, want %d", i, gray.Pix[i], want)
		}
	}
}

func TestEncodePNGDeepFrame(t *testing.T) {
	f := camera.Frame{Width: 2, Height: 2, BitDepth: 12, Pix: []uint16{0, 1000, 4000, 4095}}

	data, err := EncodeFrame(f, FormatPNG)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("decoded as %T, want *image.Gray16", img)
	}
	// 12-bit samples are shifted by 4 into the 16-bit container
	for i, want := range []uint16{0, 16000, 64000, 65520} {
		got := uint16(gray.Pix[2*i])<<8 | uint16(gray.Pix[2*i+1])
		if got != want {
			t.Errorf("pixel %d = %d, want %d", i, got, want)
		}
	}
}

// A deep frame read back from disk carries the storage bit depth, so its
// samples must sit in the same relative part of the intensity domain as
// the original sensor counts.
func TestDeepFrameRoundTripKeepsRelativeIntensity(t *testing.T) {
	f := camera.Frame{Width: 1, Height: 1, BitDepth: 12, Pix: []uint16{4095}}

	data, err := EncodeFrame(f, FormatPNG)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	mem := fsutil.NewMemoryFileSystem()
	if err := mem.WriteFile("deep.png", data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFrame(mem, "deep.png")
	if err != nil {
		t.Fatalf("LoadFrame: %v", err)
	}
	if loaded.BitDepth != 16 {
		t.Fatalf("loaded bit depth = %d, want 16", loaded.BitDepth)
	}
	if loaded.Pix[0] != 65520 {
		t.Errorf("loaded sample = %d, want 65520", loaded.Pix[0])
	}

	// the max-intensity sample lands in the top bin both before and after
	before, err := histogram.Build(f, 16)
	if err != nil {
		t.Fatalf("Build(original): %v", err)
	}
	after, err := histogram.Build(loaded, 16)
	if err != nil {
		t.Fatalf("Build(loaded): %v", err)
	}
	bi, _ := before.Peak()
	ai, _ := after.Peak()
	if bi != 15 || ai != 15 {
		t.Errorf("peak bin = %d before, %d after, want 15 for both", bi, ai)
	}
}

func TestEncodeFITSStructure(t *testing.T) {
	f := camera.Frame{
		Width: 4, Height: 2, BitDepth: 12,
		Pix:       []uint16{0, 1, 2, 3, 4, 5, 6, 7},
		Timestamp: time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
	}

	data, err := EncodeFrame(f, FormatFITS)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("SIMPLE")) {
		t.Errorf("output does not start with SIMPLE: %q", data[:16])
	}
	if len(data)%2880 != 0 {
		t.Errorf("length %d is not a whole number of FITS blocks", len(data))
	}
	for _, card := range []string{"BZERO", "BSCALE", "BITDEPTH", "DATE-OBS"} {
		if !bytes.Contains(data, []byte(card)) {
			t.Errorf("header missing %s card", card)
		}
	}
}

func TestEncodeFrameRejectsInvalid(t *testing.T) {
	f := camera.Frame{Width: 2, Height: 2, BitDepth: 8, Pix: []uint16{1}}
	if _, err := EncodeFrame(f, FormatPNG); err == nil {
		t.Error("short pixel buffer should be rejected")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPNG, false},
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{".png", FormatPNG, false},
		{"fits", FormatFITS, false},
		{".fit", FormatFITS, false},
		{"FITS", FormatFITS, false},
		{"bmp", FormatPNG, true},
		{".jpeg", FormatPNG, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, camera.ErrInvalidParameter) {
				t.Errorf("ParseFormat(%q) err = %v, want invalid parameter", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func newWriterService(mem *fsutil.MemoryFileSystem) *Service {
	svc := NewService(nil, mem, timeutil.RealClock{})
	svc.rng = rand.New(rand.NewSource(7))
	return svc
}

func TestWriteAtomicPublishes(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	svc := newWriterService(mem)

	final := filepath.Join("out", "frame.png")
	if err := svc.writeAtomic(final, []byte("payload")); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	entries, err := mem.ReadDir("out")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "frame.png" {
		t.Errorf("directory = %v, want only frame.png", entries)
	}

	r, err := mem.Open(final)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "payload" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteAtomicRefusesExisting(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	svc := newWriterService(mem)

	final := filepath.Join("out", "frame.png")
	if err := mem.WriteFile(final, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := svc.writeAtomic(final, []byte("intruder"))
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("err = %v, want fs.ErrExist", err)
	}

	// the temp file was cleaned up and the original kept
	entries, _ := mem.ReadDir("out")
	if len(entries) != 1 {
		t.Errorf("directory = %v, want only the original", entries)
	}
	r, _ := mem.Open(final)
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "original" {
		t.Errorf("content = %q, want original", got)
	}
}
