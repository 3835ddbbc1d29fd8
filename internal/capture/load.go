package capture

import (
	"fmt"
	"image/png"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/fsutil"
)

// LoadFrame reads a previously captured PNG back into a frame so analysis
// can run without a connected camera. The timestamp is zero; PNG carries
// none. FITS captures are written for external tooling and are not read
// back here.
func LoadFrame(fsys fsutil.FileSystem, path string) (camera.Frame, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return camera.Frame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return camera.Frame{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return camera.FrameFromImage(img)
}
