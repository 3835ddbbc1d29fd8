// Package capture drives the acquisition workflow: push settings to the
// camera, take a snapshot, pull the frame data and persist it under a
// collision-free name.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/fsutil"
	"github.com/banshee-data/beam.report/internal/monitoring"
	"github.com/banshee-data/beam.report/internal/rayci"
	"github.com/banshee-data/beam.report/internal/security"
	"github.com/banshee-data/beam.report/internal/timeutil"
)

// DefaultNameAttempts bounds how many random names are tried before giving
// up on a directory.
const DefaultNameAttempts = 10

// ErrNameExhausted is wrapped by NameExhaustedError for errors.Is checks.
var ErrNameExhausted = errors.New("capture name generation exhausted")

// maxListedEntries caps how much of the directory an exhaustion error
// reports.
const maxListedEntries = 20

// NameExhaustedError reports that no unused random name was found within
// the attempt budget. It includes a directory listing so the operator can
// see what the generator kept colliding with.
type NameExhaustedError struct {
	Dir      string
	Attempts int
	Entries  []string
}

func (e *NameExhaustedError) Error() string {
	msg := fmt.Sprintf("no unused capture name in %s after %d attempts", e.Dir, e.Attempts)
	if len(e.Entries) == 0 {
		return msg
	}
	shown := e.Entries
	extra := 0
	if len(shown) > maxListedEntries {
		extra = len(shown) - maxListedEntries
		shown = shown[:maxListedEntries]
	}
	msg += "; directory holds: " + strings.Join(shown, ", ")
	if extra > 0 {
		msg += fmt.Sprintf(" and %d more", extra)
	}
	return msg
}

func (e *NameExhaustedError) Unwrap() error { return ErrNameExhausted }

// Request names where a captured frame should land.
type Request struct {
	// Directory receives the image file. Empty means the current directory.
	Directory string

	// Name is the file name inside Directory. When it carries no extension
	// the format's extension is appended. Empty means a random name is
	// generated.
	Name string

	// RandomName forces random name generation even when Name is set;
	// Name is ignored then.
	RandomName bool

	// Format selects the encoding ("png" or "fits") when Name does not
	// already imply one through its extension. Empty means png.
	Format string
}

// Result is a completed capture.
type Result struct {
	// Path is where the image was written.
	Path string

	// Frame holds the pixel data as pulled from the endpoint.
	Frame camera.Frame

	// Settings is the camera state the frame was taken under.
	Settings camera.Settings
}

// Service runs adjustments and captures against one selected camera.
type Service struct {
	Dev   *rayci.Device
	FS    fsutil.FileSystem
	Clock timeutil.Clock

	// NameAttempts overrides DefaultNameAttempts when positive.
	NameAttempts int

	rng  *rand.Rand
	logf func(format string, v ...interface{})
}

// NewService builds a capture service around a selected device.
func NewService(dev *rayci.Device, filesystem fsutil.FileSystem, clock timeutil.Clock) *Service {
	return &Service{
		Dev:   dev,
		FS:    filesystem,
		Clock: clock,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		logf:  monitoring.Prefixed("capture"),
	}
}

// Adjust merges the requested changes into the camera's reported settings
// and pushes the merged result back. Fields the patch leaves unset keep
// their current values. The merged settings are validated as a whole and
// checked against the device's own ranges before anything is sent; values
// outside a range are rejected, never clamped.
func (s *Service) Adjust(ctx context.Context, patch camera.Patch) (camera.Settings, error) {
	cur, err := s.Dev.Current(ctx)
	if err != nil {
		return camera.Settings{}, err
	}
	if patch.Empty() {
		return cur, nil
	}

	merged, err := patch.Apply(cur).Validate()
	if err != nil {
		return camera.Settings{}, err
	}

	limits, err := s.Dev.Limits(ctx)
	if err != nil {
		return camera.Settings{}, err
	}
	if err := limits.Check(merged); err != nil {
		return camera.Settings{}, err
	}

	if err := s.Dev.Apply(ctx, merged); err != nil {
		return camera.Settings{}, err
	}
	s.logf("applied settings: %+v", merged)
	return merged, nil
}

// Capture applies the patch, takes one snapshot and writes it to disk. The
// frame is returned alongside the path so callers can analyse it without
// reading the file back. No existing file is ever overwritten.
func (s *Service) Capture(ctx context.Context, patch camera.Patch, req Request) (Result, error) {
	format, err := resolveFormat(req)
	if err != nil {
		return Result{}, err
	}

	settings, err := s.Adjust(ctx, patch)
	if err != nil {
		return Result{}, err
	}

	single, err := s.Dev.NewSnapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := s.Dev.CloseAll(ctx); err != nil {
			s.logf("close open measurements: %v", err)
		}
	}()

	fd, err := s.Dev.FrameData(ctx, single)
	if err != nil {
		return Result{}, err
	}
	frame, err := fd.Frame(s.Clock.Now())
	if err != nil {
		return Result{}, err
	}

	data, err := EncodeFrame(frame, format)
	if err != nil {
		return Result{}, err
	}

	path, err := s.persist(req, format, data)
	if err != nil {
		return Result{}, err
	}

	s.logf("captured %dx%d frame (%d bit) to %s", frame.Width, frame.Height, frame.BitDepth, path)
	return Result{Path: path, Frame: frame, Settings: settings}, nil
}

// resolveFormat picks the encoding: an extension on the requested name
// wins, then the explicit format field, then png.
func resolveFormat(req Request) (Format, error) {
	if req.Name != "" && !req.RandomName {
		if ext := filepath.Ext(req.Name); ext != "" {
			return ParseFormat(ext)
		}
	}
	return ParseFormat(req.Format)
}

func (s *Service) persist(req Request, format Format, data []byte) (string, error) {
	dir := req.Directory
	if dir == "" {
		dir = "."
	}
	if err := s.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dir, err)
	}

	if req.Name != "" && !req.RandomName {
		return s.persistNamed(dir, req.Name, format, data)
	}
	return s.persistGenerated(dir, format, data)
}

func (s *Service) persistNamed(dir, name string, format Format, data []byte) (string, error) {
	if filepath.Ext(name) == "" {
		name += format.Ext()
	}
	final := filepath.Join(dir, name)

	if err := security.ValidatePathWithinDirectory(final, dir); err != nil {
		return "", err
	}
	if parent := filepath.Dir(final); parent != filepath.Clean(dir) {
		if err := s.FS.MkdirAll(parent, 0o755); err != nil {
			return "", fmt.Errorf("create output directory %s: %w", parent, err)
		}
	}

	if err := s.writeAtomic(final, data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("refusing to overwrite %s: %w", final, err)
		}
		return "", err
	}
	return final, nil
}

func (s *Service) persistGenerated(dir string, format Format, data []byte) (string, error) {
	attempts := s.NameAttempts
	if attempts <= 0 {
		attempts = DefaultNameAttempts
	}

	for i := 0; i < attempts; i++ {
		final := filepath.Join(dir, randomName(s.rng)+format.Ext())
		if s.FS.Exists(final) {
			continue
		}
		err := s.writeAtomic(final, data)
		if errors.Is(err, fs.ErrExist) {
			// another writer claimed the name between the check and the
			// publish; roll a new one
			continue
		}
		if err != nil {
			return "", err
		}
		return final, nil
	}

	exhausted := &NameExhaustedError{Dir: dir, Attempts: attempts}
	if entries, err := s.FS.ReadDir(dir); err == nil {
		for _, entry := range entries {
			exhausted.Entries = append(exhausted.Entries, entry.Name())
		}
	}
	return "", exhausted
}
