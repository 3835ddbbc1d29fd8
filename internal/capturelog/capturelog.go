// Package capturelog keeps a local journal of captures in SQLite so past
// shots can be found by time or camera without trawling the output
// directory.
package capturelog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/units"
)

type DB struct {
	*sql.DB
}

// Open opens or creates the journal at path and brings its schema up to
// date.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open capture journal: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Record is one journal row.
type Record struct {
	ID            int64
	Path          string
	CameraName    string
	Width         int
	Height        int
	BitDepth      int
	ExposureAuto  bool
	ExposureUS    float64
	GainAuto      bool
	Gain          float64
	FrameRateAuto bool
	FrameRate     float64
	RecordedAt    time.Time

	// Fit columns are filled in by SetFitSummary once an analysis has
	// run; nil means no fit was computed for this capture.
	FitMean      *float64
	FitStdDev    *float64
	FitAmplitude *float64
}

// NewRecord flattens a completed capture for the journal. Exposure is
// stored in microseconds.
func NewRecord(path, cameraName string, f camera.Frame, s camera.Settings) Record {
	return Record{
		Path:          path,
		CameraName:    cameraName,
		Width:         f.Width,
		Height:        f.Height,
		BitDepth:      f.BitDepth,
		ExposureAuto:  s.ExposureAuto,
		ExposureUS:    units.DurationToMicroseconds(s.ExposureTime),
		GainAuto:      s.GainAuto,
		Gain:          s.Gain,
		FrameRateAuto: s.FrameRateAuto,
		FrameRate:     s.FrameRate,
		RecordedAt:    f.Timestamp,
	}
}

// RecordCapture inserts one row and returns its id. Paths are unique; a
// second capture can never claim an existing file, so a duplicate row
// means a bookkeeping bug.
func (db *DB) RecordCapture(rec Record) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO captures (
			path, camera_name, width, height, bit_depth,
			exposure_auto, exposure_us, gain_auto, gain,
			frame_rate_auto, frame_rate, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.CameraName, rec.Width, rec.Height, rec.BitDepth,
		rec.ExposureAuto, rec.ExposureUS, rec.GainAuto, rec.Gain,
		rec.FrameRateAuto, rec.FrameRate, rec.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record capture: %w", err)
	}
	return res.LastInsertId()
}

// SetFitSummary attaches gaussian fit results to an existing row.
func (db *DB) SetFitSummary(id int64, mean, stddev, amplitude float64) error {
	res, err := db.Exec(`
		UPDATE captures
		SET fit_mean = ?, fit_stddev = ?, fit_amplitude = ?
		WHERE id = ?`,
		mean, stddev, amplitude, id)
	if err != nil {
		return fmt.Errorf("set fit summary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("set fit summary: no capture with id %d", id)
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (db *DB) Recent(limit int) ([]Record, error) {
	rows, err := db.Query(`
		SELECT id, path, camera_name, width, height, bit_depth,
			exposure_auto, exposure_us, gain_auto, gain,
			frame_rate_auto, frame_rate, recorded_at,
			fit_mean, fit_stddev, fit_amplitude
		FROM captures
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var recordedAt string
		if err := rows.Scan(
			&rec.ID, &rec.Path, &rec.CameraName, &rec.Width, &rec.Height, &rec.BitDepth,
			&rec.ExposureAuto, &rec.ExposureUS, &rec.GainAuto, &rec.Gain,
			&rec.FrameRateAuto, &rec.FrameRate, &recordedAt,
			&rec.FitMean, &rec.FitStdDev, &rec.FitAmplitude,
		); err != nil {
			return nil, err
		}
		rec.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
