// Package export writes profiles and runs as CSV.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/vovakirdan/canrun/internal/storage"
)

// ProfileRow is one line of the profile export. Column names follow the
// registration sheet the export is shared with.
type ProfileRow struct {
	Name      string `csv:"Nombre"`
	Age       int    `csv:"Edad"`
	Email     string `csv:"Correo"`
	City      string `csv:"Ciudad"`
	BestScore int    `csv:"PuntajeMaximo"`
}

// RunRow is one line of a run export.
type RunRow struct {
	ID        string  `csv:"run_id"`
	ProfileID int64   `csv:"profile_id"`
	Pilot     string  `csv:"pilot"`
	Score     int     `csv:"score"`
	Distance  float64 `csv:"distance"`
	Duration  float64 `csv:"duration_s"`
	EndReason string  `csv:"end_reason"`
}

// ProfileRows converts stored profiles to export rows.
func ProfileRows(profiles []storage.ProfileRecord) []ProfileRow {
	rows := make([]ProfileRow, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, ProfileRow{
			Name:      p.Name,
			Age:       p.Age,
			Email:     p.Email,
			City:      p.City,
			BestScore: p.BestScore,
		})
	}
	return rows
}

// RunRowFrom converts a stored run to an export row.
func RunRowFrom(r storage.RunRecord) RunRow {
	return RunRow{
		ID:        r.ID,
		ProfileID: r.ProfileID,
		Pilot:     r.Pilot,
		Score:     r.Score,
		Distance:  r.Distance,
		Duration:  r.Duration,
		EndReason: r.EndReason,
	}
}

// WriteProfiles writes profiles with a header row.
func WriteProfiles(w io.Writer, profiles []storage.ProfileRecord) error {
	rows := ProfileRows(profiles)
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	return nil
}

// WriteProfilesFile writes the profile export to path, creating parent directories.
func WriteProfilesFile(path string, profiles []storage.ProfileRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteProfiles(f, profiles); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RunLog appends run rows to a CSV stream, writing the header once.
// A nil RunLog discards everything.
type RunLog struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
}

// NewRunLog writes to w.
func NewRunLog(w io.Writer) *RunLog {
	return &RunLog{w: w}
}

// CreateRunLog creates the file at path. Returns nil if path is empty.
func CreateRunLog(path string) (*RunLog, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &RunLog{w: f, closer: f}, nil
}

// Write appends one row.
func (l *RunLog) Write(row RunRow) error {
	if l == nil {
		return nil
	}

	records := []RunRow{row}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.w); err != nil {
			return fmt.Errorf("writing run: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.w); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	return nil
}

// Close closes the underlying file, if RunLog opened one.
func (l *RunLog) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
