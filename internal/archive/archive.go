// Package archive persists finished analysis runs so results can be
// listed, compared and served later. Two backends exist: a local SQLite
// file and a TimescaleDB/PostgreSQL database.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/avollmer/starpipe/internal/types"
)

// ErrNotFound is returned by every backend when no run matches the
// requested ID.
var ErrNotFound = errors.New("run not found")

// Run is one archived pipeline run for one target star.
type Run struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	StarName      string    `json:"star_name"`
	Constellation string    `json:"constellation"`
	ModelName     string    `json:"model_name"`
	EventKind     string    `json:"event_kind"`
	EventHJD      float64   `json:"event_hjd"`
	EventHJDErr   float64   `json:"event_hjd_err"`
	Amplitude     float64   `json:"amplitude"`
	AmplitudeErr  float64   `json:"amplitude_err"`
	PeriodDays    float64   `json:"period_days"`
	PeriodErr     float64   `json:"period_err"`
	Band          string    `json:"band"`
	ObserverCode  string    `json:"observer_code"`
	Points        int       `json:"points"`
	OutputDir     string    `json:"output_dir"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// TableName customizes the table name used by the GORM backend.
func (Run) TableName() string {
	return "runs"
}

// FromRecord builds an archive row from a finalized report record.
func FromRecord(rec types.ReportRecord, modelName, outputDir string, started time.Time) *Run {
	return &Run{
		ID:            rec.RunID,
		StarName:      rec.StarName,
		Constellation: rec.Constellation,
		ModelName:     modelName,
		EventKind:     rec.EventKind,
		EventHJD:      rec.EventHJD,
		EventHJDErr:   rec.EventHJDErr,
		Amplitude:     rec.Amplitude,
		AmplitudeErr:  rec.AmplitudeErr,
		PeriodDays:    rec.PeriodDays,
		PeriodErr:     rec.PeriodErr,
		Band:          rec.Band,
		ObserverCode:  rec.ObserverCode,
		Points:        rec.Points,
		OutputDir:     outputDir,
		StartedAt:     started,
		FinishedAt:    rec.GeneratedAt,
	}
}

// Store is the run archive interface shared by both backends.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context) ([]Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	Close() error
}
