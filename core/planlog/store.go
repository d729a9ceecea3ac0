// Package planlog persists one record per planning run and lets callers
// query them back by strategy and time range.
package planlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/gridwalk/core/factory"
	"github.com/kilianp07/gridwalk/core/grid"
	"github.com/kilianp07/gridwalk/core/model"
)

// Record captures one planning run and its outcome.
type Record struct {
	RunID      string        `json:"run_id"`
	Timestamp  time.Time     `json:"timestamp"`
	Strategy   string        `json:"strategy"`
	GridSize   int           `json:"grid_size"`
	Request    model.Request `json:"request"`
	Score      grid.Reward   `json:"score"`
	Steps      int           `json:"steps"`
	Truncated  bool          `json:"truncated"`
	DurationMS float64       `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	Path       []grid.Cell   `json:"path,omitempty"`
}

// Query filters records. Zero values disable a filter.
type Query struct {
	Start    time.Time
	End      time.Time
	Strategy string
	RunID    string
	// FailedOnly keeps runs that ended with an error.
	FailedOnly bool
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Strategy != "" && r.Strategy != q.Strategy {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	return !q.FailedOnly || r.Error != ""
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Options configures the built-in stores.
type Options struct {
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

var stores = factory.NewRegistry[Store]()

func init() {
	stores.MustRegister("jsonl", func(conf map[string]any) (Store, error) {
		opts, err := decodeOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(opts.Path)
	})
	stores.MustRegister("rotating", func(conf map[string]any) (Store, error) {
		opts, err := decodeOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
	})
	stores.MustRegister("sqlite", func(conf map[string]any) (Store, error) {
		opts, err := decodeOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(opts.Path)
	})
}

func decodeOptions(conf map[string]any) (Options, error) {
	var opts Options
	if err := factory.Decode(conf, &opts); err != nil {
		return opts, fmt.Errorf("plan log options: %w", err)
	}
	if opts.Path == "" {
		return opts, fmt.Errorf("plan log path is required")
	}
	return opts, nil
}

// NewStore opens the store named by cfg.Type.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	return stores.Create(cfg)
}

// Backends lists the registered store types.
func Backends() []string { return stores.Names() }
