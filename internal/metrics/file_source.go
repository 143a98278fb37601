package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads metric samples from a health-export JSON file. The file
// is re-read on every fetch so an external exporter can keep appending
// samples while stride runs.
//
// File shape:
//
//	{"samples": [{"kind": "steps", "day": "2026-08-24", "value": 8214}, ...]}
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type sample struct {
	Kind  Kind    `json:"kind"`
	Day   string  `json:"day"`
	Value float64 `json:"value"`
}

type sampleFile struct {
	Samples []sample `json:"samples"`
}

func (s *FileSource) FetchMetric(ctx context.Context, kind Kind, day string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", s.path, ErrUnavailable)
		}
		if os.IsPermission(err) {
			return 0, fmt.Errorf("%s: %w", s.path, ErrUnauthorized)
		}
		return 0, fmt.Errorf("failed to read metric file: %w", err)
	}

	var file sampleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse metric file: %w", err)
	}

	// Exporters may emit several samples per day; the day's value is their
	// sum.
	total := 0.0
	found := false
	for _, sm := range file.Samples {
		if sm.Kind == kind && sm.Day == day {
			total += sm.Value
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("%s on %s: %w", kind, day, ErrNotFound)
	}

	return total, nil
}
