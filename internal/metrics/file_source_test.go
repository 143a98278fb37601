package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSamples(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write samples: %v", err)
	}
	return path
}

func TestFileSource_SumsSamplesForDay(t *testing.T) {
	path := writeSamples(t, `{"samples": [
		{"kind": "steps", "day": "2025-06-10", "value": 3000},
		{"kind": "steps", "day": "2025-06-10", "value": 5214},
		{"kind": "steps", "day": "2025-06-09", "value": 999},
		{"kind": "water_liters", "day": "2025-06-10", "value": 1.5}
	]}`)

	src := NewFileSource(path)
	got, err := src.FetchMetric(context.Background(), KindSteps, "2025-06-10")
	if err != nil {
		t.Fatalf("FetchMetric failed: %v", err)
	}
	if got != 8214 {
		t.Errorf("summed value = %.0f, want 8214", got)
	}
}

func TestFileSource_MissingDayIsNotFound(t *testing.T) {
	path := writeSamples(t, `{"samples": [{"kind": "steps", "day": "2025-06-09", "value": 100}]}`)

	src := NewFileSource(path)
	_, err := src.FetchMetric(context.Background(), KindSteps, "2025-06-10")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestFileSource_MissingFileIsUnavailable(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := src.FetchMetric(context.Background(), KindSteps, "2025-06-10")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("want ErrUnavailable, got %v", err)
	}
}

func TestFileSource_MalformedFile(t *testing.T) {
	path := writeSamples(t, `{not json`)
	src := NewFileSource(path)
	if _, err := src.FetchMetric(context.Background(), KindSteps, "2025-06-10"); err == nil {
		t.Error("malformed file should fail")
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	path := writeSamples(t, `{"samples": []}`)
	src := NewFileSource(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.FetchMetric(ctx, KindSteps, "2025-06-10"); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestFileSource_RereadsOnEveryFetch(t *testing.T) {
	path := writeSamples(t, `{"samples": [{"kind": "steps", "day": "2025-06-10", "value": 100}]}`)
	src := NewFileSource(path)

	if got, err := src.FetchMetric(context.Background(), KindSteps, "2025-06-10"); err != nil || got != 100 {
		t.Fatalf("first fetch = %.0f/%v", got, err)
	}

	// The exporter appends a sample between fetches.
	update := `{"samples": [
		{"kind": "steps", "day": "2025-06-10", "value": 100},
		{"kind": "steps", "day": "2025-06-10", "value": 50}
	]}`
	if err := os.WriteFile(path, []byte(update), 0600); err != nil {
		t.Fatalf("rewrite samples: %v", err)
	}

	got, err := src.FetchMetric(context.Background(), KindSteps, "2025-06-10")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if got != 150 {
		t.Errorf("second fetch = %.0f, want 150", got)
	}
}
