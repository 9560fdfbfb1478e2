package metron

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mwiater/metron/internal/bench"
)

func writeSweepFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadSweepFile(t *testing.T) {
	path := writeSweepFile(t, `{
		"sweep_concurrency": [1, 4, 8],
		"sweep_max_tokens": [128, 512],
		"sweep_temperature": [0.1, 0.7]
	}`)

	axes, err := loadSweepFile(path)
	if err != nil {
		t.Fatalf("loadSweepFile: %v", err)
	}
	expected := bench.SweepAxes{
		Concurrency: []int{1, 4, 8},
		MaxTokens:   []int{128, 512},
		Temperature: []float64{0.1, 0.7},
	}
	if !reflect.DeepEqual(axes, expected) {
		t.Fatalf("axes = %+v, want %+v", axes, expected)
	}
}

func TestLoadSweepFileRejectsMissingAxis(t *testing.T) {
	path := writeSweepFile(t, `{
		"sweep_concurrency": [1],
		"sweep_max_tokens": [128]
	}`)
	if _, err := loadSweepFile(path); err == nil {
		t.Fatalf("expected schema error for missing axis")
	}
}

func TestLoadSweepFileRejectsUnknownKeys(t *testing.T) {
	path := writeSweepFile(t, `{
		"sweep_concurrency": [1],
		"sweep_max_tokens": [128],
		"sweep_temperature": [0.1],
		"sweep_top_p": [0.9]
	}`)
	_, err := loadSweepFile(path)
	if err == nil {
		t.Fatalf("expected schema error for unknown axis")
	}
	if !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadSweepFileRejectsOutOfRangeValues(t *testing.T) {
	path := writeSweepFile(t, `{
		"sweep_concurrency": [0],
		"sweep_max_tokens": [128],
		"sweep_temperature": [0.1]
	}`)
	if _, err := loadSweepFile(path); err == nil {
		t.Fatalf("expected schema error for concurrency below 1")
	}
}

func TestLoadSweepFileMissing(t *testing.T) {
	if _, err := loadSweepFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
