// internal/bench/results.go
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mwiater/metron/internal/logging"
)

// resultsDir is where benchmark output files land, relative to the working
// directory.
var resultsDir = filepath.Join("metronData", "benchmarks")

// WriteResult writes one run's result as indented JSON and returns the file
// path.
func WriteResult(result Result) (string, error) {
	name := fmt.Sprintf("%s-%s-%s.json", result.Provider, Slugify(result.ModelName), result.RunID)
	return writeJSON(name, result)
}

// WriteSweep writes the ordered results of a sweep to a single file and
// returns the file path.
func WriteSweep(provider, modelName string, results []Result) (string, error) {
	name := fmt.Sprintf("%s-%s-sweep-%d.json", provider, Slugify(modelName), len(results))
	return writeJSON(name, results)
}

func writeJSON(name string, payload any) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}
	path := filepath.Join(resultsDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return "", fmt.Errorf("write results to file: %w", err)
	}

	logging.LogEvent("Benchmark results written to %s", path)
	return path, nil
}

// Slugify converts a string into a "slug" format,
// including replacing colons (:) with underscores (_).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	re := regexp.MustCompile(`[^a-z0-9_]+`)
	s = re.ReplaceAllString(s, "-")
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")

	return s
}
