// internal/commands/sweep.go
package metron

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/metron/internal/backendfactory"
	"github.com/mwiater/metron/internal/backends"
	"github.com/mwiater/metron/internal/bench"
)

// sweepFileSchema validates a sweep definition file before any request is
// sent; a typo'd axis name should fail up front, not after the first grid
// point has run.
var sweepFileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sweep_concurrency": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "integer", "minimum": 1, "maximum": bench.MaxConcurrency},
			"minItems": 1,
		},
		"sweep_max_tokens": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "integer", "minimum": 1},
			"minItems": 1,
		},
		"sweep_temperature": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "number", "minimum": 0, "maximum": 2},
			"minItems": 1,
		},
	},
	"required":             []string{"sweep_concurrency", "sweep_max_tokens", "sweep_temperature"},
	"additionalProperties": false,
}

// sweepCmd runs one benchmark per point of a parameter grid.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a benchmark per point of a parameter grid",
	Long: `Run a benchmark per point of a parameter grid.

The grid is the cartesian product of the concurrency, max-tokens, and
temperature axes, iterated concurrency-major. Axes come from the repeated
--sweep-* flags or from a JSON file via --file. Points run sequentially;
the first failing point aborts the sweep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		providerName, _ := cmd.Flags().GetString("provider")
		provider, err := backends.ParseProvider(providerName)
		if err != nil {
			return err
		}
		modelName, _ := cmd.Flags().GetString("model")

		axes, err := resolveSweepAxes(cmd)
		if err != nil {
			return err
		}

		runCfg, opts, err := buildRunConfig(cmd, string(provider), modelName)
		if err != nil {
			return err
		}

		factory := func(params bench.Parameters) (bench.Generator, error) {
			pointOpts := opts
			pointOpts.Params = params
			return backendfactory.New(provider, pointOpts)
		}

		results, err := bench.RunSweep(cmd.Context(), factory, runCfg, axes)
		if err != nil {
			return err
		}

		for _, result := range results {
			printSummary(cmd, result)
		}

		path, err := bench.WriteSweep(string(provider), modelName, results)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okLine(fmt.Sprintf("Sweep results written to %s", path)))
		return nil
	},
}

// resolveSweepAxes reads the axes from --file when given, otherwise from the
// repeated flag values.
func resolveSweepAxes(cmd *cobra.Command) (bench.SweepAxes, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return loadSweepFile(file)
	}

	var axes bench.SweepAxes
	axes.Concurrency, _ = cmd.Flags().GetIntSlice("sweep-concurrency")
	axes.MaxTokens, _ = cmd.Flags().GetIntSlice("sweep-max-tokens")
	axes.Temperature, _ = cmd.Flags().GetFloat64Slice("sweep-temperature")
	return axes, axes.Validate()
}

// loadSweepFile reads and schema-validates a sweep definition file.
func loadSweepFile(path string) (bench.SweepAxes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bench.SweepAxes{}, fmt.Errorf("could not read sweep file %q: %w", path, err)
	}

	schemaLoader := gojsonschema.NewGoLoader(sweepFileSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return bench.SweepAxes{}, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return bench.SweepAxes{}, fmt.Errorf("sweep file %q is invalid: %s", path, strings.Join(errs, ", "))
	}

	var axes bench.SweepAxes
	if err := json.Unmarshal(data, &axes); err != nil {
		return bench.SweepAxes{}, fmt.Errorf("could not parse sweep file %q: %w", path, err)
	}
	return axes, nil
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	addBenchmarkFlags(sweepCmd)

	sweepCmd.Flags().IntSlice("sweep-concurrency", nil, "concurrency values to sweep")
	sweepCmd.Flags().IntSlice("sweep-max-tokens", nil, "max-tokens values to sweep")
	sweepCmd.Flags().Float64Slice("sweep-temperature", nil, "temperature values to sweep")
	sweepCmd.Flags().StringP("file", "f", "", "JSON file defining the sweep axes")
}
