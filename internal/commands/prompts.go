// internal/commands/prompts.go
package metron

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/metron/internal/backendfactory"
	"github.com/mwiater/metron/internal/backends"
	"github.com/mwiater/metron/internal/bench"
	"github.com/mwiater/metron/internal/prompts"
)

// promptsCmd previews the random prompt set a benchmark would use, without
// running any measured requests.
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Generate and preview random benchmark prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		providerName, _ := cmd.Flags().GetString("provider")
		provider, err := backends.ParseProvider(providerName)
		if err != nil {
			return err
		}
		modelName, _ := cmd.Flags().GetString("model")
		count, _ := cmd.Flags().GetInt("count")
		guidance, _ := cmd.Flags().GetString("prompt-guidance")
		baseURL, _ := cmd.Flags().GetString("base-url")

		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration was not loaded")
		}

		params := bench.DefaultParameters()
		params.Stream = false
		gen, err := backendfactory.New(provider, backendfactory.Options{
			Config:        cfg,
			BaseURL:       baseURL,
			Model:         modelName,
			Params:        params,
			BackendParams: bench.DefaultBackendParameters(),
		})
		if err != nil {
			return err
		}

		generated, err := prompts.Generate(cmd.Context(), gen, count, guidance)
		if err != nil {
			return err
		}
		for i, prompt := range generated {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, prompt)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)

	promptsCmd.Flags().StringP("provider", "p", "", "inference backend: ollama, vllm, nim, or llamacpp")
	promptsCmd.Flags().StringP("model", "m", "", "model used to generate the prompts")
	promptsCmd.Flags().String("base-url", "", "override the configured endpoint URL")
	promptsCmd.Flags().IntP("count", "n", 5, "number of prompts to generate")
	promptsCmd.Flags().String("prompt-guidance", "", "extra guidance for prompt generation")
	_ = promptsCmd.MarkFlagRequired("provider")
	_ = promptsCmd.MarkFlagRequired("model")
}
