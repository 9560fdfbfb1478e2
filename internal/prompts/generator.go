// internal/prompts/generator.go
// Package prompts asks a backend to synthesize benchmark prompts and
// recovers a prompt list from whatever shape the model answers in.
package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mwiater/metron/internal/bench"
	"github.com/mwiater/metron/internal/logging"
)

// ErrNoPrompts is returned when no prompt could be recovered from the
// model's response by any parsing stage. A run must not proceed with zero
// prompts.
var ErrNoPrompts = fmt.Errorf("no prompts parsed from model response")

const metaPrompt = "Generate exactly %d unique, diverse prompts suitable for benchmarking a language model. " +
	"Respond with only a JSON array of strings, one prompt per element, and no surrounding commentary."

// bracketed matches the first [...] substring, across lines, for responses
// that wrap the array in prose.
var bracketed = regexp.MustCompile(`(?s)\[.*\]`)

// bulletMarkers are stripped from line-based fallback parsing, in both
// spaced and unspaced forms.
var bulletMarkers = []string{"- ", "-", "• ", "•", "* ", "*"}

// Generate asks the backend for count prompts and parses the completion.
// Guidance, when set, is appended to the meta-instruction as free text.
func Generate(ctx context.Context, gen bench.Generator, count int, guidance string) ([]string, error) {
	instruction := fmt.Sprintf(metaPrompt, count)
	if guidance = strings.TrimSpace(guidance); guidance != "" {
		instruction += "\nAdditional guidance: " + guidance
	}

	metrics, err := gen.Generate(ctx, instruction)
	if err != nil {
		return nil, fmt.Errorf("prompt generation request: %w", err)
	}

	parsed := Parse(metrics.Completion, count)
	if len(parsed) == 0 {
		return nil, ErrNoPrompts
	}
	logging.LogEvent("Parsed %d of %d requested prompts", len(parsed), count)
	return parsed, nil
}

// Parse recovers up to limit prompts from unstructured model output.
// Stages: strip an enclosing code fence, direct JSON-array parse, first
// bracketed substring, then non-blank lines with bullet markers removed.
func Parse(text string, limit int) []string {
	stripped := stripCodeFence(strings.TrimSpace(text))

	if prompts := parseJSONArray(stripped, limit); len(prompts) > 0 {
		return prompts
	}
	if match := bracketed.FindString(stripped); match != "" {
		if prompts := parseJSONArray(match, limit); len(prompts) > 0 {
			return prompts
		}
	}
	return parseLines(stripped, limit)
}

// stripCodeFence removes one enclosing triple-backtick fence, optionally
// tagged (```json).
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = strings.TrimPrefix(body, "```")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

func parseJSONArray(text string, limit int) []string {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	prompts := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		prompts = append(prompts, s)
		if len(prompts) == limit {
			break
		}
	}
	return prompts
}

func parseLines(text string, limit int) []string {
	var prompts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, marker := range bulletMarkers {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line == "" {
			continue
		}
		prompts = append(prompts, line)
		if len(prompts) == limit {
			break
		}
	}
	return prompts
}
