// internal/backends/extract.go
package backends

// Response extraction works through ordered accessor chains: each accessor
// inspects one candidate location in the decoded body and reports whether it
// matched. The first match wins, which keeps the provider fallback order
// explicit and testable.

type tokenAccessor func(map[string]any) (int, bool)

var tokenAccessors = []tokenAccessor{
	intField("tokens"),
	intField("num_tokens"),
	intField("token_count"),
	intField("eval_count"),
	usageIntField("total_tokens"),
	usageIntField("completion_tokens"),
}

// TokenCount extracts the generated token count from a buffered response
// body, trying provider-specific counters before the usage sub-object.
// Unknown shapes yield 0.
func TokenCount(body map[string]any) int {
	for _, accessor := range tokenAccessors {
		if n, ok := accessor(body); ok {
			return n
		}
	}
	return 0
}

// CompletionText extracts the output text from a buffered response body:
// a direct "response" string, else choices[0].text, else
// choices[0].message.content, else a top-level "content" string (legacy
// llama.cpp), else "".
func CompletionText(body map[string]any) string {
	if text, ok := body["response"].(string); ok {
		return text
	}
	if choice, ok := firstChoice(body); ok {
		if text, ok := choice["text"].(string); ok {
			return text
		}
		if message, ok := choice["message"].(map[string]any); ok {
			if content, ok := message["content"].(string); ok {
				return content
			}
		}
	}
	if text, ok := body["content"].(string); ok {
		return text
	}
	return ""
}

// ReportedTTFT returns a provider-reported ttft_ms field when present.
func ReportedTTFT(body map[string]any) (float64, bool) {
	value, ok := body["ttft_ms"].(float64)
	if !ok || value <= 0 {
		return 0, false
	}
	return value, true
}

func intField(key string) tokenAccessor {
	return func(body map[string]any) (int, bool) {
		return asInt(body[key])
	}
}

func usageIntField(key string) tokenAccessor {
	return func(body map[string]any) (int, bool) {
		usage, ok := body["usage"].(map[string]any)
		if !ok {
			return 0, false
		}
		return asInt(usage[key])
	}
}

// asInt accepts the numeric shapes encoding/json produces for integers.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func firstChoice(body map[string]any) (map[string]any, bool) {
	choices, ok := body["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}
