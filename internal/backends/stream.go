// internal/backends/stream.go
package backends

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// StreamEvent is an out-of-band payload tagged with an SSE "event:" line
// (telemetry, metrics, log). Captured for debugging, excluded from the text
// and timing computation.
type StreamEvent struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// streamChunk covers the union of chunk shapes the supported providers
// emit. Text is resolved through chunkText's ordered fallback chain.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Content  string `json:"content"`
	Response string `json:"response"`

	Tokens    int `json:"tokens"`
	EvalCount int `json:"eval_count"`
	Usage     struct {
		TotalTokens      int `json:"total_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// chunkText resolves the candidate text of one chunk: delta content, then
// message content, then a text field, then a top-level content or response
// field.
func chunkText(c streamChunk) string {
	if len(c.Choices) > 0 {
		choice := c.Choices[0]
		if choice.Delta.Content != "" {
			return choice.Delta.Content
		}
		if choice.Message.Content != "" {
			return choice.Message.Content
		}
		if choice.Text != "" {
			return choice.Text
		}
	}
	if c.Content != "" {
		return c.Content
	}
	return c.Response
}

// chunkTokens returns the largest provider-reported counter in one chunk.
func chunkTokens(c streamChunk) int {
	max := c.Tokens
	for _, n := range []int{c.EvalCount, c.Usage.TotalTokens, c.Usage.CompletionTokens} {
		if n > max {
			max = n
		}
	}
	return max
}

// StreamObserver folds decoded streaming chunks into text and timing
// aggregates. Arrival timestamps are supplied by the caller so the clock
// stays injectable.
type StreamObserver struct {
	start          time.Time
	firstText      time.Time
	lastText       time.Time
	gapTotal       time.Duration
	chunks         int
	textChunks     int
	reportedTokens int
	text           strings.Builder
	events         []StreamEvent
}

// NewStreamObserver returns an observer measuring from the request start
// time.
func NewStreamObserver(start time.Time) *StreamObserver {
	return &StreamObserver{start: start}
}

// Observe decodes one data payload and folds it into the aggregates. A
// payload that is not valid JSON yields a MalformedResponseError.
func (o *StreamObserver) Observe(data []byte, at time.Time) error {
	var chunk streamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return &MalformedResponseError{Op: "decode stream chunk", Err: err}
	}
	o.chunks++

	if reported := chunkTokens(chunk); reported > o.reportedTokens {
		o.reportedTokens = reported
	}

	text := chunkText(chunk)
	if text == "" {
		return nil
	}
	o.text.WriteString(text)
	o.textChunks++
	if o.textChunks == 1 {
		o.firstText = at
	} else {
		o.gapTotal += at.Sub(o.lastText)
	}
	o.lastText = at
	return nil
}

// ObserveEvent records an out-of-band tagged payload.
func (o *StreamObserver) ObserveEvent(name, data string) {
	o.events = append(o.events, StreamEvent{Name: name, Data: data})
}

// Chunks returns the number of usable chunks decoded so far.
func (o *StreamObserver) Chunks() int { return o.chunks }

// StreamResult is the normalized outcome of one consumed stream.
type StreamResult struct {
	Text                   string
	TTFTMS                 float64
	AvgInterTokenLatencyMS float64
	Tokens                 int
	Chunks                 int
	Events                 []StreamEvent
}

// Result finalizes the aggregates. A stream with zero usable chunks is
// ErrEmptyStream. The token count is the larger of the provider-reported
// counter and the number of text-bearing chunks.
func (o *StreamObserver) Result() (StreamResult, error) {
	if o.chunks == 0 {
		return StreamResult{}, ErrEmptyStream
	}

	result := StreamResult{
		Text:   o.text.String(),
		Tokens: o.reportedTokens,
		Chunks: o.chunks,
		Events: o.events,
	}
	if o.textChunks > result.Tokens {
		result.Tokens = o.textChunks
	}
	if o.textChunks > 0 {
		result.TTFTMS = float64(o.firstText.Sub(o.start)) / float64(time.Millisecond)
	}
	if o.textChunks > 1 {
		avg := float64(o.gapTotal) / float64(o.textChunks-1)
		result.AvgInterTokenLatencyMS = avg / float64(time.Millisecond)
	}
	return result, nil
}

// ScanStream reads a newline-delimited streaming body into the observer.
// Framing rules: "data: <json>" payload lines, a literal "[DONE]"
// terminator, blank lines separating events, ":" comment lines, and
// "event: <name>" lines tagging the next payload as out-of-band. Bare JSON
// lines (Ollama's NDJSON framing) are treated as data payloads.
//
// A read error after at least one usable chunk is an early close, accepted
// as a partial result. The observer decides empty-versus-partial on
// Result().
func ScanStream(r io.Reader, obs *StreamObserver, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	pendingEvent := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			pendingEvent = ""
			continue
		}
		if strings.HasPrefix(line, "event:") {
			pendingEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		data := line
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
		if data == "[DONE]" {
			return nil
		}
		if pendingEvent != "" {
			obs.ObserveEvent(pendingEvent, data)
			pendingEvent = ""
			continue
		}
		if err := obs.Observe([]byte(data), now()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		if obs.Chunks() > 0 {
			return nil
		}
		return &TransientError{Op: "read stream", Err: err}
	}
	return nil
}
