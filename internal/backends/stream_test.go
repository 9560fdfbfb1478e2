package backends

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStreamObserverAggregatesDeltaChunks(t *testing.T) {
	start := time.Unix(0, 0)
	obs := NewStreamObserver(start)

	chunks := []struct {
		data string
		at   time.Time
	}{
		{`{"choices":[{"delta":{"content":"Hi"}}]}`, start.Add(25 * time.Millisecond)},
		{`{"choices":[{"delta":{"content":" there"}}]}`, start.Add(35 * time.Millisecond)},
		{`{"choices":[{"delta":{"content":"!"}}],"usage":{"completion_tokens":9}}`, start.Add(45 * time.Millisecond)},
	}
	for _, c := range chunks {
		if err := obs.Observe([]byte(c.data), c.at); err != nil {
			t.Fatalf("Observe(%q): %v", c.data, err)
		}
	}

	result, err := obs.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Text != "Hi there!" {
		t.Fatalf("text = %q, want %q", result.Text, "Hi there!")
	}
	if result.TTFTMS != 25 {
		t.Fatalf("ttft_ms = %g, want 25", result.TTFTMS)
	}
	if result.AvgInterTokenLatencyMS != 10 {
		t.Fatalf("avg inter-token = %g, want 10", result.AvgInterTokenLatencyMS)
	}
	// Provider counter beats the three text chunks.
	if result.Tokens != 9 {
		t.Fatalf("tokens = %d, want 9", result.Tokens)
	}
}

func TestStreamObserverFallsBackToChunkCount(t *testing.T) {
	start := time.Unix(0, 0)
	obs := NewStreamObserver(start)
	for i := 0; i < 4; i++ {
		payload := `{"response":"x"}`
		if err := obs.Observe([]byte(payload), start.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("Observe: %v", err)
		}
	}

	result, err := obs.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Tokens != 4 {
		t.Fatalf("tokens = %d, want chunk count 4", result.Tokens)
	}
}

func TestStreamObserverMalformedChunk(t *testing.T) {
	obs := NewStreamObserver(time.Now())
	err := obs.Observe([]byte("{not json"), time.Now())
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedResponseError", err)
	}
}

func TestStreamObserverEmptyStream(t *testing.T) {
	obs := NewStreamObserver(time.Now())
	if _, err := obs.Result(); !errors.Is(err, ErrEmptyStream) {
		t.Fatalf("err = %v, want ErrEmptyStream", err)
	}
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * step)
	}
}

func TestScanStreamSSEFraming(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive comment",
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		"",
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		"",
		"data: [DONE]",
		`data: {"choices":[{"delta":{"content":"never seen"}}]}`,
	}, "\n")

	start := time.Unix(0, 0)
	obs := NewStreamObserver(start)
	if err := ScanStream(strings.NewReader(body), obs, fixedClock(start, time.Millisecond)); err != nil {
		t.Fatalf("ScanStream: %v", err)
	}

	result, err := obs.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Text != "ab" {
		t.Fatalf("text = %q, want %q (terminator not honored)", result.Text, "ab")
	}
	if result.Chunks != 2 {
		t.Fatalf("chunks = %d, want 2", result.Chunks)
	}
}

func TestScanStreamBareJSONLines(t *testing.T) {
	body := strings.Join([]string{
		`{"response":"Hel","eval_count":1}`,
		`{"response":"lo","eval_count":2}`,
		`{"response":"","done":true,"eval_count":2}`,
	}, "\n")

	start := time.Unix(0, 0)
	obs := NewStreamObserver(start)
	if err := ScanStream(strings.NewReader(body), obs, fixedClock(start, time.Millisecond)); err != nil {
		t.Fatalf("ScanStream: %v", err)
	}

	result, err := obs.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Text != "Hello" {
		t.Fatalf("text = %q, want %q", result.Text, "Hello")
	}
	if result.Chunks != 3 {
		t.Fatalf("chunks = %d, want 3", result.Chunks)
	}
}

func TestScanStreamTaggedEventsExcludedFromText(t *testing.T) {
	body := strings.Join([]string{
		"event: telemetry",
		`data: {"gpu_util":0.93}`,
		"",
		`data: {"choices":[{"delta":{"content":"hi"}}]}`,
		"",
	}, "\n")

	start := time.Unix(0, 0)
	obs := NewStreamObserver(start)
	if err := ScanStream(strings.NewReader(body), obs, fixedClock(start, time.Millisecond)); err != nil {
		t.Fatalf("ScanStream: %v", err)
	}

	result, err := obs.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Text != "hi" {
		t.Fatalf("telemetry leaked into text: %q", result.Text)
	}
	if len(result.Events) != 1 || result.Events[0].Name != "telemetry" {
		t.Fatalf("events = %+v, want one telemetry event", result.Events)
	}
	if result.Chunks != 1 {
		t.Fatalf("chunks = %d; tagged events must not count", result.Chunks)
	}
}

// failingReader delivers some bytes and then a read error.
type failingReader struct {
	data string
	err  error
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func TestScanStreamAcceptsPartialAfterChunks(t *testing.T) {
	reader := &failingReader{
		data: `{"response":"partial"}` + "\n",
		err:  errors.New("connection reset"),
	}
	start := time.Unix(0, 0)
	obs := NewStreamObserver(start)
	if err := ScanStream(reader, obs, fixedClock(start, time.Millisecond)); err != nil {
		t.Fatalf("partial stream rejected: %v", err)
	}
	result, err := obs.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Text != "partial" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestScanStreamErrorBeforeAnyChunk(t *testing.T) {
	reader := &failingReader{data: "", err: errors.New("connection reset")}
	obs := NewStreamObserver(time.Now())
	err := ScanStream(reader, obs, nil)
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("err = %v, want TransientError", err)
	}
}
