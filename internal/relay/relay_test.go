package relay

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

// scriptedStream replays a fixed sequence of upstream lines, then a final
// error (io.EOF by default). It records whether Close was called.
type scriptedStream struct {
	lines  []string
	final  error
	pos    int
	closed bool
}

func (s *scriptedStream) Next() (string, error) {
	if s.pos < len(s.lines) {
		line := s.lines[s.pos]
		s.pos++
		return line, nil
	}
	if s.final != nil {
		return "", s.final
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func runRelay(t *testing.T, ctx context.Context, stream *scriptedStream) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r, err := New(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Open()
	r.Run(ctx, stream)
	return rec
}

func TestRelayOpenWritesStreamHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	r, err := New(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Open()
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("unexpected Content-Type %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("unexpected Cache-Control %q", got)
	}
	if !rec.Flushed {
		t.Error("headers were not flushed")
	}
}

func TestRelayForwardsFramesInOrderAndEndsWithDone(t *testing.T) {
	stream := &scriptedStream{lines: []string{
		"event: response.output_text.delta",
		`data: {"type":"response.output_text.delta","delta":"Hej"}`,
		"",
		"event: response.output_text.delta",
		`data: {"type":"response.output_text.delta","delta":"!"}`,
		"",
		"data: [DONE]",
	}}
	rec := runRelay(t, context.Background(), stream)

	body := rec.Body.String()
	first := strings.Index(body, `"delta":"Hej"`)
	second := strings.Index(body, `"delta":"!"`)
	done := strings.Index(body, "event: done\ndata: [DONE]\n\n")
	if first == -1 || second == -1 || done == -1 {
		t.Fatalf("missing frames in body:\n%s", body)
	}
	if !(first < second && second < done) {
		t.Errorf("frames out of order:\n%s", body)
	}
	if !strings.Contains(body, "event: response.output_text.delta\ndata: ") {
		t.Errorf("event name line not forwarded before its data:\n%s", body)
	}
	if !stream.closed {
		t.Error("upstream stream not closed")
	}
}

func TestRelayDetectsCompletionMarkerPayload(t *testing.T) {
	stream := &scriptedStream{lines: []string{
		`data: {"type":"response.output_text.delta","delta":"Hej"}`,
		`data: {"type":"response.completed"}`,
		// Anything after completion must not be relayed.
		`data: {"type":"response.output_text.delta","delta":"spill"}`,
	}}
	rec := runRelay(t, context.Background(), stream)

	body := rec.Body.String()
	if !strings.Contains(body, "event: done\ndata: [DONE]\n\n") {
		t.Errorf("missing done event:\n%s", body)
	}
	if strings.Contains(body, "spill") {
		t.Errorf("relay continued past completion marker:\n%s", body)
	}
}

func TestRelayTurnsProviderErrorIntoSingleErrorEvent(t *testing.T) {
	stream := &scriptedStream{lines: []string{
		`data: {"type":"response.output_text.delta","delta":"Hej"}`,
		`data: {"type":"error","message":"model blew up"}`,
		`data: {"type":"response.output_text.delta","delta":"spill"}`,
	}}
	rec := runRelay(t, context.Background(), stream)

	body := rec.Body.String()
	if strings.Count(body, "event: error\n") != 1 {
		t.Errorf("expected exactly one error event:\n%s", body)
	}
	if !strings.Contains(body, `data: {"type":"error","message":"model blew up"}`) {
		t.Errorf("error event does not carry the payload:\n%s", body)
	}
	if strings.Contains(body, "event: done") {
		t.Errorf("done event emitted after provider error:\n%s", body)
	}
	if strings.Contains(body, "spill") {
		t.Errorf("relay continued past error marker:\n%s", body)
	}
}

func TestRelaySkipsMalformedLines(t *testing.T) {
	stream := &scriptedStream{lines: []string{
		"garbage line without a marker",
		`data: {"type":"response.output_text.delta","delta":"Hej"}`,
		"data: [DONE]",
	}}
	rec := runRelay(t, context.Background(), stream)

	body := rec.Body.String()
	if strings.Contains(body, "garbage") {
		t.Errorf("malformed line was forwarded:\n%s", body)
	}
	if !strings.Contains(body, `"delta":"Hej"`) || !strings.Contains(body, "event: done") {
		t.Errorf("relaying did not continue past malformed line:\n%s", body)
	}
}

func TestRelayCancellationIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream := &scriptedStream{lines: []string{`data: {"delta":"never"}`}}
	rec := runRelay(t, ctx, stream)

	if body := rec.Body.String(); body != "" {
		t.Errorf("expected no frames after cancellation, got:\n%s", body)
	}
	if !stream.closed {
		t.Error("upstream stream not closed on cancellation")
	}
}

func TestRelayCancelledReadIsSilent(t *testing.T) {
	stream := &scriptedStream{final: context.Canceled}
	rec := runRelay(t, context.Background(), stream)
	if body := rec.Body.String(); strings.Contains(body, "event: error") {
		t.Errorf("cancellation reported as error:\n%s", body)
	}
	if !stream.closed {
		t.Error("upstream stream not closed")
	}
}

func TestRelayReadFailureBecomesOneErrorEvent(t *testing.T) {
	stream := &scriptedStream{
		lines: []string{`data: {"type":"response.output_text.delta","delta":"partial"}`},
		final: errors.New("connection reset"),
	}
	rec := runRelay(t, context.Background(), stream)

	body := rec.Body.String()
	if !strings.Contains(body, `"delta":"partial"`) {
		t.Errorf("partial output not relayed before failure:\n%s", body)
	}
	if strings.Count(body, "event: error\n") != 1 {
		t.Errorf("expected exactly one error event:\n%s", body)
	}
	if strings.Contains(body, "event: done") {
		t.Errorf("done emitted after read failure:\n%s", body)
	}
}

func TestRelayEOFWithoutCompletionEndsSilently(t *testing.T) {
	stream := &scriptedStream{lines: []string{`data: {"type":"response.output_text.delta","delta":"Hej"}`}}
	rec := runRelay(t, context.Background(), stream)
	body := rec.Body.String()
	if strings.Contains(body, "event: done") || strings.Contains(body, "event: error") {
		t.Errorf("unexpected terminal event on bare EOF:\n%s", body)
	}
}
