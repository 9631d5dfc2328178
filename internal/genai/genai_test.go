package genai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

func newTestClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(WithAPIKey("test-key"), WithBaseURL(ts.URL), WithModel("gpt-test"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestGenerateReturnsAnswer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hej! Vi har öppet 08:00-18:00."}}]}`)
	}))
	defer ts.Close()

	answer, err := newTestClient(t, ts).Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Hej! Vi har öppet 08:00-18:00." {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestGenerateClassifiesProviderFailures(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, models.ErrUpstreamAuth},
		{http.StatusTooManyRequests, models.ErrUpstreamRateLimited},
		{http.StatusInternalServerError, models.ErrUpstreamUnavailable},
	}
	for _, c := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			fmt.Fprint(w, `{"error":{"message":"nope"}}`)
		}))
		_, err := newTestClient(t, ts).Generate(context.Background(), "s", "u")
		ts.Close()
		if !errors.Is(err, c.want) {
			t.Errorf("status %d: got %v, want %v", c.status, err, c.want)
		}
	}
}

func TestOpenStreamClassifiesProviderFailures(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, models.ErrUpstreamAuth},
		{http.StatusTooManyRequests, models.ErrUpstreamRateLimited},
		{http.StatusBadGateway, models.ErrUpstreamUnavailable},
	}
	for _, c := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			fmt.Fprint(w, "provider says no")
		}))
		_, err := newTestClient(t, ts).OpenStream(context.Background(), "s", "u")
		ts.Close()
		if !errors.Is(err, c.want) {
			t.Errorf("status %d: got %v, want %v", c.status, err, c.want)
		}
	}
}

func TestOpenStreamYieldsLinesBeforeBodyCompletes(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("unexpected Accept header %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "event: response.output_text.delta\n")
		fmt.Fprint(w, "data: {\"delta\":\"Hej\"}\n\n")
		flusher.Flush()
		// Hold the body open until the client has consumed the first frame.
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer ts.Close()

	stream, err := newTestClient(t, ts).OpenStream(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	line, err := stream.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "event: response.output_text.delta" {
		t.Errorf("unexpected first line %q", line)
	}
	line, err = stream.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != `data: {"delta":"Hej"}` {
		t.Errorf("unexpected second line %q", line)
	}
	// First frame arrived while the upstream body was still open.
	close(release)

	var lines []string
	for {
		line, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 || lines[len(lines)-1] != "data: [DONE]" {
		t.Errorf("expected trailing [DONE] line, got %v", lines)
	}
}

func TestOpenStreamCancellationAbortsRead(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		// Never send another byte; the client context cancels the read.
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := newTestClient(t, ts).OpenStream(ctx, "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	cancel()
	if _, err := stream.Next(); err == nil {
		t.Error("expected read to fail after cancellation")
	}
}
