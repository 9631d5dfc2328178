package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// Scanner buffer sizing for upstream lines. A single data line carries one
// provider event payload and can be large for long answers.
const (
	initialLineBuffer = 64 * 1024
	maxLineBuffer     = 1024 * 1024
)

// Stream is a live sequence of raw provider event-stream lines.
// Next returns io.EOF when the upstream closes the stream.
type Stream interface {
	Next() (string, error)
	Close() error
}

// streamRequest is the Responses API request shape with incremental output.
type streamRequest struct {
	Model  string         `json:"model"`
	Stream bool           `json:"stream"`
	Input  []inputMessage `json:"input"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// httpStream reads raw lines off an open response body.
type httpStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (s *httpStream) Next() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *httpStream) Close() error {
	return s.body.Close()
}

// OpenStream opens one streaming call to the provider and returns its body
// as a line sequence. The body is consumed as soon as headers arrive; it is
// never buffered to completion, since a live session has no buffered end.
// Cancelling ctx aborts the read and closes the connection.
func (c *Client) OpenStream(ctx context.Context, systemPrompt, userPrompt string) (Stream, error) {
	payload, err := json.Marshal(streamRequest{
		Model:  c.model,
		Stream: true,
		Input: []inputMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorBody(resp.Body)
		resp.Body.Close()
		slog.Warn("Client.OpenStream: provider returned non-success status", "status", resp.StatusCode)
		return nil, classifyStatus(resp.StatusCode, detail)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBuffer)
	return &httpStream{body: resp.Body, scanner: scanner}, nil
}
