package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// ErrStreamInterrupted reports that a streamed answer terminated with an
// error event or a transport failure. Any partial answer text already
// received is kept in the session.
var ErrStreamInterrupted = errors.New("chatclient: stream interrupted")

// streamErrorText is shown to the user when a streamed answer fails before
// any text arrives.
const streamErrorText = "The stream was interrupted or an error occurred."

// Opts holds the client configuration options.
type Opts struct {
	// BaseURL is the server address, e.g. "http://localhost:8080".
	BaseURL string

	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client
}

// Option configures the chat client.
type Option func(*Opts)

// WithBaseURL sets the server base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *Opts) { o.BaseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client talks to the chat endpoints on behalf of one user session. At most
// one streamed question is in flight at a time; asking again abandons the
// previous stream.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session

	mu           sync.Mutex
	cancelActive context.CancelFunc
}

// NewClient creates a chat client bound to the given session.
func NewClient(session *Session, options ...Option) (*Client, error) {
	opts := Opts{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("chatclient: base URL is required")
	}
	if opts.HTTPClient == nil {
		// No client timeout: streamed answers stay open until done.
		opts.HTTPClient = &http.Client{}
	}
	if session == nil {
		return nil, fmt.Errorf("chatclient: session is required")
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		session: session,
	}, nil
}

// Session returns the session backing this client.
func (c *Client) Session() *Session { return c.session }

// Ask sends a question through the buffered chat endpoint and returns the
// assistant's answer. The question and the answer are both recorded in the
// session, and the compressed conversation context is folded into the
// outgoing question.
func (c *Client) Ask(ctx context.Context, question, userID string) (models.Message, error) {
	c.session.Add(models.RoleUser, question)
	composed := composeQuestion(c.session.Context(), question)

	body, err := json.Marshal(models.ChatRequest{Question: composed, UserID: userID})
	if err != nil {
		return models.Message{}, fmt.Errorf("chatclient: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return models.Message{}, fmt.Errorf("chatclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		msg := c.session.Add(models.RoleAssistant, streamErrorText)
		return msg, fmt.Errorf("chatclient: send question: %w", err)
	}
	defer resp.Body.Close()

	answer, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		msg := c.session.Add(models.RoleAssistant, streamErrorText)
		return msg, fmt.Errorf("chatclient: read answer: %w", readErr)
	}
	text := strings.TrimSpace(string(answer))
	if resp.StatusCode != http.StatusOK {
		if text == "" {
			text = streamErrorText
		}
		msg := c.session.Add(models.RoleAssistant, text)
		return msg, fmt.Errorf("chatclient: server returned %d", resp.StatusCode)
	}
	return c.session.Add(models.RoleAssistant, text), nil
}

// AskStream sends a question through the streaming chat endpoint. The
// assistant message grows as text deltas arrive; onUpdate, when non-nil, is
// invoked with the message after every change. Asking while a previous
// stream is still open abandons that stream first.
//
// On an error event or a transport failure the partial answer already
// received stays in the session and ErrStreamInterrupted is returned.
func (c *Client) AskStream(ctx context.Context, question, userID string, onUpdate func(models.Message)) (models.Message, error) {
	ctx, cancel := context.WithCancel(ctx)
	c.abandonActive(cancel)
	defer cancel()

	c.session.Add(models.RoleUser, question)
	composed := composeQuestion(c.session.Context(), question)
	answer := c.session.Add(models.RoleAssistant, "")

	query := url.Values{}
	query.Set("q", composed)
	query.Set("userId", userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat/stream?"+query.Encode(), nil)
	if err != nil {
		return answer, fmt.Errorf("chatclient: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.failStream(answer, onUpdate), ErrStreamInterrupted
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.failStream(answer, onUpdate), ErrStreamInterrupted
	}

	var d demux
	terminated, readErr := readFrames(resp.Body, func(f sseFrame) bool {
		changed, terminal := d.apply(f)
		if changed {
			answer = c.session.Replace(answer.ID, d.buffer)
			if onUpdate != nil {
				onUpdate(answer)
			}
		}
		return terminal
	})
	if readErr != nil || !terminated || d.failure != "" {
		if ctx.Err() != nil {
			// Abandoned by a newer question or caller cancellation.
			return answer, ctx.Err()
		}
		return c.failStream(answer, onUpdate), ErrStreamInterrupted
	}
	return answer, nil
}

// failStream records the failure in the assistant message. Partial text is
// kept; the error note only replaces an answer that never started.
func (c *Client) failStream(answer models.Message, onUpdate func(models.Message)) models.Message {
	if answer.Content == "" {
		answer = c.session.Replace(answer.ID, streamErrorText)
	}
	if onUpdate != nil {
		onUpdate(answer)
	}
	return answer
}

// abandonActive cancels any stream still open from a previous question and
// records the new stream's cancel func. Cancelling an already-finished
// stream is harmless.
func (c *Client) abandonActive(cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelActive != nil {
		c.cancelActive()
	}
	c.cancelActive = cancel
}
