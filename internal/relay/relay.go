// Package relay forwards a live provider event stream to the browser as
// server-sent events.
//
// Each request runs one relay through the states Opening (SSE headers
// written and flushed), Relaying (upstream lines re-emitted as outbound
// frames) and Terminated (a final done or error event has been sent, or the
// client went away). Frames go out strictly in upstream arrival order and
// every write is flushed so no token sits in a buffer.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Controlfox/InnoviaHub/internal/genai"
	"github.com/tidwall/gjson"
)

// Wire markers of the provider event stream.
const (
	eventMarker  = "event:"
	dataMarker   = "data: "
	doneSentinel = "[DONE]"

	// EventDone and EventError are the terminal outbound event names.
	EventDone  = "done"
	EventError = "error"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// interruptedMessage is the payload of the error event emitted when the
// upstream stream fails mid-relay.
const interruptedMessage = "The answer stream was interrupted."

type state int

const (
	stateOpening state = iota
	stateRelaying
	stateTerminated
)

// Relay writes server-sent events for one request.
type Relay struct {
	w       http.ResponseWriter
	flusher http.Flusher
	state   state
}

// New prepares a relay for the given response writer. It fails if the
// writer cannot be flushed, since unflushed SSE would buffer forever.
func New(w http.ResponseWriter) (*Relay, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Relay{w: w, flusher: flusher}, nil
}

// Open writes the persistent-connection headers and flushes them so the
// client can begin listening before any content exists.
func (r *Relay) Open() {
	h := r.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx must not buffer the stream
	r.w.WriteHeader(http.StatusOK)
	r.flusher.Flush()
}

// WriteEvent emits one named frame followed by a blank line, then flushes.
func (r *Relay) WriteEvent(name, data string) {
	fmt.Fprintf(r.w, "event: %s\ndata: %s\n\n", name, data)
	r.flusher.Flush()
}

// WriteData emits one unnamed data frame followed by a blank line, then
// flushes.
func (r *Relay) WriteData(payload string) {
	fmt.Fprintf(r.w, "data: %s\n\n", payload)
	r.flusher.Flush()
}

// writeEventName forwards an upstream "event: <name>" line as-is. The data
// line that follows it completes the frame.
func (r *Relay) writeEventName(line string) {
	fmt.Fprintf(r.w, "%s\n", line)
	r.flusher.Flush()
}

// Run drives the upstream stream until a terminal marker, stream end,
// cancellation, or failure. It never returns an error to the caller: a
// client disconnect ends the relay silently and any other failure is
// converted into exactly one terminal error event.
func (r *Relay) Run(ctx context.Context, stream genai.Stream) {
	defer stream.Close()
	r.state = stateRelaying

	for {
		if ctx.Err() != nil {
			slog.Debug("Relay.Run: client disconnected, aborting upstream read")
			r.state = stateTerminated
			return
		}

		line, err := stream.Next()
		if err == io.EOF {
			// Upstream closed without a completion marker. The client's
			// connection-level error handling owns this case.
			r.state = stateTerminated
			return
		}
		if err != nil {
			r.state = stateTerminated
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Debug("Relay.Run: upstream read aborted by cancellation")
				return
			}
			slog.Error("Relay.Run: upstream read failed", "error", err)
			r.WriteEvent(EventError, interruptedMessage)
			return
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, eventMarker):
			r.writeEventName(line)
		case strings.HasPrefix(line, dataMarker):
			payload := strings.TrimSpace(line[len(dataMarker):])
			if r.relayPayload(payload) {
				r.state = stateTerminated
				return
			}
		default:
			// Unparseable frame: skip it and keep relaying.
			slog.Debug("Relay.Run: skipping malformed upstream line")
		}
	}
}

// relayPayload forwards one data payload and inspects it for provider-level
// completion or error markers. It reports whether the relay is done.
func (r *Relay) relayPayload(payload string) bool {
	if payload == doneSentinel {
		r.WriteEvent(EventDone, doneSentinel)
		return true
	}

	switch gjson.Get(payload, "type").String() {
	case "error", "response.failed":
		r.WriteEvent(EventError, payload)
		return true
	case "response.completed":
		r.WriteData(payload)
		r.WriteEvent(EventDone, doneSentinel)
		return true
	default:
		r.WriteData(payload)
		return false
	}
}
