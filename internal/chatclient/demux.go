package chatclient

import (
	"bufio"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// Server event names the demultiplexer understands, per the provider's
// documented stream contract relayed by the server.
const (
	eventDelta     = "response.output_text.delta"
	eventFullText  = "response.output_text.done"
	eventCompleted = "response.completed"
	eventDone      = "done"
	eventError     = "error"
)

// sseFrame is one parsed server-sent event: an optional event name and the
// data payload.
type sseFrame struct {
	name string
	data string
}

// readFrames scans an event-stream body and invokes handle for each frame
// (dispatched at the blank line that terminates it). It stops when handle
// reports the stream is terminal, and returns any read error otherwise.
func readFrames(r io.Reader, handle func(sseFrame) bool) (terminated bool, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var frame sseFrame
	flush := func() bool {
		if frame.data == "" && frame.name == "" {
			return false
		}
		done := handle(frame)
		frame = sseFrame{}
		return done
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if flush() {
				return true, nil
			}
		case strings.HasPrefix(line, "event:"):
			frame.name = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(line[len("data:"):])
			if frame.data != "" {
				frame.data += "\n"
			}
			frame.data += data
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	// Dispatch a trailing frame that was not blank-line terminated.
	return flush(), nil
}

// demux folds incoming frames into the accumulation buffer for one
// question.
type demux struct {
	buffer  string
	failure string
}

// apply folds one frame. It reports whether the buffer changed and whether
// the frame was terminal.
func (d *demux) apply(f sseFrame) (changed, terminal bool) {
	switch f.name {
	case eventDelta:
		if delta := gjson.Get(f.data, "delta"); delta.Type == gjson.String {
			d.buffer += delta.Str
			return true, false
		}
		return false, false
	case eventFullText:
		// Idempotent correction: the full text replaces the buffer wholesale.
		if text := gjson.Get(f.data, "text"); text.Type == gjson.String {
			d.buffer = text.Str
			return true, false
		}
		return false, false
	case eventDone, eventCompleted:
		return false, true
	case eventError:
		d.failure = f.data
		return false, true
	case "":
		// Unnamed data frame: the generic onmessage shape.
		if delta := gjson.Get(f.data, "delta"); delta.Type == gjson.String {
			d.buffer += delta.Str
			changed = true
		}
		if gjson.Get(f.data, "type").String() == eventCompleted {
			return changed, true
		}
		return changed, false
	default:
		// Unknown named event: ignore and keep listening.
		return false, false
	}
}
