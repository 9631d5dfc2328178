// Package api provides the streaming chat handler.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Controlfox/InnoviaHub/internal/models"
	"github.com/Controlfox/InnoviaHub/internal/prompt"
	"github.com/Controlfox/InnoviaHub/internal/relay"
)

// chatStreamHandler serves GET /api/chat/stream?q=<question>&userId=<id>.
//
// It writes the event-stream headers and flushes before any content exists,
// then proxies the provider's stream frame by frame. Upstream failures after
// headers are sent become one terminal error event; a done event is only
// emitted when the provider completes.
func (s *Server) chatStreamHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.chatStreamHandler: processing stream request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	question := r.URL.Query().Get("q")
	if question == "" {
		http.Error(w, models.ErrEmptyQuestion.Error(), http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("userId")

	rel, err := relay.New(w)
	if err != nil {
		slog.Error("Server.chatStreamHandler: streaming unsupported", "error", err)
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	rel.Open()

	// Everything after Open goes out as stream events; the status line is
	// already committed.
	profile, err := s.lookupProfile(userID)
	if err != nil {
		if errors.Is(err, errInvalidUserID) {
			rel.WriteEvent(relay.EventError, err.Error())
			return
		}
		slog.Error("Server.chatStreamHandler: profile lookup failed", "error", err)
		rel.WriteEvent(relay.EventError, "Failed to load profile")
		return
	}

	systemPrompt := prompt.Compose(profile, s.facts.Digest(question))

	stream, err := s.ai.OpenStream(r.Context(), systemPrompt, question)
	if err != nil {
		_, msg := mapUpstreamError(err)
		slog.Error("Server.chatStreamHandler: provider stream failed to open", "error", err)
		rel.WriteEvent(relay.EventError, msg)
		return
	}

	slog.Debug("Server.chatStreamHandler: relaying provider stream", "user_set", userID != "")
	rel.Run(r.Context(), stream)
}
