package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Controlfox/InnoviaHub/internal/models"
	"github.com/Controlfox/InnoviaHub/internal/prompt"
	"github.com/google/uuid"
)

// Fixed user-facing messages for upstream provider failures. The buffered
// endpoint returns them as plain-text bodies, the streaming endpoint as the
// payload of a terminal error event.
const (
	msgUpstreamAuth        = "The language model key is missing or invalid (401 from provider)."
	msgUpstreamRateLimited = "The language model is rate limited (429). Try again shortly."
	msgUpstreamUnavailable = "Could not reach the language model right now."
)

var errInvalidUserID = errors.New("userId must be a valid UUID")

func (s *Server) pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("chat alive"))
}

// chatHandler is the buffered (non-streaming) chat path: same composition,
// facts and provider call as the stream, but the answer comes back in one
// plain-text body once the provider has finished.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := s.lookupProfile(req.UserID)
	if err != nil {
		if errors.Is(err, errInvalidUserID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Server.chatHandler: profile lookup failed", "error", err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	systemPrompt := prompt.Compose(profile, s.facts.Digest(req.Question))

	answer, err := s.ai.Generate(r.Context(), systemPrompt, req.Question)
	if err != nil {
		status, msg := mapUpstreamError(err)
		slog.Error("Server.chatHandler: provider call failed", "error", err, "status", status)
		http.Error(w, msg, status)
		return
	}

	slog.Info("Server.chatHandler: answer generated", "user_set", req.UserID != "", "answer_len", len(answer))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(answer))
}

// mapUpstreamError maps the provider failure taxonomy to the outward status
// code and fixed message of the buffered endpoint.
func mapUpstreamError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrUpstreamAuth):
		return http.StatusBadGateway, msgUpstreamAuth
	case errors.Is(err, models.ErrUpstreamRateLimited):
		return http.StatusServiceUnavailable, msgUpstreamRateLimited
	default:
		return http.StatusBadGateway, msgUpstreamUnavailable
	}
}

// lookupProfile loads the stored profile for userID, validating the ID. An
// empty userID or a user without a profile yields nil (composer defaults).
func (s *Server) lookupProfile(userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, errInvalidUserID
	}
	return s.st.GetProfile(userID)
}

// profileHandler serves GET and PUT /api/aiprofile/{userId}.
func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/aiprofile/")
	if userID == "" || strings.Contains(userID, "/") {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Profile not found"))
		return
	}
	if _, err := uuid.Parse(userID); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(errInvalidUserID.Error()))
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getProfile(w, userID)
	case http.MethodPut:
		s.upsertProfile(w, r, userID)
	default:
		w.Header().Set("Allow", "GET, PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) getProfile(w http.ResponseWriter, userID string) {
	p, err := s.st.GetProfile(userID)
	if err != nil {
		slog.Error("Server.getProfile: store lookup failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load profile"))
		return
	}
	if p == nil {
		// Unknown users get the fixed defaults, not a 404.
		defaults := models.DefaultProfile(userID)
		writeJSONResponse(w, http.StatusOK, models.Success(defaults))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(p))
}

func (s *Server) upsertProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		slog.Warn("Server.upsertProfile: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if p.UserID != "" && p.UserID != userID {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrUserIDMismatch.Error()))
		return
	}
	p.UserID = userID

	saved, err := s.st.UpsertProfile(p)
	if err != nil {
		slog.Error("Server.upsertProfile: store upsert failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save profile"))
		return
	}
	slog.Info("Server.upsertProfile: profile saved", "user_id", userID)
	writeJSONResponse(w, http.StatusOK, models.Success(saved))
}
