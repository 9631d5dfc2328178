// Package chatclient is the Go client for the receptionist chat API.
//
// It mirrors the browser widget: a durable conversation session with a
// bounded compressed-context window, and a streaming ask that folds
// incremental deltas into the in-progress assistant message.
package chatclient

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/models"
	"github.com/google/uuid"
)

// MaxContextPairs bounds how many recent user/assistant pairs the
// compressed context may carry.
const MaxContextPairs = 8

// Session is an ordered, append-only log of exchanged messages with an
// explicit atomic reset. Every mutation is written through to storage.
type Session struct {
	mu       sync.Mutex
	storage  Storage
	messages []models.Message
}

// NewSession creates a session backed by the given storage, loading any
// previously persisted messages.
func NewSession(storage Storage) (*Session, error) {
	msgs, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &Session{storage: storage, messages: msgs}, nil
}

// Messages returns a copy of the session log in order.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Add appends a message and persists the session.
func (s *Session) Add(role models.MessageRole, content string) models.Message {
	msg := models.Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Ts:      time.Now().UnixMilli(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.persistLocked()
	return msg
}

// Replace updates the content of the message with the given id in place and
// returns the updated message. Used while a stream for that message is still
// open. An unknown id leaves the log untouched and returns a zero message.
func (s *Session) Replace(id, content string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			s.persistLocked()
			return s.messages[i]
		}
	}
	return models.Message{}
}

// Reset clears the session atomically.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return s.storage.Clear()
}

// persistLocked writes the current log through to storage. A storage
// failure never loses the in-memory session.
func (s *Session) persistLocked() {
	_ = s.storage.Save(s.messages)
}

// Context renders the compressed conversation context: the last
// MaxContextPairs user/assistant pairs as "User: …" / "Assistant: …" lines
// in chronological order. Pairing is by strict alternation; an assistant
// message without a preceding open user message starts a user-less pair.
func (s *Session) Context() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	type pair struct {
		user      string
		assistant string
	}
	var pairs []*pair
	var current *pair

	for _, m := range s.messages {
		switch m.Role {
		case models.RoleUser:
			current = &pair{user: m.Content}
			pairs = append(pairs, current)
		case models.RoleAssistant:
			if current == nil {
				current = &pair{}
				pairs = append(pairs, current)
			}
			current.assistant = m.Content
			current = nil
		}
	}

	if len(pairs) > MaxContextPairs {
		pairs = pairs[len(pairs)-MaxContextPairs:]
	}

	var lines []string
	for _, p := range pairs {
		if p.user != "" {
			lines = append(lines, "User: "+p.user)
		}
		if p.assistant != "" {
			lines = append(lines, "Assistant: "+p.assistant)
		}
	}
	return strings.Join(lines, "\n")
}

// composeQuestion prefixes the outgoing question with the compressed
// context when there is one.
func composeQuestion(context, question string) string {
	if context == "" {
		return question
	}
	return fmt.Sprintf("Previous conversation (compressed):\n%s\n\nNew question:\n%s", context, question)
}
