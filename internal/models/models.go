// Package models defines the core data structures for the InnoviaHub
// receptionist service.
//
// It includes the per-user assistant profile, resource bookings, chat
// messages, and the API request/response envelopes shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	// RoleUser marks a message written by the end user.
	RoleUser MessageRole = "user"
	// RoleAssistant marks a message produced by the receptionist.
	RoleAssistant MessageRole = "assistant"
)

// Profile defaults applied when a field is absent or blank.
const (
	// DefaultTone is the fallback tone label for profiles without one.
	DefaultTone = "neutral"
	// DefaultStyle is the fallback answer style for profiles without one.
	DefaultStyle = "concise"
	// MinEmojiLevel and MaxEmojiLevel bound the stored emoji level.
	MinEmojiLevel = 0
	MaxEmojiLevel = 3
)

// Validation constants for input validation
const (
	// MaxQuestionLength defines the maximum allowed length for a chat question,
	// including any prepended conversation context.
	MaxQuestionLength = 8192
)

// Error variables for better error handling and testability
var (
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrQuestionTooLong = errors.New("question exceeds maximum length")
	ErrUserIDMismatch  = errors.New("userId in body does not match URL")

	// Upstream provider failure taxonomy. The streaming relay and the
	// buffered chat handler map these to distinct outward signals.
	ErrUpstreamAuth        = errors.New("upstream provider rejected credentials")
	ErrUpstreamRateLimited = errors.New("upstream provider rate limited the request")
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
)

// Profile holds the per-user receptionist personality settings.
// Tone and Style fall back to DefaultTone/DefaultStyle when blank, and
// Emoji is always clamped to [MinEmojiLevel, MaxEmojiLevel]; Normalize
// enforces both before a profile is stored.
type Profile struct {
	UserID        string    `json:"userId"`
	AssistantName string    `json:"assistantName,omitempty"`
	Tone          string    `json:"tone"`
	Style         string    `json:"style"`
	Emoji         int       `json:"emoji"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Normalize applies the profile invariants in place: blank tone/style fall
// back to the fixed defaults and the emoji level is clamped to [0,3].
func (p *Profile) Normalize() {
	if strings.TrimSpace(p.Tone) == "" {
		p.Tone = DefaultTone
	}
	if strings.TrimSpace(p.Style) == "" {
		p.Style = DefaultStyle
	}
	if p.Emoji < MinEmojiLevel {
		p.Emoji = MinEmojiLevel
	}
	if p.Emoji > MaxEmojiLevel {
		p.Emoji = MaxEmojiLevel
	}
}

// DefaultProfile returns the profile served for users without a stored one.
func DefaultProfile(userID string) Profile {
	return Profile{
		UserID: userID,
		Tone:   DefaultTone,
		Style:  DefaultStyle,
		Emoji:  MinEmojiLevel,
	}
}

// Booking is a single resource reservation. Read-only input to the fact
// aggregator; owned by the booking store.
type Booking struct {
	ID         int64     `json:"id,omitempty"`
	ResourceID string    `json:"resourceId"`
	StartTime  time.Time `json:"startTime"`
}

// Message is one entry in a conversation session. Content may grow while a
// stream for the message is still open; it is immutable once the stream
// terminates.
type Message struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	Ts      int64       `json:"ts"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId,omitempty"`
}

// Validate checks the chat request invariants.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(r.Question) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	return nil
}

// API Response types for consistent JSON responses

// APIStatus represents the status field of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
