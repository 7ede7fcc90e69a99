package core

import (
	"context"
	"time"
)

// Agent turns a prompt into generated text by calling a model endpoint.
type Agent interface {
	Generate(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

// Poster publishes text to a social platform.
type Poster interface {
	// ID returns a stable identifier (e.g., "x", "nostr").
	ID() string
	// Post submits a standalone post, or a reply when req.ReplyTo is set.
	Post(ctx context.Context, req PostRequest) (PostReceipt, error)
}

// Observer receives lifecycle events from the generation pipeline.
type Observer interface {
	AttemptStarted(attempt, max int)
	AttemptFailed(attempt int, kind Kind, err error)
	Backoff(attempt int, wait time.Duration)
	Succeeded(attempt int, shape Shape, length int)
	Failed(kind Kind)
}

// HistorySink records finished generation results.
type HistorySink interface {
	AppendGeneration(rec GenerationRecord) error
}

// GenerationRequest carries the inputs of one reply generation.
type GenerationRequest struct {
	OriginalText string `json:"original_text"`
	AuthorHandle string `json:"author_handle"`
	Model        string `json:"model"`
	APIBase      string `json:"api_base"`
	APIKey       string `json:"-"`
}

// GenerationResult is the outcome handed back to the caller.
type GenerationResult struct {
	Success       bool   `json:"success"`
	Text          string `json:"text,omitempty"`
	ErrorMessage  string `json:"error,omitempty"`
	LengthWarning string `json:"length_warning,omitempty"`
	Kind          Kind   `json:"kind,omitempty"`
	Attempts      int    `json:"attempts"`
	Shape         Shape  `json:"shape,omitempty"`
}

// GenerationRecord is a history entry for a finished generation.
type GenerationRecord struct {
	At       time.Time        `json:"at"`
	Author   string           `json:"author"`
	Model    string           `json:"model"`
	Preset   string           `json:"preset"`
	Result   GenerationResult `json:"result"`
	Original string           `json:"original"`
}

// AgentRequest is what an Agent sends to the model.
type AgentRequest struct {
	System  string `json:"system,omitempty"`
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
	APIBase string `json:"api_base"`
	APIKey  string `json:"-"`
}

// AgentResponse is produced by the agent.
type AgentResponse struct {
	Text  string `json:"text"`
	Shape Shape  `json:"shape,omitempty"`
}

// Shape names which response variant the text was extracted from.
type Shape string

const (
	ShapeModern Shape = "choices"
	ShapeLegacy Shape = "output"
)

// Credentials are the four secrets of an OAuth1 posting account.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// PostRequest is a post or reply to publish.
type PostRequest struct {
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// PostReceipt describes a published post.
type PostReceipt struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}
