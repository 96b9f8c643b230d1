package testutil

import (
	"github.com/hupe1980/codemesh/core"
)

// TranscriptBuilder provides a fluent helper for constructing transcripts in
// tests. Example:
//
//	tr := NewTranscriptBuilder().User("add retries").Agent("AnalysisAgent", "plan complete").Build()
//
// Chain only the turns you need; IDs are generated automatically.
type TranscriptBuilder struct {
	messages []core.Message
}

// NewTranscriptBuilder creates an empty builder.
func NewTranscriptBuilder() *TranscriptBuilder { return &TranscriptBuilder{} }

// User appends a user turn (chainable).
func (b *TranscriptBuilder) User(content string) *TranscriptBuilder {
	b.messages = append(b.messages, Message(core.RoleUser, "user", content))
	return b
}

// Agent appends an agent turn attributed to author (chainable).
func (b *TranscriptBuilder) Agent(author, content string) *TranscriptBuilder {
	b.messages = append(b.messages, Message(core.RoleAgent, author, content))
	return b
}

// System appends a system turn (chainable).
func (b *TranscriptBuilder) System(content string) *TranscriptBuilder {
	b.messages = append(b.messages, Message(core.RoleSystem, "system", content))
	return b
}

// Build materializes the transcript.
func (b *TranscriptBuilder) Build() *core.Transcript {
	tr := core.NewTranscript()
	for _, msg := range b.messages {
		tr.Append(msg)
	}
	return tr
}

// Message constructs a single message with a generated ID.
func Message(role core.Role, author, content string) core.Message {
	return core.Message{
		ID:      core.NewID(),
		Role:    role,
		Author:  author,
		Content: content,
	}
}
