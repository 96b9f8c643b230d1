package core

import (
	"strings"
	"sync"
	"time"
)

// Role categorizes the author of a transcript message.
type Role string

const (
	// RoleUser marks messages originating from the requesting user.
	RoleUser Role = "user"
	// RoleAgent marks messages produced by a participating agent.
	RoleAgent Role = "agent"
	// RoleSystem marks engine or policy generated messages.
	RoleSystem Role = "system"
)

// Message is a single, immutable transcript entry. Ordering within a
// transcript is arrival order.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage constructs a message with a fresh id and UTC timestamp.
func NewMessage(role Role, author, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Transcript is the append-only, ordered conversation shared by the steps of
// one workflow instance and read by the turn-taking policies. It is safe for
// concurrent access; readers receive copies.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript { return &Transcript{} }

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
}

// Messages returns a copy of the full message list.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len reports the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message and true, or a zero message and false
// when the transcript is empty.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Tail returns a copy of at most n trailing messages. Policies that reduce
// the transcript before a decision call use this instead of Messages.
func (t *Transcript) Tail(n int) []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n <= 0 || n >= len(t.messages) {
		out := make([]Message, len(t.messages))
		copy(out, t.messages)
		return out
	}
	out := make([]Message, n)
	copy(out, t.messages[len(t.messages)-n:])
	return out
}

// Render flattens the transcript into a "author: content" per line textual
// form suitable for feeding decision prompts.
func (t *Transcript) Render() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	for i, m := range t.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Author)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
