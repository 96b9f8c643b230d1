// Package model defines the narrow language-model collaborator boundary the
// workflow engine depends on. The engine treats both operations as black
// boxes returning text; all parsing and fallback logic lives in the group
// strategies, not here. Provider adapters live in the openai and anthropic
// subpackages; Mock provides a deterministic scripted collaborator for tests.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/codemesh/core"
)

// Completer produces the next reply text for a participant acting on the
// given transcript. Instructions carry the participant's system prompt.
type Completer interface {
	Complete(ctx context.Context, instructions string, transcript []core.Message, participant string) (string, error)
}

// Decider evaluates a decision prompt against the transcript and returns the
// raw textual verdict. Callers own the strict, fail-closed parsing.
type Decider interface {
	Decide(ctx context.Context, transcript []core.Message, prompt string) (string, error)
}

// Client bundles both collaborator operations; every provider adapter
// implements it.
type Client interface {
	Completer
	Decider
}

// Mock is a deterministic, scripted Client for tests and examples. Replies
// are consumed in FIFO order per participant; decisions from a shared queue.
// Safe for concurrent use.
type Mock struct {
	mu          sync.Mutex
	completions map[string][]string
	decisions   []string

	// DecideFunc, when set, overrides the queued decisions.
	DecideFunc func(transcript []core.Message, prompt string) string
}

// NewMock returns an empty scripted client.
func NewMock() *Mock {
	return &Mock{completions: map[string][]string{}}
}

// QueueCompletion appends canned replies for a participant.
func (m *Mock) QueueCompletion(participant string, replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions[participant] = append(m.completions[participant], replies...)
}

// QueueDecision appends canned decision verdicts.
func (m *Mock) QueueDecision(verdicts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, verdicts...)
}

// Complete implements Completer by popping the participant's reply queue.
func (m *Mock) Complete(_ context.Context, _ string, _ []core.Message, participant string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.completions[participant]
	if len(queue) == 0 {
		return fmt.Sprintf("mock reply from %s", participant), nil
	}
	reply := queue[0]
	m.completions[participant] = queue[1:]
	return reply, nil
}

// Decide implements Decider by popping the decision queue (or delegating to
// DecideFunc when set). An exhausted queue yields an empty verdict, which
// strategy parsers must treat as unparseable.
func (m *Mock) Decide(_ context.Context, transcript []core.Message, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DecideFunc != nil {
		return m.DecideFunc(transcript, prompt), nil
	}
	if len(m.decisions) == 0 {
		return "", nil
	}
	verdict := m.decisions[0]
	m.decisions = m.decisions[1:]
	return verdict, nil
}
