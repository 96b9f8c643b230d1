package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(author, content string) Message {
	return Message{ID: NewID(), Role: RoleAgent, Author: author, Content: content}
}

func TestTranscriptAppendAndRead(t *testing.T) {
	tr := NewTranscript()
	assert.Equal(t, 0, tr.Len())

	_, ok := tr.Last()
	assert.False(t, ok)

	tr.Append(msg("AnalysisAgent", "first"))
	tr.Append(msg("ImplementationAgent", "second"))

	require.Equal(t, 2, tr.Len())

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)

	// Mutating the copy must not affect the transcript.
	msgs[0].Content = "mutated"
	assert.Equal(t, "first", tr.Messages()[0].Content)
}

func TestTranscriptTail(t *testing.T) {
	tr := NewTranscript()
	for _, c := range []string{"a", "b", "c", "d"} {
		tr.Append(msg("AnalysisAgent", c))
	}

	tail := tr.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "c", tail[0].Content)
	assert.Equal(t, "d", tail[1].Content)

	assert.Len(t, tr.Tail(0), 4)
	assert.Len(t, tr.Tail(10), 4)
}

func TestTranscriptRender(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Role: RoleUser, Author: "user", Content: "add retries"})
	tr.Append(msg("AnalysisAgent", "plan complete"))

	rendered := tr.Render()
	assert.Equal(t, "user: add retries\nAnalysisAgent: plan complete", rendered)
}

func TestTranscriptConcurrentAppend(t *testing.T) {
	tr := NewTranscript()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Append(msg("AnalysisAgent", "turn"))
			_ = tr.Len()
			_, _ = tr.Last()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Len())
}
