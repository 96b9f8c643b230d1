package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/codemesh/core"
)

// Interface compliance (compile-time assertion)
var _ Client = (*Mock)(nil)

func TestMockCompletionQueue(t *testing.T) {
	m := NewMock()
	m.QueueCompletion("planner", "first", "second")

	ctx := context.Background()

	reply, err := m.Complete(ctx, "", nil, "planner")
	require.NoError(t, err)
	assert.Equal(t, "first", reply)

	reply, err = m.Complete(ctx, "", nil, "planner")
	require.NoError(t, err)
	assert.Equal(t, "second", reply)

	// Exhausted queues fall back to a canned reply instead of failing.
	reply, err = m.Complete(ctx, "", nil, "planner")
	require.NoError(t, err)
	assert.Equal(t, "mock reply from planner", reply)
}

func TestMockQueuesArePerParticipant(t *testing.T) {
	m := NewMock()
	m.QueueCompletion("planner", "the plan")
	m.QueueCompletion("coder", "the code")

	reply, err := m.Complete(context.Background(), "", nil, "coder")
	require.NoError(t, err)
	assert.Equal(t, "the code", reply)
}

func TestMockDecisionQueue(t *testing.T) {
	m := NewMock()
	m.QueueDecision("yes")

	verdict, err := m.Decide(context.Background(), nil, "done?")
	require.NoError(t, err)
	assert.Equal(t, "yes", verdict)

	// Exhausted decision queues yield the empty, unparseable verdict.
	verdict, err = m.Decide(context.Background(), nil, "done?")
	require.NoError(t, err)
	assert.Empty(t, verdict)
}

func TestMockDecideFuncOverride(t *testing.T) {
	m := NewMock()
	m.QueueDecision("ignored")
	m.DecideFunc = func(transcript []core.Message, prompt string) string {
		return "override"
	}

	verdict, err := m.Decide(context.Background(), nil, "done?")
	require.NoError(t, err)
	assert.Equal(t, "override", verdict)
}
