package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*WorkflowLogger)(nil)
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferLogger(buf *bytes.Buffer, level LogLevel) *WorkflowLogger {
	return NewLogger(&LoggerConfig{
		Level:     level,
		Format:    "json",
		Output:    buf,
		Component: "engine",
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestWorkflowLoggerKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug)

	l.Info("step executed", "step", "IntakeStep", "function", "ValidateRequirement")

	out := buf.String()
	assert.Contains(t, out, `"msg":"step executed"`)
	assert.Contains(t, out, `"step":"IntakeStep"`)
	assert.Contains(t, out, `"function":"ValidateRequirement"`)
	assert.Contains(t, out, `"component":"engine"`)
}

func TestWorkflowLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestWorkflowLoggerContextualClones(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf, LogLevelDebug)
	child := parent.WithSession("session-7").WithContext("run", 2)

	child.Info("instance resumed")

	out := buf.String()
	assert.Contains(t, out, `"session_id":"session-7"`)
	assert.Contains(t, out, `"run":2`)

	// The clone must not leak attributes back into the parent.
	buf.Reset()
	parent.Info("fresh")
	assert.NotContains(t, buf.String(), "session_id")
}

func TestLogStepExecution(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug)

	l.LogStepExecution("EnvironmentStep", "Provision", 42*time.Millisecond, nil)
	require.Contains(t, buf.String(), `"msg":"step executed"`)

	buf.Reset()
	l.LogStepExecution("EnvironmentStep", "Provision", time.Millisecond, errors.New("image pull failed"))
	out := buf.String()
	assert.Contains(t, out, `"msg":"step execution failed"`)
	assert.Contains(t, out, "image pull failed")
	assert.Contains(t, out, `"level":"ERROR"`)
}

func TestLogDecision(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug)

	l.LogDecision("selection", "CoderAgent", "CoderAgent", false)
	assert.Contains(t, buf.String(), `"msg":"strategy decision"`)

	buf.Reset()
	l.LogDecision("termination", "garbled", "continue", true)
	out := buf.String()
	assert.Contains(t, out, "fell back to default")
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"fallback":true`)
}

func TestLogNotification(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug)

	l.LogNotification("WORKFLOW_UPDATE", nil)
	assert.Contains(t, buf.String(), `"msg":"external notification delivered"`)

	buf.Reset()
	l.LogNotification("WORKFLOW_UPDATE", errors.New("peer gone"))
	out := buf.String()
	assert.Contains(t, out, `"msg":"external notification dropped"`)
	assert.Contains(t, out, "peer gone")
}

func TestErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug)

	l.ErrorWithStack(errors.New("boom"), "step panicked")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "stack_trace")
}

func TestStartTimer(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelDebug)

	done := l.StartTimer("provision")
	done()

	out := buf.String()
	assert.Contains(t, out, `"msg":"operation completed"`)
	assert.Contains(t, out, `"operation":"provision"`)
}

func TestHelpersFallBackToPlainLogger(t *testing.T) {
	// The package helpers must work against any Logger, not only the
	// WorkflowLogger fast path.
	var buf bytes.Buffer
	base := newBufferLogger(&buf, LogLevelDebug)
	var plain Logger = &SlogAdapter{Logger: base.logger}

	StepExecution(plain, "CodingStep", "RunGroup", time.Second, nil)
	Decision(plain, "selection", "AnalysisAgent", "AnalysisAgent", false)
	Notification(plain, "GroupCompleted", nil)

	out := buf.String()
	assert.Contains(t, out, `"msg":"step executed"`)
	assert.Contains(t, out, `"msg":"strategy decision"`)
	assert.Contains(t, out, `"msg":"external notification delivered"`)
}

func TestTextFormatHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})

	l.Info("engine started", "workers", 8)

	out := buf.String()
	assert.Contains(t, out, "engine started")
	assert.Contains(t, out, "workers=8")
}
