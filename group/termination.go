package group

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/model"
)

// TerminationStrategy decides, after every full turn, whether the
// sub-conversation is complete. The contract is binary; the caller enforces
// the hard iteration ceiling independently of the strategy's judgment.
type TerminationStrategy interface {
	ShouldTerminate(ctx context.Context, transcript *core.Transcript) bool
}

// PhraseTermination terminates when the last transcript message ends with
// the configured completion phrase (case-insensitive, trailing punctuation
// and whitespace ignored).
type PhraseTermination struct {
	Phrase string
	// Authors optionally restricts which authors' messages count. Empty
	// means any author.
	Authors []string
}

// NewPhraseTermination builds a phrase-suffix termination strategy.
func NewPhraseTermination(phrase string, authors ...string) *PhraseTermination {
	return &PhraseTermination{Phrase: phrase, Authors: authors}
}

// ShouldTerminate implements TerminationStrategy.
func (t *PhraseTermination) ShouldTerminate(_ context.Context, transcript *core.Transcript) bool {
	last, ok := transcript.Last()
	if !ok {
		return false
	}
	if len(t.Authors) > 0 {
		allowed := false
		for _, a := range t.Authors {
			if a == last.Author {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	content := strings.ToLower(strings.TrimRight(strings.TrimSpace(last.Content), ".!?"))
	return strings.HasSuffix(content, strings.ToLower(t.Phrase))
}

// ModelTerminationOptions configure a ModelTermination strategy.
type ModelTerminationOptions struct {
	// Prompt is the decision prompt handed to the Decider.
	Prompt string
	// HistoryWindow truncates the transcript before the decision call.
	// Zero means the full transcript.
	HistoryWindow int
	// Logger receives fallback warnings.
	Logger logging.Logger
}

// ModelTermination asks an external Decider whether the conversation is
// complete. The verdict parser fails closed: anything unparseable means
// "continue", and the iteration ceiling still bounds the loop.
type ModelTermination struct {
	decider model.Decider
	opts    ModelTerminationOptions
}

// NewModelTermination builds a model-backed termination strategy.
func NewModelTermination(decider model.Decider, optFns ...func(o *ModelTerminationOptions)) *ModelTermination {
	opts := ModelTerminationOptions{
		Prompt: "Decide whether this conversation has reached its goal. Reply with only yes or no.",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelTermination{decider: decider, opts: opts}
}

// ShouldTerminate implements TerminationStrategy.
func (t *ModelTermination) ShouldTerminate(ctx context.Context, transcript *core.Transcript) bool {
	verdict, err := t.decider.Decide(ctx, transcript.Tail(t.opts.HistoryWindow), t.opts.Prompt)
	if err != nil {
		logging.Decision(t.opts.Logger, "termination", err.Error(), "continue", true)
		return false
	}
	done, ok := parseBoolVerdict(verdict)
	if !ok {
		logging.Decision(t.opts.Logger, "termination", verdict, "continue", true)
		return false
	}
	outcome := "continue"
	if done {
		outcome = "terminate"
	}
	logging.Decision(t.opts.Logger, "termination", verdict, outcome, false)
	return done
}

// parseBoolVerdict maps a raw verdict onto the binary contract. Recognized
// forms only; everything else reports !ok.
func parseBoolVerdict(verdict string) (bool, bool) {
	candidate := strings.TrimSpace(verdict)
	if gjson.Valid(candidate) {
		for _, field := range []string{"terminate", "done", "complete"} {
			if v := gjson.Get(candidate, field); v.Exists() {
				if v.Type == gjson.True || v.Type == gjson.False {
					return v.Bool(), true
				}
				candidate = strings.TrimSpace(v.String())
				break
			}
		}
	}
	switch strings.ToLower(strings.TrimRight(candidate, ".!")) {
	case "yes", "true", "done", "terminate", "complete":
		return true, true
	case "no", "false", "continue", "not done":
		return false, true
	}
	return false, false
}

// Any combines strategies, terminating as soon as one of them does.
type Any struct {
	Strategies []TerminationStrategy
}

// NewAny builds a composite termination strategy.
func NewAny(strategies ...TerminationStrategy) *Any { return &Any{Strategies: strategies} }

// ShouldTerminate implements TerminationStrategy.
func (a *Any) ShouldTerminate(ctx context.Context, transcript *core.Transcript) bool {
	for _, s := range a.Strategies {
		if s.ShouldTerminate(ctx, transcript) {
			return true
		}
	}
	return false
}
