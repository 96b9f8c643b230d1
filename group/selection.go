package group

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/model"
)

// SelectionStrategy picks which participant of the fixed set speaks next.
// Implementations must always return a member of the given set; decision
// failures fall back deterministically instead of erroring, so one garbled
// reply never stalls the workflow.
type SelectionStrategy interface {
	SelectNext(ctx context.Context, transcript *core.Transcript, participants []Participant) Participant
}

// RoundRobin cycles through the participant set in declaration order.
type RoundRobin struct {
	next int
}

// NewRoundRobin returns a round-robin selection strategy.
func NewRoundRobin() *RoundRobin { return &RoundRobin{} }

// SelectNext implements SelectionStrategy.
func (r *RoundRobin) SelectNext(_ context.Context, _ *core.Transcript, participants []Participant) Participant {
	p := participants[r.next%len(participants)]
	r.next++
	return p
}

// ModelSelectionOptions configure a ModelSelection strategy.
type ModelSelectionOptions struct {
	// Prompt is the decision prompt handed to the Decider together with the
	// (possibly truncated) transcript.
	Prompt string
	// Fallback names the participant chosen when the verdict is unparseable.
	// Empty means the first participant of the set.
	Fallback string
	// HistoryWindow truncates the transcript to its trailing n messages
	// before the decision call. Zero means the full transcript.
	HistoryWindow int
	// Logger receives fallback warnings.
	Logger logging.Logger
}

// ModelSelection asks an external Decider which participant should act next
// and parses its textual verdict with a strict, fail-closed parser.
type ModelSelection struct {
	decider model.Decider
	opts    ModelSelectionOptions
}

// NewModelSelection builds a model-backed selection strategy.
func NewModelSelection(decider model.Decider, optFns ...func(o *ModelSelectionOptions)) *ModelSelection {
	opts := ModelSelectionOptions{
		Prompt: "You are moderating a conversation. Reply with only the name of the participant who should speak next.",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelSelection{decider: decider, opts: opts}
}

// SelectNext implements SelectionStrategy. An unparseable verdict, a verdict
// naming a non-participant, or a decider error all resolve to the configured
// fallback participant; the failure is logged at warning level only.
func (s *ModelSelection) SelectNext(ctx context.Context, transcript *core.Transcript, participants []Participant) Participant {
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	prompt := s.opts.Prompt + "\nParticipants: " + strings.Join(names, ", ")

	history := transcript.Tail(s.opts.HistoryWindow)
	verdict, err := s.decider.Decide(ctx, history, prompt)
	if err != nil {
		p := s.fallback(participants)
		logging.Decision(s.opts.Logger, "selection", err.Error(), p.Name, true)
		return p
	}

	if p, ok := matchParticipant(verdict, participants); ok {
		logging.Decision(s.opts.Logger, "selection", verdict, p.Name, false)
		return p
	}

	p := s.fallback(participants)
	logging.Decision(s.opts.Logger, "selection", verdict, p.Name, true)
	return p
}

func (s *ModelSelection) fallback(participants []Participant) Participant {
	if s.opts.Fallback != "" {
		for _, p := range participants {
			if p.Name == s.opts.Fallback {
				return p
			}
		}
	}
	return participants[0]
}

// matchParticipant resolves a raw verdict to a member of the participant
// set. It accepts a bare name, a JSON object naming the speaker, or text
// containing exactly one participant name. Anything else fails closed.
func matchParticipant(verdict string, participants []Participant) (Participant, bool) {
	candidate := strings.TrimSpace(verdict)
	if gjson.Valid(candidate) {
		for _, field := range []string{"next", "participant", "speaker"} {
			if v := gjson.Get(candidate, field); v.Exists() {
				candidate = strings.TrimSpace(v.String())
				break
			}
		}
	}
	if candidate == "" {
		return Participant{}, false
	}

	for _, p := range participants {
		if strings.EqualFold(candidate, p.Name) {
			return p, true
		}
	}

	// Verdicts like "I choose CoderAgent." still resolve as long as exactly
	// one participant name occurs in the text.
	var found Participant
	matches := 0
	lower := strings.ToLower(candidate)
	for _, p := range participants {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			found = p
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return Participant{}, false
}
