package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/logging"
)

// DefaultMaxIterations bounds a sub-conversation when no explicit ceiling is
// configured. The ceiling is mandatory; zero or negative values are rejected.
const DefaultMaxIterations = 10

// Options configure a Chat.
type Options struct {
	// MaxIterations is the hard turn ceiling, enforced independently of the
	// termination strategy's judgment.
	MaxIterations int
	// Selection picks the next acting participant. Defaults to round-robin.
	Selection SelectionStrategy
	// Termination decides completion after every full turn. Required.
	Termination TerminationStrategy
	// HistoryWindow bounds the transcript handed to a participant's turn to
	// its trailing n messages. Zero means the full transcript.
	HistoryWindow int
	// OnMessage is invoked for every produced message immediately after it
	// is appended to the transcript.
	OnMessage func(core.Message)
	// Logger receives per-turn diagnostics.
	Logger logging.Logger
}

// Result summarizes a finished sub-conversation.
type Result struct {
	Turns          int
	CeilingReached bool
}

// Chat drives a multi-agent sub-conversation: exactly one participant acts
// at a time, each produced message is appended to the transcript before the
// next selection, and the termination strategy is evaluated after every full
// turn. A Chat instance runs one conversation at a time and is not safe for
// concurrent Run calls.
type Chat struct {
	participants []Participant
	opts         Options
}

// New constructs a Chat over the fixed participant set.
func New(participants []Participant, optFns ...func(o *Options)) (*Chat, error) {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if len(participants) == 0 {
		return nil, errors.New("group chat requires at least one participant")
	}
	if opts.Termination == nil {
		return nil, errors.New("group chat requires a termination strategy")
	}
	if opts.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", opts.MaxIterations)
	}
	if opts.Selection == nil {
		opts.Selection = NewRoundRobin()
	}
	return &Chat{participants: participants, opts: opts}, nil
}

// Run executes the turn loop until the termination strategy fires or the
// iteration ceiling is reached. The transcript is shared with the caller;
// messages appear in it as they are produced.
func (c *Chat) Run(ctx context.Context, transcript *core.Transcript) (Result, error) {
	for turn := 0; turn < c.opts.MaxIterations; turn++ {
		select {
		case <-ctx.Done():
			return Result{Turns: turn}, ctx.Err()
		default:
		}

		p := c.opts.Selection.SelectNext(ctx, transcript, c.participants)
		c.opts.Logger.Debug("group turn starting", "turn", turn+1, "participant", p.Name)

		msg, err := p.Act(ctx, transcript.Tail(c.opts.HistoryWindow))
		if err != nil {
			return Result{Turns: turn}, fmt.Errorf("group turn %d: %w", turn+1, err)
		}

		transcript.Append(msg)
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(msg)
		}

		if c.opts.Termination.ShouldTerminate(ctx, transcript) {
			c.opts.Logger.Debug("group conversation terminated by policy", "turns", turn+1)
			return Result{Turns: turn + 1}, nil
		}
	}

	c.opts.Logger.Warn("group conversation hit iteration ceiling", "max_iterations", c.opts.MaxIterations)
	return Result{Turns: c.opts.MaxIterations, CeilingReached: true}, nil
}

// Participants returns the fixed participant set.
func (c *Chat) Participants() []Participant {
	out := make([]Participant, len(c.participants))
	copy(out, c.participants)
	return out
}
