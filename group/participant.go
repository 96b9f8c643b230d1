// Package group implements the turn-taking protocol for multi-agent
// sub-conversations: a selection strategy picks which participant speaks
// next, a termination strategy decides when the conversation is complete,
// and Chat drives the loop under a mandatory iteration ceiling.
package group

import (
	"context"
	"fmt"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/model"
)

// Participant is a named agent taking turns in a group conversation. Its
// Completer is the external collaborator producing the turn's reply;
// Instructions is the participant's standing system prompt.
type Participant struct {
	Name         string
	Instructions string
	Completer    model.Completer
}

// Act executes one turn: the participant consumes the transcript and
// produces its reply message.
func (p Participant) Act(ctx context.Context, transcript []core.Message) (core.Message, error) {
	reply, err := p.Completer.Complete(ctx, p.Instructions, transcript, p.Name)
	if err != nil {
		return core.Message{}, fmt.Errorf("participant %s: %w", p.Name, err)
	}
	return core.NewMessage(core.RoleAgent, p.Name, reply), nil
}
