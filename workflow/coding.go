package workflow

import (
	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/group"
	"github.com/hupe1980/codemesh/model"
)

// codingStep runs the planning/implementation group chat against the
// provisioned environment. Every produced message is emitted as a
// GroupMessage event; the final GroupCompleted event carries the run summary.
// Unlike provisioning failures, a model error here fails the workflow
// instance: there is no meaningful partial result to report.
type codingStep struct {
	completer     model.Completer
	selection     group.SelectionStrategy
	maxIterations int
	historyWindow int
	planPhrase    string
	donePhrase    string
	workDir       string
}

func (s *codingStep) runGroup(sc *core.StepContext, ev core.Event) error {
	ready, err := core.PayloadAs[EnvironmentReady](ev)
	if err != nil {
		return err
	}

	participants, err := s.participants()
	if err != nil {
		return err
	}

	var produced []core.Message

	chat, err := group.New(participants, func(o *group.Options) {
		o.MaxIterations = s.maxIterations
		o.HistoryWindow = s.historyWindow
		o.Selection = s.selection
		o.Termination = &group.PhraseTermination{
			Phrase:  s.donePhrase,
			Authors: []string{ImplementationAgentName},
		}
		o.Logger = sc.Logger
		o.OnMessage = func(msg core.Message) {
			produced = append(produced, msg)
			if emitErr := sc.Emit(EventGroupMessage, msg, core.VisibilityPublic); emitErr != nil {
				sc.Logger.Warn("dropping group message emission", "sessionID", sc.SessionID, "error", emitErr)
			}
		}
	})
	if err != nil {
		return err
	}

	sc.Logger.Info("coding group starting", "sessionID", sc.SessionID,
		"environment", ready.Handle.Name, "participants", len(participants))

	result, err := chat.Run(sc.Context, sc.Transcript)
	if err != nil {
		return err
	}

	outcome := GroupOutcome{
		Turns:          result.Turns,
		CeilingReached: result.CeilingReached,
		Messages:       produced,
	}
	if len(produced) > 0 {
		final := produced[len(produced)-1]
		outcome.FinalMessage = &final
	}

	sc.State["lastTurns"] = result.Turns

	return sc.Emit(EventGroupCompleted, outcome, core.VisibilityPublic)
}

func (s *codingStep) participants() ([]group.Participant, error) {
	analysis, err := analysisInstructions(s.planPhrase)
	if err != nil {
		return nil, err
	}
	implementation, err := implementationInstructions(s.donePhrase, s.workDir)
	if err != nil {
		return nil, err
	}

	return []group.Participant{
		{Name: AnalysisAgentName, Instructions: analysis, Completer: s.completer},
		{Name: ImplementationAgentName, Instructions: implementation, Completer: s.completer},
	}, nil
}
