package workflow

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/model"
)

// intakeStep validates incoming requests before any infrastructure is
// provisioned. A model decider performs a completeness check on the
// requirement text; structural problems (empty requirement) are rejected
// without consulting the model at all.
type intakeStep struct {
	decider model.Decider
}

func (s *intakeStep) validateRequirement(sc *core.StepContext, ev core.Event) error {
	req, err := core.PayloadAs[Request](ev)
	if err != nil {
		return err
	}

	requirement := strings.TrimSpace(req.Requirement)
	if requirement == "" {
		sc.Logger.Info("intake rejected request", "sessionID", sc.SessionID, "reason", "empty requirement")

		return sc.Emit(EventValidationFailed, ValidationFailure{
			Missing: []string{"requirement"},
			Message: "requirement text is empty",
		}, core.VisibilityPublic)
	}

	// The requirement becomes the opening turn of the session transcript so
	// later steps and repeated runs see the full conversation.
	sc.Transcript.Append(core.Message{
		ID:      core.NewID(),
		Role:    core.RoleUser,
		Author:  "user",
		Content: requirement,
	})

	if failure, rejected := s.consultDecider(sc, requirement); rejected {
		return sc.Emit(EventValidationFailed, failure, core.VisibilityPublic)
	}

	sc.State["lastRequirement"] = requirement

	return sc.Emit(EventValidationSucceeded, ValidatedRequest{
		Requirement: requirement,
		Repository:  strings.TrimSpace(req.Repository),
	}, core.VisibilityInternal)
}

// consultDecider asks the model whether the requirement is actionable. The
// verdict is parsed fail-closed: anything that is not an explicit rejection
// lets the request through, because the structural checks above already
// guarantee a non-empty requirement. A decider error therefore also proceeds.
func (s *intakeStep) consultDecider(sc *core.StepContext, requirement string) (ValidationFailure, bool) {
	if s.decider == nil {
		return ValidationFailure{}, false
	}

	prompt, err := validationPrompt(requirement)
	if err != nil {
		sc.Logger.Warn("could not render validation prompt, proceeding", "sessionID", sc.SessionID, "error", err)
		return ValidationFailure{}, false
	}

	verdict, err := s.decider.Decide(sc.Context, sc.Transcript.Messages(), prompt)
	if err != nil {
		sc.Logger.Warn("validation decider unavailable, proceeding", "sessionID", sc.SessionID, "error", err)
		return ValidationFailure{}, false
	}

	valid, missing, parseErr := parseValidationVerdict(verdict)
	if parseErr != nil {
		sc.Logger.Warn("unparseable validation verdict, proceeding", "sessionID", sc.SessionID, "error", parseErr)
		return ValidationFailure{}, false
	}

	if valid {
		return ValidationFailure{}, false
	}

	sc.Logger.Info("intake rejected request", "sessionID", sc.SessionID, "missing", missing)

	return ValidationFailure{
		Missing: missing,
		Message: "required parameters are missing",
	}, true
}

// parseValidationVerdict extracts the intake verdict from the model reply.
// JSON replies carry a "valid" field and an optional "missing" list; bare
// "yes"/"no" style replies are accepted as a courtesy.
func parseValidationVerdict(raw string) (valid bool, missing []string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false, nil, &core.DecisionParseError{Raw: raw}
	}

	if field := gjson.Get(trimmed, "valid"); field.Exists() {
		if field.Bool() {
			return true, nil, nil
		}
		for _, item := range gjson.Get(trimmed, "missing").Array() {
			missing = append(missing, item.String())
		}
		return false, missing, nil
	}

	switch strings.ToLower(strings.Trim(trimmed, ".!")) {
	case "yes", "true", "valid", "ok":
		return true, nil, nil
	case "no", "false", "invalid":
		return false, nil, nil
	}

	return false, nil, &core.DecisionParseError{Raw: raw}
}
