package workflow

import (
	"fmt"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/environ"
)

// environmentStep provisions the isolated execution environment for a run.
// Provisioning failures are recoverable workflow outcomes, not crashes: they
// surface as a SetupFailed event so the graph can notify the client and halt
// cleanly.
type environmentStep struct {
	manager environ.Manager
	spec    environ.Spec
}

func (s *environmentStep) provision(sc *core.StepContext, ev core.Event) error {
	req, err := core.PayloadAs[ValidatedRequest](ev)
	if err != nil {
		return err
	}

	handle, err := s.manager.Create(sc.Context, s.spec)
	if err != nil {
		sc.Logger.Error("environment creation failed", "sessionID", sc.SessionID, "error", err)

		return sc.Emit(EventSetupFailed, SetupFailure{
			Reason: fmt.Sprintf("create environment: %v", err),
		}, core.VisibilityPublic)
	}

	sc.Logger.Info("environment ready", "sessionID", sc.SessionID, "environment", handle.Name)

	if req.Repository != "" {
		if _, err := s.manager.CloneRepository(sc.Context, handle, req.Repository); err != nil {
			sc.Logger.Error("repository clone failed", "sessionID", sc.SessionID,
				"repository", req.Repository, "error", err)

			// Best effort teardown; the clone failure is what the client hears about.
			if rmErr := s.manager.Remove(sc.Context, handle); rmErr != nil {
				sc.Logger.Warn("environment teardown failed", "sessionID", sc.SessionID, "error", rmErr)
			}

			return sc.Emit(EventSetupFailed, SetupFailure{
				Reason: fmt.Sprintf("clone %s: %v", req.Repository, err),
			}, core.VisibilityPublic)
		}
	}

	sc.State["environmentID"] = handle.ID
	sc.State["environmentName"] = handle.Name

	return sc.Emit(EventSetupSucceeded, EnvironmentReady{
		Handle:  handle,
		Request: req,
	}, core.VisibilityPublic)
}
