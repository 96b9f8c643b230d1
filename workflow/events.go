package workflow

import (
	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/environ"
)

// Step and function names used by the coding workflow graph.
const (
	StepIntake      = "IntakeStep"
	StepEnvironment = "EnvironmentStep"
	StepCoding      = "CodingStep"

	FuncValidateRequirement = "ValidateRequirement"
	FuncProvision           = "Provision"
	FuncRunGroup            = "RunGroup"
)

// Event identifiers emitted inside the workflow graph.
const (
	EventWorkflowStart       = "WorkflowStart"
	EventValidationSucceeded = "ValidationSucceeded"
	EventValidationFailed    = "ValidationFailed"
	EventSetupSucceeded      = "SetupSucceeded"
	EventSetupFailed         = "SetupFailed"
	EventGroupMessage        = "GroupMessage"
	EventGroupCompleted      = "GroupCompleted"
)

// External notification topics delivered to the session's client connection.
const (
	TopicValidationFailed = "VALIDATION_FAILED"
	TopicSetupSucceeded   = "SETUP_INFRASTRUCTURE_SUCCEEDED"
	TopicSetupFailed      = "SETUP_INFRASTRUCTURE_FAILED"
	TopicWorkflowUpdate   = "WORKFLOW_UPDATE"
	TopicGroupCompleted   = "GroupCompleted"
)

// Request is the payload of the WorkflowStart input event. Requirement is the
// natural language task description; Repository optionally names a git
// repository to clone into the execution environment.
type Request struct {
	Requirement string `json:"requirement"`
	Repository  string `json:"repository,omitempty"`
}

// ValidatedRequest is carried by ValidationSucceeded once intake checks pass.
type ValidatedRequest struct {
	Requirement string `json:"requirement"`
	Repository  string `json:"repository,omitempty"`
}

// ValidationFailure describes why intake rejected a request.
type ValidationFailure struct {
	Missing []string `json:"missing,omitempty"`
	Message string   `json:"message"`
}

// EnvironmentReady is carried by SetupSucceeded and hands the provisioned
// environment handle to the coding step.
type EnvironmentReady struct {
	Handle  environ.Handle   `json:"handle"`
	Request ValidatedRequest `json:"request"`
}

// SetupFailure describes a failed environment provisioning attempt.
type SetupFailure struct {
	Reason string `json:"reason"`
}

// GroupOutcome summarizes a finished group chat run.
type GroupOutcome struct {
	Turns          int            `json:"turns"`
	CeilingReached bool           `json:"ceilingReached"`
	FinalMessage   *core.Message  `json:"finalMessage,omitempty"`
	Messages       []core.Message `json:"messages,omitempty"`
}
