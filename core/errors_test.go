package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepExecutionErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &StepExecutionError{Step: "EnvironmentStep", Function: "Provision", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "EnvironmentStep")
	assert.Contains(t, err.Error(), "Provision")
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &DeliveryError{Topic: "WORKFLOW_UPDATE", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "WORKFLOW_UPDATE")
}

func TestInfrastructureErrorUnwrap(t *testing.T) {
	cause := errors.New("no such image")
	err := &InfrastructureError{Op: "create container", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create container")
}
