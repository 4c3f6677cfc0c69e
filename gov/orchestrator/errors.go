package orchestrator

import (
	"errors"
	"fmt"
)

// Failure kinds. Match with errors.Is on the error returned by a step.
var (
	ErrInvalidParams = errors.New("invalid parameters")
	ErrDeployment    = errors.New("deployment failure")
	ErrWiring        = errors.New("wiring failure")
	ErrBootstrap     = errors.New("bootstrap failure")
	// ErrBootstrapRejected means a one-time initializer refused the call,
	// usually because the component was already bootstrapped.
	ErrBootstrapRejected = errors.New("bootstrap rejected")
	// ErrManifestWrite does not affect the on-chain outcome.
	ErrManifestWrite = errors.New("manifest write failure")
)

// StepError reports the step that failed, the failure kind and the
// components deployed before the failure.
type StepError struct {
	Step string
	Kind error
	Set  *DeploymentSet
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches the failure kind.
func (e *StepError) Is(target error) bool {
	return target == e.Kind
}

// Fatal reports whether the run was aborted.
func (e *StepError) Fatal() bool {
	return e.Kind != ErrManifestWrite
}

func stepError(step string, kind error, set *DeploymentSet, err error) *StepError {
	var snapshot *DeploymentSet
	if set != nil {
		snapshot = set.Clone()
	}
	return &StepError{Step: step, Kind: kind, Set: snapshot, Err: err}
}
