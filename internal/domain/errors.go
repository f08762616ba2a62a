package domain

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	// Keeping this sentinel in domain lets adapters map it consistently to 404/NOT_FOUND.
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition signals a job status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRateLimited is returned when a per-key budget is exhausted for the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrWorkflowRunning is the expected outcome of invoking the orchestrator while a
	// run is already active. Callers treat it as a coordination signal, not a failure.
	ErrWorkflowRunning = errors.New("workflow already running")
	// ErrQualityGate marks production attempts that never reached the quality threshold.
	// Gate exhaustion is a terminal, expected outcome for the job, never a panic path.
	ErrQualityGate = errors.New("quality gate not passed")
	// ErrCompliance marks content rejected by the compliance review collaborator.
	ErrCompliance     = errors.New("compliance review rejected")
	ErrTestCompleted  = errors.New("ab test already completed")
	ErrVariantUnknown = errors.New("unknown variant")
)
