package services

import "fmt"

// ValidationError means the input was rejected before anything was persisted.
// The caller can correct the payload and resubmit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// PersistenceError means the store was unavailable or timed out before the
// activity itself was written. The whole submission can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PartialError means the activity was durably recorded but a downstream
// aggregate update failed. Stage names which step is stale so operators can
// reconcile; the submission must NOT be retried wholesale, or the activity
// would be double-counted.
type PartialError struct {
	Stage string
	Err   error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("activity recorded but %s update failed: %v", e.Stage, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
