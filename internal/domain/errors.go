package domain

import "fmt"

// ValidationError rejects malformed input before anything is persisted.
type ValidationError struct {
	Entity string
	ID     string
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s %s", e.Entity, e.ID, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s %s", e.Entity, e.Field, e.Msg)
}

// SyncError reports a failed provider merge. Counts reflect committed prior
// batches; the failing batch itself is rolled back whole.
type SyncError struct {
	Stage   string
	Applied MergeResult
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// ConflictError means a concurrent write on the same owner or jurisdiction
// was detected and the single retry also failed.
type ConflictError struct {
	Key string
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent settlement conflict on %s: %v", e.Key, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }
