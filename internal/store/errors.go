package store

import "fmt"

// IncompletePayloadError means the envelope lacked every identifying field
// required to write a row; nothing is persisted.
type IncompletePayloadError struct {
	Message string
}

func (e *IncompletePayloadError) Error() string {
	return fmt.Sprintf("incomplete payload: %s", e.Message)
}

// ConflictError is a uniqueness conflict other than the access-key upsert
// path. Treated as a soft warning: the record already exists.
type ConflictError struct {
	AccessKey string
	Cause     error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("storage conflict for key %s: %v", e.AccessKey, e.Cause)
}

func (e *ConflictError) Unwrap() error {
	return e.Cause
}

// StorageError is any other storage fault; a hard failure for the run
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
