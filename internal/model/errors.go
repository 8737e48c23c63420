package model

import "fmt"

// ExtractionError represents upstream extraction failures.
// The pipeline surfaces it as a failed audit and runs no further stages.
type ExtractionError struct {
	Source  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed [%s]: %s (%v)", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed [%s]: %s", e.Source, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError creates a new extraction error
func NewExtractionError(source, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Source:  source,
		Message: message,
		Cause:   cause,
	}
}

// ContractViolation means the envelope handed to a pipeline stage lost its
// shape. This is always an integration defect, never recovered from.
type ContractViolation struct {
	Stage   string
	Message string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("envelope contract violated at stage %s: %s", e.Stage, e.Message)
}

// NewContractViolation creates a new contract violation
func NewContractViolation(stage, message string) *ContractViolation {
	return &ContractViolation{Stage: stage, Message: message}
}

// ClassificationError represents a classifier collaborator failure.
// It is terminal for the run; the document is not persisted without a
// classification.
type ClassificationError struct {
	Message string
	Cause   error
}

func (e *ClassificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification failed: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("classification failed: %s", e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}

// NewClassificationError creates a new classification error
func NewClassificationError(message string, cause error) *ClassificationError {
	return &ClassificationError{Message: message, Cause: cause}
}
