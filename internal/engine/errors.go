// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrURLRequired       = errors.New("URL is required")
	ErrInvalidURL        = errors.New("URL must be an absolute http(s) URL")
	ErrEngineUnavailable = errors.New("browser engine unavailable")
	ErrNavigation        = errors.New("navigation failed")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeValidation            ErrorCode = "VALIDATION"
	ErrCodeEngineUnavailable     ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeExtractionFailed      ErrorCode = "EXTRACTION_FAILED"
	ErrCodeClassificationWarning ErrorCode = "CLASSIFICATION_WARNING"
)

// Stage names the pipeline step a scrape is in
type Stage string

const (
	StageIdle             Stage = "idle"
	StageBrowserAcquiring Stage = "browser_acquiring"
	StageNavigating       Stage = "navigating"
	StageExtracting       Stage = "extracting"
	StageClassifying      Stage = "classifying"
	StageDiffing          Stage = "diffing"
	StageResponding       Stage = "responding"
	StageFailed           Stage = "failed"
)

// EngineError wraps errors with the code and stage they were raised in
type EngineError struct {
	Code       ErrorCode
	Stage      Stage
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	prefix := string(e.Code)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s[%s]", e.Code, e.Stage)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// AtStage tags the error with the stage it was raised in, keeping an existing tag
func (e *EngineError) AtStage(stage Stage) *EngineError {
	if e.Stage == "" {
		e.Stage = stage
	}
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// Validation builds a VALIDATION error
func Validation(err error) *EngineError {
	return NewEngineError(ErrCodeValidation, err.Error(), err)
}

// EngineUnavailable builds an ENGINE_UNAVAILABLE error
func EngineUnavailable(err error) *EngineError {
	return NewEngineError(ErrCodeEngineUnavailable, ErrEngineUnavailable.Error(), err)
}

// ExtractionFailed builds an EXTRACTION_FAILED error
func ExtractionFailed(message string, err error) *EngineError {
	return NewEngineError(ErrCodeExtractionFailed, message, err)
}

// CodeOf returns the ErrorCode carried by err, or "" if it carries none
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// StageOf returns the Stage carried by err, or StageFailed if it carries none
func StageOf(err error) Stage {
	var ee *EngineError
	if errors.As(err, &ee) && ee.Stage != "" {
		return ee.Stage
	}
	return StageFailed
}
