package model

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or unusable input. No external tool has
// been invoked when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SynthesisError wraps a failure of the text-to-speech provider.
type SynthesisError struct {
	Provider string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis via %s failed: %v", e.Provider, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// EncodingError wraps a failed video tool run. Diagnostics holds whatever the
// tool wrote to stderr.
type EncodingError struct {
	Op          string
	Err         error
	Diagnostics string
}

func (e *EncodingError) Error() string {
	if e.Diagnostics == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\n%s", e.Op, e.Err, e.Diagnostics)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsSynthesis(err error) bool {
	var s *SynthesisError
	return errors.As(err, &s)
}

func IsEncoding(err error) bool {
	var e *EncodingError
	return errors.As(err, &e)
}
