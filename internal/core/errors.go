package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured marks a feature whose credentials or connection string are
	// missing. Adapters translate it into a "configure X" message.
	ErrNotConfigured = errors.New("not configured")

	// ErrUnreachable means the remote store could not be contacted.
	ErrUnreachable = errors.New("remote store unreachable")

	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDocumentLocked    = errors.New("document is locked")
)

// ConfigError names the missing setting behind an ErrNotConfigured.
type ConfigError struct {
	Feature string
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is locked: configure %s", e.Feature, e.Setting)
}

func (e *ConfigError) Unwrap() error { return ErrNotConfigured }

// NewConfigError returns an error that matches ErrNotConfigured.
func NewConfigError(feature, setting string) error {
	return &ConfigError{Feature: feature, Setting: setting}
}

// TransitionError reports a status change that the lifecycle table forbids.
type TransitionError struct {
	From DocumentStatus
	To   DocumentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move document from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// validationErrorf returns an error wrapping ErrValidation.
func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
