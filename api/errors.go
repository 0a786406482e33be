// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package api
//
// Common error types and error handling utilities for mediagate.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the module.
var (
	ErrAlreadyRunning  = errors.New("server already running")
	ErrServerClosed    = errors.New("server closed")
	ErrConnClosed      = errors.New("connection closed")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorCode represents specific error conditions in the module.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeConfiguration
	ErrCodeProtocol
	ErrCodeNotFound
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, op, message string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: cause}
}

// ConfigurationError reports a configuration value that failed validation.
type ConfigurationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s=%v: %s", e.Key, e.Value, e.Reason)
}

// Unwrap lets callers match configuration errors with errors.Is(err, ErrInvalidArgument).
func (e *ConfigurationError) Unwrap() error { return ErrInvalidArgument }

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal when err is not structured.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	if IsConfigurationError(err) {
		return ErrCodeConfiguration
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
