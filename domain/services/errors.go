package services

import (
	"errors"
	"fmt"
	"time"
)

// Service errors. Handlers map these to HTTP statuses in the error
// middleware: validation 400, auth 401, not found 404, suppression 429,
// persistence 500, upstream 502.

var (
	// Validation
	ErrInvalidDescriptor = errors.New("descriptor must have exactly 128 dimensions")
	ErrInvalidEventType  = errors.New("event type must be ENTRY or EXIT")
	ErrEmailTaken        = errors.New("email is already registered")
	ErrNoSamples         = errors.New("at least one face sample is required")

	// Recognition outcomes. ErrNoMatch is an expected result of a clean
	// scan, not a server fault.
	ErrNoFaceDetected = errors.New("no face detected in the uploaded image")
	ErrNoMatch        = errors.New("no enrolled person matched")
	ErrAmbiguousMatch = errors.New("two persons matched too closely to decide")

	// Auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session is no longer active")
	ErrPersonDisabled     = errors.New("person is deactivated")
	ErrNotRegistered      = errors.New("no person registered for this account")

	// Not found
	ErrPersonNotFound = errors.New("person not found")
	ErrEventNotFound  = errors.New("attendance event not found")
)

// SuppressedError signals a check inside the duplicate-suppression window.
// Remaining is how long the person has to wait before the next accepted
// check.
type SuppressedError struct {
	Remaining time.Duration
}

func (e *SuppressedError) Error() string {
	return fmt.Sprintf("attendance already recorded, retry in %s", e.Remaining.Round(time.Second))
}

// PersistenceError wraps a durable-store failure. Cache failures never
// produce one; they are logged and treated as misses.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps a failure of an external dependency, typically the
// face service.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
