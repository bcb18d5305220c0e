// Package errors provides centralized error definitions and error handling utilities
// for the tracer engine. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - RoutingError: errors raised while routing a worker to a target
//   - GenealogyError: errors raised by the rebloom genealogy forest
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewRoutingError("unknown worker", errors.ErrUnknownWorkerType).WithWorker("eagle")
//
//	if errors.Is(err, errors.ErrUnknownWorkerType) { ... }
//
//	var routingErr *errors.RoutingError
//	if errors.As(err, &routingErr) { ... }
//
// # Failure Classes
//
// Validation failures (unknown worker type, unknown target, duplicate genealogy id) are
// returned synchronously and never retried by the engine. A low-affinity score is not an
// error at all: the router returns a nil route. Side-effect failures (event handlers,
// metrics, export) are isolated at the point where the side effect happens.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Routing sentinel errors
var (
	// ErrUnknownWorkerType indicates that the worker type is not one of the fixed profiles.
	ErrUnknownWorkerType = New("unknown worker type")
	// ErrTargetNotFound indicates that the target is not registered.
	ErrTargetNotFound = New("target not found")
	// ErrInvalidTarget indicates that target attributes are out of range.
	ErrInvalidTarget = New("invalid target")
)

// Genealogy sentinel errors
var (
	// ErrDuplicateGenealogyID indicates that a rebloom event reused an existing node id.
	ErrDuplicateGenealogyID = New("duplicate genealogy id")
	// ErrNodeNotFound indicates that a genealogy node does not exist.
	ErrNodeNotFound = New("genealogy node not found")
	// ErrGenealogyCycle indicates that an event would introduce a cycle.
	ErrGenealogyCycle = New("genealogy cycle")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrExportFailed indicates that writing the integration export failed.
	ErrExportFailed = New("export failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TracerError is the base interface for all engine errors.
type TracerError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatPrefixed renders "<prefix> [k=v, ...]: message: cause".
func formatPrefixed(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// RoutingError represents a failure to route a worker to a target.
//
// Example:
//
//	err := errors.NewRoutingError("cannot route", errors.ErrTargetNotFound).
//		WithWorker("owl").WithTarget("bloom_404")
//	fmt.Println(err) // "routing error [worker=owl, target=bloom_404]: cannot route: target not found"
type RoutingError struct {
	baseError
	Worker   string
	TargetID string
}

// NewRoutingError creates a new RoutingError.
func NewRoutingError(message string, cause error) *RoutingError {
	return &RoutingError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithWorker adds the worker type to the error context.
func (e *RoutingError) WithWorker(worker string) *RoutingError {
	e.Worker = worker
	return e
}

// WithTarget adds the target id to the error context.
func (e *RoutingError) WithTarget(id string) *RoutingError {
	e.TargetID = id
	return e
}

// WithSeverity sets the error severity.
func (e *RoutingError) WithSeverity(s Severity) *RoutingError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *RoutingError) Error() string {
	var parts []string
	if e.Worker != "" {
		parts = append(parts, fmt.Sprintf("worker=%s", e.Worker))
	}
	if e.TargetID != "" {
		parts = append(parts, fmt.Sprintf("target=%s", e.TargetID))
	}
	return formatPrefixed("routing error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *RoutingError) Is(target error) bool {
	if _, ok := target.(*RoutingError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GenealogyError represents a failure in the rebloom genealogy forest.
//
// Example:
//
//	err := errors.NewGenealogyError("rebloom rejected", errors.ErrDuplicateGenealogyID).
//		WithNode("bloom_002").WithParent("bloom_001")
type GenealogyError struct {
	baseError
	NodeID   string
	ParentID string
}

// NewGenealogyError creates a new GenealogyError.
func NewGenealogyError(message string, cause error) *GenealogyError {
	return &GenealogyError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithNode adds the node id to the error context.
func (e *GenealogyError) WithNode(id string) *GenealogyError {
	e.NodeID = id
	return e
}

// WithParent adds the parent id to the error context.
func (e *GenealogyError) WithParent(id string) *GenealogyError {
	e.ParentID = id
	return e
}

// Error returns the formatted error message.
func (e *GenealogyError) Error() string {
	var parts []string
	if e.NodeID != "" {
		parts = append(parts, fmt.Sprintf("node=%s", e.NodeID))
	}
	if e.ParentID != "" {
		parts = append(parts, fmt.Sprintf("parent=%s", e.ParentID))
	}
	return formatPrefixed("genealogy error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *GenealogyError) Is(target error) bool {
	if _, ok := target.(*GenealogyError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("target", "bloom_404")
//	fmt.Println(err) // "target 'bloom_404' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("genealogy node", "bloom_002")
//	fmt.Println(err) // "genealogy node 'bloom_002' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("entropy must be within [0,1]").
//		WithField("entropy").WithValue(1.4)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatPrefixed("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition.
// Every engine error is deterministic, so only errors that explicitly opt in
// (or unknown errors wrapping context cancellation) report true.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var tracerErr TracerError
	if As(err, &tracerErr) {
		return tracerErr.IsRetryable()
	}

	return Is(err, ErrCanceled)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var tracerErr TracerError
	return As(err, &tracerErr) && tracerErr.IsUserFacing()
}

// IsValidation returns true for errors the caller caused: unknown worker types,
// unknown targets, bad attribute values and duplicate genealogy ids.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validation *ValidationError
	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError

	return As(err, &validation) || As(err, &notFound) || As(err, &alreadyExists) ||
		Is(err, ErrUnknownWorkerType) || Is(err, ErrTargetNotFound) ||
		Is(err, ErrDuplicateGenealogyID)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TracerError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var tracerErr TracerError
	if As(err, &tracerErr) {
		return tracerErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
