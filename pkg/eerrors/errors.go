// Package eerrors defines the error taxonomy shared by every eunomia
// component: ValidationError, TestFailure, BundleError, SignatureError,
// RegistryError, DistributeError, and CacheError. Each type implements
// error and Unwrap, and carries a Code() used to map to a process exit
// code and to the machine-readable {code, message, context} envelope
// printed by --json.
package eerrors

import "fmt"

// Code identifies a stable, documented exit/error code.
type Code string

const (
	CodeValidation Code = "validation_error"
	CodeTest       Code = "test_failure"
	CodeBundle     Code = "bundle_error"
	CodeSignature  Code = "signature_error"
	CodeRegistry   Code = "registry_error"
	CodeDistribute Code = "distribute_error"
	CodeCache      Code = "cache_error"
	CodeGeneric    Code = "error"
)

// ExitCode returns the process exit code for a given error, walking
// Unwrap chains until a recognized type is found.
// Unrecognized errors (including nil) map to 0/1 respectively.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeValidation, CodeTest:
		return 2
	case CodeSignature:
		return 3
	case CodeRegistry:
		return 4
	case CodeDistribute:
		return 5
	default:
		return 1
	}
}

// codedError is implemented by every taxonomy error type.
type codedError interface {
	error
	ErrorCode() Code
}

// CodeOf reports the taxonomy Code of err, or CodeGeneric if err does not
// carry one.
func CodeOf(err error) Code {
	var ce codedError
	if as(err, &ce) {
		return ce.ErrorCode()
	}
	return CodeGeneric
}

// as is a tiny errors.As shim kept local to avoid an import cycle with the
// standard errors package name used throughout this package's call sites.
func as(err error, target *codedError) bool {
	for err != nil {
		if ce, ok := err.(codedError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// SourceLocator points at the origin of a validation issue.
type SourceLocator struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocator) String() string {
	if l.File == "" {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ValidationError wraps one or more validation issues at Error severity.
// It is never retried and always surfaced.
type ValidationError struct {
	Locator SourceLocator
	Message string
}

func (e *ValidationError) Error() string {
	if loc := e.Locator.String(); loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}
func (e *ValidationError) ErrorCode() Code { return CodeValidation }

// EvalError indicates a policy rule evaluated to something other than
// what the caller required: an undefined boolean entrypoint, or a
// non-boolean result where a boolean decision was expected.
type EvalError struct {
	Ref    string
	Reason string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s: %s", e.Ref, e.Reason)
}
func (e *EvalError) ErrorCode() Code { return CodeValidation }

// TestFailure wraps a failed fixture or native test. Non-fatal for the
// process but fatal for CI gating.
type TestFailure struct {
	TestName string
	Reason   string
}

func (e *TestFailure) Error() string {
	return fmt.Sprintf("test %s failed: %s", e.TestName, e.Reason)
}
func (e *TestFailure) ErrorCode() Code { return CodeTest }

// BundleError indicates a fatal failure while assembling or reading a
// bundle archive: checksum mismatch, invalid manifest shape, malformed
// archive, or an empty policy directory.
type BundleError struct {
	Reason string
	Cause  error
}

func (e *BundleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bundle error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("bundle error: %s", e.Reason)
}
func (e *BundleError) Unwrap() error  { return e.Cause }
func (e *BundleError) ErrorCode() Code { return CodeBundle }

// SignatureError indicates a fatal signing or verification failure.
type SignatureError struct {
	Reason string
	Cause  error
}

func (e *SignatureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("signature error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("signature error: %s", e.Reason)
}
func (e *SignatureError) Unwrap() error  { return e.Cause }
func (e *SignatureError) ErrorCode() Code { return CodeSignature }

// RegistryErrorKind subdivides RegistryError by retry semantics.
type RegistryErrorKind string

const (
	RegistryNetwork  RegistryErrorKind = "network"  // transient, retry with backoff
	RegistryAuth     RegistryErrorKind = "auth"      // surface, no retry
	RegistryNotFound RegistryErrorKind = "not_found" // caller decides
	RegistryConflict RegistryErrorKind = "conflict"  // surface
)

// RegistryError wraps an OCI registry transport failure.
type RegistryError struct {
	Kind   RegistryErrorKind
	Reason string
	Cause  error
}

func (e *RegistryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("registry error (%s): %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("registry error (%s): %s", e.Kind, e.Reason)
}
func (e *RegistryError) Unwrap() error  { return e.Cause }
func (e *RegistryError) ErrorCode() Code { return CodeRegistry }

// Retryable reports whether this registry error should be retried with
// backoff; only Network errors are.
func (e *RegistryError) Retryable() bool { return e.Kind == RegistryNetwork }

// DistributeError wraps a per-instance push failure. Transient errors are
// retryable; permanent ones are not. A deployment only fails once the
// aggregate of these crosses its configured threshold.
type DistributeError struct {
	InstanceID string
	Transient  bool
	Reason     string
	Cause      error
}

func (e *DistributeError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Cause != nil {
		return fmt.Sprintf("push to %s failed (%s): %s: %v", e.InstanceID, kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("push to %s failed (%s): %s", e.InstanceID, kind, e.Reason)
}
func (e *DistributeError) Unwrap() error  { return e.Cause }
func (e *DistributeError) ErrorCode() Code { return CodeDistribute }

// CacheError indicates local-cache I/O or corruption. Corruption triggers
// an eviction and a cache miss, never a process failure; callers should not
// normally propagate this as fatal.
type CacheError struct {
	Key    string
	Reason string
	Cause  error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error for %s: %s: %v", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("cache error for %s: %s", e.Key, e.Reason)
}
func (e *CacheError) Unwrap() error  { return e.Cause }
func (e *CacheError) ErrorCode() Code { return CodeCache }

// AuditError wraps an audit sink I/O failure. A failed audit write never
// blocks the operation it describes; callers log and continue, so this
// maps to the generic code rather than a dedicated exit status.
type AuditError struct {
	Operation string
	Cause     error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit %s: %v", e.Operation, e.Cause)
}
func (e *AuditError) Unwrap() error   { return e.Cause }
func (e *AuditError) ErrorCode() Code { return CodeGeneric }

// Envelope is the machine-readable error shape printed under --json.
type Envelope struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// NewEnvelope builds the JSON error envelope for err.
func NewEnvelope(err error, context map[string]any) Envelope {
	return Envelope{
		Code:    CodeOf(err),
		Message: err.Error(),
		Context: context,
	}
}
