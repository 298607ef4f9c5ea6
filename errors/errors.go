package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which operation the error was raised from
type Phase string

const (
	PhaseRegister Phase = "register" // handle registration
	PhaseResolve  Phase = "resolve"  // handle dereference
	PhaseRelease  Phase = "release"  // handle release
	PhaseTrack    Phase = "track"    // resource tracking
	PhaseDestroy  Phase = "destroy"  // single resource destruction
	PhaseTeardown Phase = "teardown" // full context disposal
	PhaseGuard    Phase = "guard"    // enter/leave bracket
	PhaseSchedule Phase = "schedule" // deferred destruction
	PhaseEngine   Phase = "engine"   // native engine calls
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle       Kind = "invalid_handle"
	KindDoubleRelease       Kind = "double_release"
	KindUnknownResource     Kind = "unknown_resource"
	KindAlreadyDisposed     Kind = "already_disposed"
	KindEngineDestroyFailed Kind = "engine_destroy_failed"
	KindDuplicateResource   Kind = "duplicate_resource"
	KindNilPointer          Kind = "nil_pointer"
	KindNilObject           Kind = "nil_object"
	KindDisposing           Kind = "disposing"
	KindGuardImbalance      Kind = "guard_imbalance"
	KindCapacityExhausted   Kind = "capacity_exhausted"
	KindEngineFailure       Kind = "engine_failure"
	KindNotRooted           Kind = "not_rooted"
	KindEngineClosed        Kind = "engine_closed"
	KindInvalidConfig       Kind = "invalid_config"
)

// Sentinels for errors.Is. They carry no phase and therefore match any
// error of the same kind.
var (
	ErrInvalidHandle       = &Error{Kind: KindInvalidHandle}
	ErrDoubleRelease       = &Error{Kind: KindDoubleRelease}
	ErrUnknownResource     = &Error{Kind: KindUnknownResource}
	ErrAlreadyDisposed     = &Error{Kind: KindAlreadyDisposed}
	ErrEngineDestroyFailed = &Error{Kind: KindEngineDestroyFailed}
	ErrDuplicateResource   = &Error{Kind: KindDuplicateResource}
	ErrNilPointer          = &Error{Kind: KindNilPointer}
	ErrNilObject           = &Error{Kind: KindNilObject}
	ErrDisposing           = &Error{Kind: KindDisposing}
	ErrGuardImbalance      = &Error{Kind: KindGuardImbalance}
	ErrCapacityExhausted   = &Error{Kind: KindCapacityExhausted}
	ErrEngineFailure       = &Error{Kind: KindEngineFailure}
	ErrNotRooted           = &Error{Kind: KindNotRooted}
	ErrEngineClosed        = &Error{Kind: KindEngineClosed}
	ErrInvalidConfig       = &Error{Kind: KindInvalidConfig}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidHandle creates an invalid handle error
func InvalidHandle(phase Phase, handle uint32, reason string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %#x: %s", handle, reason),
		Value:  handle,
	}
}

// DoubleRelease creates an error for releasing an already free handle
func DoubleRelease(handle uint32) *Error {
	return &Error{
		Phase:  PhaseRelease,
		Kind:   KindDoubleRelease,
		Detail: fmt.Sprintf("handle %#x is already free", handle),
		Value:  handle,
	}
}

// UnknownResource creates an error for a pointer that is not tracked
func UnknownResource(phase Phase, kind string, ptr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownResource,
		Detail: fmt.Sprintf("%s %#x is not tracked", kind, ptr),
		Value:  ptr,
	}
}

// DuplicateResource creates an error for a pointer tracked twice
func DuplicateResource(kind string, ptr uintptr) *Error {
	return &Error{
		Phase:  PhaseTrack,
		Kind:   KindDuplicateResource,
		Detail: fmt.Sprintf("%s %#x is already tracked", kind, ptr),
		Value:  ptr,
	}
}

// NilPointer creates an error for a null resource pointer
func NilPointer(phase Phase, kind string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Detail: fmt.Sprintf("null %s pointer", kind),
	}
}

// NilObject creates an error for registering a nil object
func NilObject() *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindNilObject,
		Detail: "cannot register nil object",
	}
}

// AlreadyDisposed creates an error for operations after teardown completed
func AlreadyDisposed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyDisposed,
		Detail: fmt.Sprintf("%s has been disposed", what),
	}
}

// Disposing creates an error for operations rejected while teardown is underway
func Disposing(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDisposing,
		Detail: fmt.Sprintf("%s is being disposed", what),
	}
}

// EngineDestroyFailed wraps a failure reported by a native destroy call
func EngineDestroyFailed(kind string, ptr uintptr, cause error) *Error {
	return &Error{
		Phase:  PhaseDestroy,
		Kind:   KindEngineDestroyFailed,
		Detail: fmt.Sprintf("destroy %s %#x", kind, ptr),
		Value:  ptr,
		Cause:  cause,
	}
}

// GuardImbalance creates an error for a leave without a matching enter
func GuardImbalance() *Error {
	return &Error{
		Phase:  PhaseGuard,
		Kind:   KindGuardImbalance,
		Detail: "leave without matching enter",
	}
}

// CapacityExhausted creates an error for a table that cannot grow further
func CapacityExhausted(limit int) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindCapacityExhausted,
		Detail: fmt.Sprintf("handle table cannot grow beyond %d slots", limit),
		Value:  limit,
	}
}

// EngineFailure wraps a failure from a non-destroy engine call
func EngineFailure(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindEngineFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// NotRooted creates an error for an engine call made outside any guarded section
func NotRooted() *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindNotRooted,
		Detail: "engine call outside a rooted section",
	}
}

// EngineClosed creates an error for a call on a closed engine
func EngineClosed() *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindEngineClosed,
		Detail: "engine closed",
	}
}

// InvalidConfig creates a configuration validation error
func InvalidConfig(detail string, args ...any) *Error {
	return New(PhaseConfig, KindInvalidConfig).Detail(detail, args...).Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
