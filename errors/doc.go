// Package errors provides structured error types for the layout host.
//
// Errors are categorized by Phase (which operation raised them) and Kind (error category).
// The Error type carries a human-readable detail, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRelease, errors.KindDoubleRelease).
//		Value(h).
//		Detail("handle %#x is already free", h).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseResolve, uint32(h), "slot is free")
//	err := errors.UnknownResource(errors.PhaseDestroy, "page", ptr)
//
// Every kind has a phase-less sentinel (ErrInvalidHandle, ErrDoubleRelease, ...)
// that matches errors of that kind from any phase:
//
//	if errors.Is(err, lherrors.ErrAlreadyDisposed) { ... }
//
// All of these indicate broken invariants and are returned to the caller, never
// retried. KindEngineDestroyFailed is the exception in spirit: the native engine
// reported a failure but in-process bookkeeping has already been completed.
package errors
