package dispatch

import "fmt"

// NoMethodError reports that no registered Method matched a call's argument
// types. Mirrors internal/typesystem/error.go's SymbolNotFoundError: a plain
// struct with an Error() method, no wrapped sentinel, no panic.
type NoMethodError struct {
	Generic string
	Args    []string // pre-rendered argument type names, for diagnostics
}

func (e *NoMethodError) Error() string {
	return fmt.Sprintf("no method matching %s(%s)", e.Generic, joinTypeNames(e.Args))
}

// AmbiguousCallError reports that two or more equally-specific Methods
// matched a call and neither is covered by a third, more specific
// definition.
type AmbiguousCallError struct {
	Generic string
	Args    []string
	First   *Method
	Second  *Method
}

func (e *AmbiguousCallError) Error() string {
	return fmt.Sprintf("ambiguous call to %s(%s): candidates at %s and %s",
		e.Generic, joinTypeNames(e.Args), e.First.Source, e.Second.Source)
}

// InferenceFailureError reports that the installed InferenceHook returned
// without producing usable code for a Specialization that a caller forced
// (force=true) synchronously.
type InferenceFailureError struct {
	Generic string
	Sig     Signature
	Reason  string
}

func (e *InferenceFailureError) Error() string {
	return fmt.Sprintf("inference failed for %s: %s", e.Generic, e.Reason)
}

// TraceCallbackError reports that an installed tracer callback returned an
// error through the (rarely used) error-returning tracer variants. Tracer
// panics are swallowed by tracing.go's recoverTrace and never surface as
// this error; this type exists for tracers that prefer to report failure
// through a return value instead of a panic.
type TraceCallbackError struct {
	Hook string
	Err  error
}

func (e *TraceCallbackError) Error() string {
	return fmt.Sprintf("trace callback %s failed: %v", e.Hook, e.Err)
}

// PreInitMethodError reports a method definition rejected before the
// generic function's inline cache has been initialized (the bootstrap abort
// path): registering a Method whose signature cannot be resolved
// against the type system at all (e.g. refers to an unknown type name).
type PreInitMethodError struct {
	Generic string
	Reason  string
}

func (e *PreInitMethodError) Error() string {
	return fmt.Sprintf("cannot define method on %s: %s", e.Generic, e.Reason)
}

func joinTypeNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
