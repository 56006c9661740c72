package typesystem

import "fmt"

// UnificationError is the error every unification failure bottoms out in.
// Expected/Actual are the two types that failed to unify at the innermost
// mismatch; Context narrows down where inside a composite type it happened
// ("record field 'x'", "union member").
type UnificationError struct {
	Expected Type
	Actual   Type
	Context  string
	Reason   string
}

func (e *UnificationError) Error() string {
	switch {
	case e.Reason != "" && e.Expected != nil:
		return fmt.Sprintf("cannot unify %s with %s: %s", e.Expected.String(), e.Actual.String(), e.Reason)
	case e.Reason != "":
		return e.Reason
	case e.Context != "":
		return fmt.Sprintf("%s: %s", e.Context, unifyPair(e.Expected, e.Actual))
	default:
		return unifyPair(e.Expected, e.Actual)
	}
}

func unifyPair(a, b Type) string {
	return fmt.Sprintf("cannot unify %s with %s", typeName(a), typeName(b))
}

func typeName(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// errUnify reports a plain mismatch between two types.
func errUnify(expected, actual Type) error {
	return &UnificationError{Expected: expected, Actual: actual}
}

// errUnifyMsg reports a mismatch with an explanatory reason.
func errUnifyMsg(expected, actual Type, reason string) error {
	return &UnificationError{Expected: expected, Actual: actual, Reason: reason}
}

// errMismatch reports a structural mismatch that isn't tied to a specific
// type pair (arity differences, missing record fields).
func errMismatch(reason string) error {
	return &UnificationError{Reason: reason}
}

// errUnifyContext wraps an inner unification failure with the position
// inside the composite type being unified.
func errUnifyContext(context string, inner error) error {
	if ue, ok := inner.(*UnificationError); ok {
		return &UnificationError{
			Expected: ue.Expected,
			Actual:   ue.Actual,
			Context:  context,
			Reason:   ue.Reason,
		}
	}
	return &UnificationError{Context: context, Reason: inner.Error()}
}
