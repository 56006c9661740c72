package dispatch

import "github.com/google/uuid"

// newID mints a stable correlation id for a Method or Specialization.
// Go pointer identity is sufficient inside a single process, but tracer
// callbacks and LSP diagnostics need something printable and stable across
// a wire protocol, so every Method and Specialization also carries a uuid.
func newID() string {
	return uuid.NewString()
}
