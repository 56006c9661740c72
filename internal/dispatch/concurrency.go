package dispatch

import (
	"sync"

	"github.com/petermattis/goid"
)

// typeinf serializes the optimizing-inferencer hook: separate from
// specCache's codegen lock so that an inference pass triggered while
// codegen is already held (the common case — a fresh Specialization
// immediately asks to be inferred) never deadlocks against a second,
// unrelated dispatch that only needs codegen and never touches inference.
var typeinf sync.Mutex

// typeinfDepth lets the same goroutine re-enter TypeinfBegin/End without
// deadlocking itself, since the inference hook may recursively trigger
// further dispatch (and thus further inference) on the same call stack.
var typeinfDepth int
var typeinfOwner uint64
var typeinfMu sync.Mutex

// TypeinfBegin acquires the typeinf lock for the duration of an inference
// pass. Reentrant per goroutine.
func TypeinfBegin() {
	id := goroutineID()
	typeinfMu.Lock()
	if typeinfOwner == id && typeinfDepth > 0 {
		typeinfDepth++
		typeinfMu.Unlock()
		return
	}
	typeinfMu.Unlock()

	typeinf.Lock()

	typeinfMu.Lock()
	typeinfOwner = id
	typeinfDepth = 1
	typeinfMu.Unlock()
}

// TypeinfEnd releases the typeinf lock acquired by TypeinfBegin.
func TypeinfEnd() {
	typeinfMu.Lock()
	typeinfDepth--
	done := typeinfDepth == 0
	if done {
		typeinfOwner = 0
	}
	typeinfMu.Unlock()
	if done {
		typeinf.Unlock()
	}
}

func typeinfHeld() bool {
	typeinfMu.Lock()
	defer typeinfMu.Unlock()
	return typeinfDepth > 0 && typeinfOwner == goroutineID()
}

// goroutineID returns the calling goroutine's id, used to make
// TypeinfBegin/TypeinfEnd reentrant on the same goroutine.
func goroutineID() uint64 {
	return uint64(goid.Get())
}
