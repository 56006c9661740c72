package dispatch

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

// Concurrent generic-apply over a warm and cold cache: every goroutine must
// observe a correct dispatch, at most one specialization may exist per
// concrete signature afterwards, and no goroutine may be left behind.
func TestConcurrentApply(t *testing.T) {
	defer goleak.VerifyNone(t)
	ResetCallCache()

	g := NewGeneric(ftOps{}, "f")
	mInt := defineMethod(g, sig(ftInt), "int")
	mReal := defineMethod(g, sig(ftReal), "real")
	mStr := defineMethod(g, sig(ftString), "str")

	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				var arg ft
				var want *Method
				switch (w + i) % 3 {
				case 0:
					arg, want = ftInt, mInt
				case 1:
					arg, want = ftReal, mReal
				default:
					arg, want = ftString, mStr
				}
				spec, err := g.ApplyAt(uint32(2000+(w+i)%8), argTypes(arg))
				if err != nil {
					errs <- err
					return
				}
				if spec.Method != want {
					t.Errorf("worker %d dispatched %s to %v", w, (ftOps{}).String(arg), spec.Method.Template)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent dispatch failed: %v", err)
	}

	// At-most-one-build: one cache entry per concrete signature.
	perSig := map[string]int{}
	for _, e := range g.Table().Cache().Entries() {
		perSig[(ftOps{}).String(e.Sig.Slots[0])]++
	}
	for name, n := range perSig {
		if n != 1 {
			t.Errorf("signature (%s) has %d cache entries, want 1", name, n)
		}
	}
}

// The build function runs exactly once per signature even when callers
// race into the codegen lock together.
func TestAtMostOneBuild(t *testing.T) {
	defer goleak.VerifyNone(t)
	ResetCallCache()

	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")

	const workers = 12
	var wg sync.WaitGroup
	specs := make([]*Specialization, workers)
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			spec, err := g.ApplyAt(uint32(2100+w), argTypes(ftInt))
			if err != nil {
				t.Errorf("dispatch failed: %v", err)
				return
			}
			specs[w] = spec
		}()
	}
	wg.Wait()

	for _, spec := range specs[1:] {
		if spec != specs[0] {
			t.Fatal("racing callers observed different specializations for one signature")
		}
	}
	if n := len(g.Table().Cache().Entries()); n != 1 {
		t.Errorf("cache has %d entries, want 1", n)
	}
}

func TestTypeinfReentrancy(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		TypeinfBegin()
		// Recursive acquisition on the same goroutine must not deadlock —
		// the inferencer dispatches back into the engine.
		TypeinfBegin()
		TypeinfEnd()
		TypeinfEnd()
	}()
	<-done

	// The lock is free again for another goroutine.
	TypeinfBegin()
	TypeinfEnd()
}
