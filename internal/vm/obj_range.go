package vm

import (
	"fmt"
	"unsafe"

	"github.com/funvibe/funxy/internal/evaluator"
	"github.com/funvibe/funxy/internal/typesystem"
)

// ObjRange is the VM's runtime representation of a range value
// (start..end, optionally with an explicit second element fixing the
// step). OP_MAKE_ITER lowers it into an iterator closure.
type ObjRange struct {
	Start Value
	Next  Value
	End   Value
}

func (r *ObjRange) Type() evaluator.ObjectType { return "RANGE" }

func (r *ObjRange) Inspect() string {
	if r.Next.Type != ValNil {
		return fmt.Sprintf("%s, %s..%s", r.Start.Inspect(), r.Next.Inspect(), r.End.Inspect())
	}
	return fmt.Sprintf("%s..%s", r.Start.Inspect(), r.End.Inspect())
}

func (r *ObjRange) RuntimeType() typesystem.Type {
	return typesystem.TCon{Name: "Range"}
}

func (r *ObjRange) Hash() uint32 {
	return uint32(uintptr(unsafe.Pointer(r)))
}
