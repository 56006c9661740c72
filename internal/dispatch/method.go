package dispatch

// Method is a user-supplied (signature, body) definition: one of possibly
// many methods on a generic function. Identity is by pointer; two Methods
// with EqualGeneric signatures are still distinct definitions until one
// overwrites the other (see MethodTable.InsertMethod).
type Method struct {
	ID     string // stable correlation id, see ids.go
	Sig    Signature
	Origin string // defining module
	Source string // source location, for diagnostics

	// Template is the uncompiled code template: in Funxy's tree-walking
	// evaluator this is the *evaluator.Function object itself (dispatch
	// doesn't know or care about its shape).
	Template Value

	IsStaged bool
	IsTraced bool

	// CalledMask records, per declared argument position, whether the
	// method body invokes that argument as a callable. Used by the
	// specialization builder's Function-widening rule.
	CalledMask []bool

	// Ambig lists other Methods this one is pairwise-ambiguous with, per
	// the definition-time analysis run by MethodTable.Define.
	Ambig []*Method

	// Invokes is a private TypeMap of Specializations used only by the
	// invoke() pathway, so forcing a less-specific dispatch never
	// pollutes the function's shared cache.
	Invokes *TypeMap

	// fallback is the shared unspecialized Specialization handed out (via
	// Specialization.Fallback) to every specialization of a Method whose
	// signature binds static parameters: its signature is the method's own
	// template signature and its body receives the static-parameter values
	// as data. Built once, under the codegen lock.
	fallback *Specialization
}

// fallbackSpec returns (building on first use) the shared unspecialized
// fallback for m. Callers hold the codegen lock, so the once-only build
// needs no further synchronization.
func (m *Method) fallbackSpec() *Specialization {
	if m.fallback == nil {
		m.fallback = &Specialization{
			ID:     newID(),
			Sig:    m.Sig,
			Method: m,
		}
	}
	return m.fallback
}

// nparams is shorthand for the arity of a Method's own signature.
func (m *Method) nparams() int { return m.Sig.NParams() }

// NewMethod constructs a Method with a fresh correlation id.
func NewMethod(sig Signature, origin, source string, template Value) *Method {
	return &Method{
		ID:       newID(),
		Sig:      sig,
		Origin:   origin,
		Source:   source,
		Template: template,
	}
}

// Specialization is a Method concretized at a particular concrete
// signature, optionally carrying generated code.
type Specialization struct {
	ID           string
	Sig          Signature // concrete signature (possibly widened, see builder.go)
	StaticParams Env       // bound static-parameter values
	Method       *Method   // defining Method
	Code         Value     // generated code object; nil before compile
	Inferred     bool
	InInference  bool
	// Fallback is the shared unspecialized specialization used when this
	// Method has static parameters whose runtime values are needed by the
	// template body at a call site that hasn't been inferred yet.
	Fallback *Specialization
}
