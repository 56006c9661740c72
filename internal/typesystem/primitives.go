package typesystem

// Primitive type constants, shared so every package spells them the same
// way. All are plain nullary constructors of kind *.
var (
	Int      = TCon{Name: "Int"}
	BigInt   = TCon{Name: "BigInt"}
	Rational = TCon{Name: "Rational"}
	Float    = TCon{Name: "Float"}
	Bool     = TCon{Name: "Bool"}
	Char     = TCon{Name: "Char"}
	Nil      = TCon{Name: "Nil"}
	Bytes    = TCon{Name: "Bytes"}
	Bits     = TCon{Name: "Bits"}
)
