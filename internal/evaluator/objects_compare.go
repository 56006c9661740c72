package evaluator

import (
	"fmt"
	"math/big"
	"strings"
)

// objectsEqual is the package-internal spelling of ObjectsEqual, used by
// pattern matching and the collection builtins.
func objectsEqual(a, b Object) bool {
	return ObjectsEqual(a, b)
}

// compareObjects gives a total order over comparable runtime values:
// negative when a < b, zero when equal, positive when a > b. Mixed
// numeric types compare by value; everything else must match in type.
func compareObjects(a, b Object) (int, error) {
	if an, aok := numericValue(a); aok {
		if bn, bok := numericValue(b); bok {
			return an.Cmp(bn), nil
		}
	}

	switch av := a.(type) {
	case *Char:
		if bv, ok := b.(*Char); ok {
			return int(av.Value - bv.Value), nil
		}
	case *Boolean:
		if bv, ok := b.(*Boolean); ok {
			ai, bi := 0, 0
			if av.Value {
				ai = 1
			}
			if bv.Value {
				bi = 1
			}
			return ai - bi, nil
		}
	case *List:
		if bv, ok := b.(*List); ok {
			if IsStringList(av) && IsStringList(bv) {
				return strings.Compare(ListToString(av), ListToString(bv)), nil
			}
			as, bs := av.ToSlice(), bv.ToSlice()
			for i := 0; i < len(as) && i < len(bs); i++ {
				c, err := compareObjects(as[i], bs[i])
				if err != nil {
					return 0, err
				}
				if c != 0 {
					return c, nil
				}
			}
			return len(as) - len(bs), nil
		}
	case *Tuple:
		if bv, ok := b.(*Tuple); ok {
			for i := 0; i < len(av.Elements) && i < len(bv.Elements); i++ {
				c, err := compareObjects(av.Elements[i], bv.Elements[i])
				if err != nil {
					return 0, err
				}
				if c != 0 {
					return c, nil
				}
			}
			return len(av.Elements) - len(bv.Elements), nil
		}
	case *Bytes:
		if bv, ok := b.(*Bytes); ok {
			return av.compare(bv), nil
		}
	}

	return 0, fmt.Errorf("cannot compare %s with %s", a.Type(), b.Type())
}

// numericValue lifts any numeric object into a big.Rat for cross-type
// comparison.
func numericValue(obj Object) (*big.Rat, bool) {
	switch v := obj.(type) {
	case *Integer:
		return new(big.Rat).SetInt64(v.Value), true
	case *Float:
		if r := new(big.Rat).SetFloat64(v.Value); r != nil {
			return r, true
		}
		return nil, false // NaN or Inf: fall through to the type-mismatch error
	case *BigInt:
		return new(big.Rat).SetInt(v.Value), true
	case *Rational:
		return new(big.Rat).Set(v.Value), true
	}
	return nil, false
}
