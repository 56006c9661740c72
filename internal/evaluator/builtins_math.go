package evaluator

import (
	"math"
	"math/big"
)

// MathBuiltins returns the built-in functions of the lib/math virtual
// package, plus the bignum helpers of lib/bignum.
func MathBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	asFloat := func(name string, obj Object) (float64, Object) {
		switch v := obj.(type) {
		case *Integer:
			return float64(v.Value), nil
		case *Float:
			return v.Value, nil
		}
		return 0, newError("%s expects a number, got %s", name, obj.Type())
	}

	unary := func(name string, fn func(float64) float64) {
		reg(name, func(e *Evaluator, args ...Object) Object {
			if len(args) != 1 {
				return newError("%s expects 1 argument, got %d", name, len(args))
			}
			f, errObj := asFloat(name, args[0])
			if errObj != nil {
				return errObj
			}
			return &Float{Value: fn(f)}
		})
	}

	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("exp", math.Exp)
	unary("log", math.Log)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)

	reg("abs", func(e *Evaluator, args ...Object) Object {
		if len(args) != 1 {
			return newError("abs expects 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case *Integer:
			if v.Value < 0 {
				return &Integer{Value: -v.Value}
			}
			return v
		case *Float:
			return &Float{Value: math.Abs(v.Value)}
		case *BigInt:
			return &BigInt{Value: new(big.Int).Abs(v.Value)}
		case *Rational:
			return &Rational{Value: new(big.Rat).Abs(v.Value)}
		}
		return newError("abs expects a number, got %s", args[0].Type())
	})

	reg("absInt", func(e *Evaluator, args ...Object) Object {
		n, ok := args[0].(*Integer)
		if !ok {
			return newError("absInt expects an Int, got %s", args[0].Type())
		}
		if n.Value < 0 {
			return &Integer{Value: -n.Value}
		}
		return n
	})

	reg("sign", func(e *Evaluator, args ...Object) Object {
		f, errObj := asFloat("sign", args[0])
		if errObj != nil {
			return errObj
		}
		switch {
		case f > 0:
			return &Integer{Value: 1}
		case f < 0:
			return &Integer{Value: -1}
		default:
			return &Integer{Value: 0}
		}
	})

	binaryPick := func(name string, pickFirst func(c int) bool) {
		reg(name, func(e *Evaluator, args ...Object) Object {
			if len(args) != 2 {
				return newError("%s expects 2 arguments, got %d", name, len(args))
			}
			c, err := compareObjects(args[0], args[1])
			if err != nil {
				return newError("%s", err.Error())
			}
			if pickFirst(c) {
				return args[0]
			}
			return args[1]
		})
	}
	binaryPick("min", func(c int) bool { return c <= 0 })
	binaryPick("max", func(c int) bool { return c >= 0 })

	reg("minInt", func(e *Evaluator, args ...Object) Object {
		a, ok1 := args[0].(*Integer)
		c, ok2 := args[1].(*Integer)
		if !ok1 || !ok2 {
			return newError("minInt expects Int arguments")
		}
		if a.Value <= c.Value {
			return a
		}
		return c
	})

	reg("maxInt", func(e *Evaluator, args ...Object) Object {
		a, ok1 := args[0].(*Integer)
		c, ok2 := args[1].(*Integer)
		if !ok1 || !ok2 {
			return newError("maxInt expects Int arguments")
		}
		if a.Value >= c.Value {
			return a
		}
		return c
	})

	reg("clamp", func(e *Evaluator, args ...Object) Object {
		if len(args) != 3 {
			return newError("clamp expects 3 arguments, got %d", len(args))
		}
		lo, err1 := compareObjects(args[0], args[1])
		if err1 != nil {
			return newError("%s", err1.Error())
		}
		if lo < 0 {
			return args[1]
		}
		hi, err2 := compareObjects(args[0], args[2])
		if err2 != nil {
			return newError("%s", err2.Error())
		}
		if hi > 0 {
			return args[2]
		}
		return args[0]
	})

	intRound := func(name string, fn func(float64) float64) {
		reg(name, func(e *Evaluator, args ...Object) Object {
			if n, ok := args[0].(*Integer); ok {
				return n
			}
			f, errObj := asFloat(name, args[0])
			if errObj != nil {
				return errObj
			}
			return &Integer{Value: int64(fn(f))}
		})
	}
	intRound("floor", math.Floor)
	intRound("ceil", math.Ceil)
	intRound("round", math.Round)
	intRound("trunc", math.Trunc)

	reg("pow", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("pow expects 2 arguments, got %d", len(args))
		}
		base, errObj := asFloat("pow", args[0])
		if errObj != nil {
			return errObj
		}
		exp, errObj := asFloat("pow", args[1])
		if errObj != nil {
			return errObj
		}
		if a, ok1 := args[0].(*Integer); ok1 {
			if c, ok2 := args[1].(*Integer); ok2 && c.Value >= 0 {
				result := int64(1)
				for i := int64(0); i < c.Value; i++ {
					result *= a.Value
				}
				return &Integer{Value: result}
			}
		}
		return &Float{Value: math.Pow(base, exp)}
	})

	reg("pi", func(e *Evaluator, args ...Object) Object {
		return &Float{Value: math.Pi}
	})
	reg("e", func(e *Evaluator, args ...Object) Object {
		return &Float{Value: math.E}
	})

	for name, builtin := range BignumBuiltins() {
		b[name] = builtin
	}
	return b
}

// BignumBuiltins returns the arbitrary-precision helpers of lib/bignum.
func BignumBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	reg("bigIntNew", func(e *Evaluator, args ...Object) Object {
		list, ok := args[0].(*List)
		if !ok || !IsStringList(list) {
			return newError("bigIntNew expects a String")
		}
		val := new(big.Int)
		if _, ok := val.SetString(ListToString(list), 10); !ok {
			return makeNone()
		}
		return makeSome(&BigInt{Value: val})
	})

	reg("bigIntFromInt", func(e *Evaluator, args ...Object) Object {
		n, ok := args[0].(*Integer)
		if !ok {
			return newError("bigIntFromInt expects an Int, got %s", args[0].Type())
		}
		return &BigInt{Value: big.NewInt(n.Value)}
	})

	reg("bigIntToInt", func(e *Evaluator, args ...Object) Object {
		n, ok := args[0].(*BigInt)
		if !ok {
			return newError("bigIntToInt expects a BigInt, got %s", args[0].Type())
		}
		if !n.Value.IsInt64() {
			return makeNone()
		}
		return makeSome(&Integer{Value: n.Value.Int64()})
	})

	reg("bigIntToString", func(e *Evaluator, args ...Object) Object {
		n, ok := args[0].(*BigInt)
		if !ok {
			return newError("bigIntToString expects a BigInt, got %s", args[0].Type())
		}
		return StringToList(n.Value.String())
	})

	reg("ratNew", func(e *Evaluator, args ...Object) Object {
		num, ok1 := args[0].(*Integer)
		den, ok2 := args[1].(*Integer)
		if !ok1 || !ok2 {
			return newError("ratNew expects Int numerator and denominator")
		}
		if den.Value == 0 {
			return makeNone()
		}
		return makeSome(&Rational{Value: big.NewRat(num.Value, den.Value)})
	})

	reg("ratFromInt", func(e *Evaluator, args ...Object) Object {
		n, ok := args[0].(*Integer)
		if !ok {
			return newError("ratFromInt expects an Int, got %s", args[0].Type())
		}
		return &Rational{Value: new(big.Rat).SetInt64(n.Value)}
	})

	reg("ratNumer", func(e *Evaluator, args ...Object) Object {
		r, ok := args[0].(*Rational)
		if !ok {
			return newError("ratNumer expects a Rational, got %s", args[0].Type())
		}
		return &BigInt{Value: new(big.Int).Set(r.Value.Num())}
	})

	reg("ratDenom", func(e *Evaluator, args ...Object) Object {
		r, ok := args[0].(*Rational)
		if !ok {
			return newError("ratDenom expects a Rational, got %s", args[0].Type())
		}
		return &BigInt{Value: new(big.Int).Set(r.Value.Denom())}
	})

	reg("ratToFloat", func(e *Evaluator, args ...Object) Object {
		r, ok := args[0].(*Rational)
		if !ok {
			return newError("ratToFloat expects a Rational, got %s", args[0].Type())
		}
		f, _ := r.Value.Float64()
		return &Float{Value: f}
	})

	reg("ratToString", func(e *Evaluator, args ...Object) Object {
		r, ok := args[0].(*Rational)
		if !ok {
			return newError("ratToString expects a Rational, got %s", args[0].Type())
		}
		return StringToList(r.Value.RatString())
	})

	return b
}
