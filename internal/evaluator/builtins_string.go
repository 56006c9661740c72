package evaluator

import (
	"strings"
	"unicode"
)

// StringBuiltins returns the built-in functions of the lib/string virtual
// package, plus the character helpers of lib/char. Strings are List<Char>
// at runtime, so every function converts at the boundary.
func StringBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	argStr := func(name string, args []Object, n int) (string, Object) {
		if len(args) <= n {
			return "", newError("%s expects at least %d arguments, got %d", name, n+1, len(args))
		}
		list, ok := args[n].(*List)
		if !ok || !IsStringList(list) {
			return "", newError("%s expects a String, got %s", name, args[n].Type())
		}
		return ListToString(list), nil
	}

	mapString := func(name string, fn func(string) string) {
		reg(name, func(e *Evaluator, args ...Object) Object {
			s, errObj := argStr(name, args, 0)
			if errObj != nil {
				return errObj
			}
			return StringToList(fn(s))
		})
	}

	mapString("stringToUpper", strings.ToUpper)
	mapString("stringToLower", strings.ToLower)
	mapString("stringTrim", strings.TrimSpace)
	mapString("stringTrimStart", func(s string) string {
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	})
	mapString("stringTrimEnd", func(s string) string {
		return strings.TrimRightFunc(s, unicode.IsSpace)
	})
	mapString("stringCapitalize", func(s string) string {
		runes := []rune(s)
		if len(runes) == 0 {
			return s
		}
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})

	reg("stringSplit", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringSplit", args, 0)
		if errObj != nil {
			return errObj
		}
		sep, errObj := argStr("stringSplit", args, 1)
		if errObj != nil {
			return errObj
		}
		parts := strings.Split(s, sep)
		out := make([]Object, len(parts))
		for i, p := range parts {
			out[i] = StringToList(p)
		}
		return newList(out)
	})

	reg("stringJoin", func(e *Evaluator, args ...Object) Object {
		list, ok := args[0].(*List)
		if !ok {
			return newError("stringJoin expects a List of Strings, got %s", args[0].Type())
		}
		sep, errObj := argStr("stringJoin", args, 1)
		if errObj != nil {
			return errObj
		}
		parts := make([]string, 0, list.Len())
		for _, el := range list.ToSlice() {
			inner, ok := el.(*List)
			if !ok || !IsStringList(inner) {
				return newError("stringJoin expects a List of Strings")
			}
			parts = append(parts, ListToString(inner))
		}
		return StringToList(strings.Join(parts, sep))
	})

	reg("stringReplace", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringReplace", args, 0)
		if errObj != nil {
			return errObj
		}
		old, errObj := argStr("stringReplace", args, 1)
		if errObj != nil {
			return errObj
		}
		new_, errObj := argStr("stringReplace", args, 2)
		if errObj != nil {
			return errObj
		}
		return StringToList(strings.Replace(s, old, new_, 1))
	})

	reg("stringReplaceAll", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringReplaceAll", args, 0)
		if errObj != nil {
			return errObj
		}
		old, errObj := argStr("stringReplaceAll", args, 1)
		if errObj != nil {
			return errObj
		}
		new_, errObj := argStr("stringReplaceAll", args, 2)
		if errObj != nil {
			return errObj
		}
		return StringToList(strings.ReplaceAll(s, old, new_))
	})

	boolString := func(name string, fn func(s, sub string) bool) {
		reg(name, func(e *Evaluator, args ...Object) Object {
			s, errObj := argStr(name, args, 0)
			if errObj != nil {
				return errObj
			}
			sub, errObj := argStr(name, args, 1)
			if errObj != nil {
				return errObj
			}
			if fn(s, sub) {
				return TRUE
			}
			return FALSE
		})
	}
	boolString("stringStartsWith", strings.HasPrefix)
	boolString("stringEndsWith", strings.HasSuffix)

	reg("stringIndexOf", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringIndexOf", args, 0)
		if errObj != nil {
			return errObj
		}
		sub, errObj := argStr("stringIndexOf", args, 1)
		if errObj != nil {
			return errObj
		}
		idx := strings.Index(s, sub)
		if idx < 0 {
			return makeNone()
		}
		// Byte offset to rune offset.
		return makeSome(&Integer{Value: int64(len([]rune(s[:idx])))})
	})

	reg("stringRepeat", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringRepeat", args, 0)
		if errObj != nil {
			return errObj
		}
		n, ok := args[1].(*Integer)
		if !ok || n.Value < 0 {
			return newError("stringRepeat expects a non-negative Int count")
		}
		return StringToList(strings.Repeat(s, int(n.Value)))
	})

	pad := func(name string, left bool) {
		reg(name, func(e *Evaluator, args ...Object) Object {
			s, errObj := argStr(name, args, 0)
			if errObj != nil {
				return errObj
			}
			width, ok := args[1].(*Integer)
			if !ok {
				return newError("%s expects an Int width", name)
			}
			fill := " "
			if len(args) > 2 {
				f, errObj := argStr(name, args, 2)
				if errObj != nil {
					return errObj
				}
				if f != "" {
					fill = f
				}
			}
			runes := []rune(s)
			need := int(width.Value) - len(runes)
			if need <= 0 {
				return StringToList(s)
			}
			padding := strings.Repeat(fill, (need+len([]rune(fill))-1)/len([]rune(fill)))
			padding = string([]rune(padding)[:need])
			if left {
				return StringToList(padding + s)
			}
			return StringToList(s + padding)
		})
	}
	pad("stringPadLeft", true)
	pad("stringPadRight", false)

	reg("stringLines", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringLines", args, 0)
		if errObj != nil {
			return errObj
		}
		s = strings.ReplaceAll(s, "\r\n", "\n")
		lines := strings.Split(s, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		out := make([]Object, len(lines))
		for i, line := range lines {
			out[i] = StringToList(line)
		}
		return newList(out)
	})

	reg("stringWords", func(e *Evaluator, args ...Object) Object {
		s, errObj := argStr("stringWords", args, 0)
		if errObj != nil {
			return errObj
		}
		words := strings.Fields(s)
		out := make([]Object, len(words))
		for i, w := range words {
			out[i] = StringToList(w)
		}
		return newList(out)
	})

	for name, builtin := range CharBuiltins() {
		b[name] = builtin
	}
	return b
}

// CharBuiltins returns the character helpers of lib/char.
func CharBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	argChar := func(name string, args []Object) (rune, Object) {
		if len(args) == 0 {
			return 0, newError("%s expects a Char argument", name)
		}
		c, ok := args[0].(*Char)
		if !ok {
			return 0, newError("%s expects a Char, got %s", name, args[0].Type())
		}
		return rune(c.Value), nil
	}

	reg("charToCode", func(e *Evaluator, args ...Object) Object {
		r, errObj := argChar("charToCode", args)
		if errObj != nil {
			return errObj
		}
		return &Integer{Value: int64(r)}
	})

	reg("charFromCode", func(e *Evaluator, args ...Object) Object {
		n, ok := args[0].(*Integer)
		if !ok {
			return newError("charFromCode expects an Int, got %s", args[0].Type())
		}
		return &Char{Value: n.Value}
	})

	reg("charToUpper", func(e *Evaluator, args ...Object) Object {
		r, errObj := argChar("charToUpper", args)
		if errObj != nil {
			return errObj
		}
		return &Char{Value: int64(unicode.ToUpper(r))}
	})

	reg("charToLower", func(e *Evaluator, args ...Object) Object {
		r, errObj := argChar("charToLower", args)
		if errObj != nil {
			return errObj
		}
		return &Char{Value: int64(unicode.ToLower(r))}
	})

	reg("charIsUpper", func(e *Evaluator, args ...Object) Object {
		r, errObj := argChar("charIsUpper", args)
		if errObj != nil {
			return errObj
		}
		if unicode.IsUpper(r) {
			return TRUE
		}
		return FALSE
	})

	reg("charIsLower", func(e *Evaluator, args ...Object) Object {
		r, errObj := argChar("charIsLower", args)
		if errObj != nil {
			return errObj
		}
		if unicode.IsLower(r) {
			return TRUE
		}
		return FALSE
	})

	return b
}
