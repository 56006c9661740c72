package evaluator

import (
	"sort"
)

// ListBuiltins returns the built-in functions of the lib/list virtual
// package. They are also preloaded into the VM's global table via
// GetBuiltinsList.
func ListBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	argList := func(name string, args []Object, n int) (*List, Object) {
		if len(args) < n+1 {
			return nil, newError("%s expects at least %d arguments, got %d", name, n+1, len(args))
		}
		list, ok := args[n].(*List)
		if !ok {
			return nil, newError("%s expects a List, got %s", name, args[n].Type())
		}
		return list, nil
	}

	reg("head", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("head", args, 0)
		if errObj != nil {
			return errObj
		}
		if list.Len() == 0 {
			return makeNone()
		}
		return makeSome(list.Get(0))
	})

	reg("headOr", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("headOr", args, 0)
		if errObj != nil {
			return errObj
		}
		if list.Len() == 0 {
			if len(args) < 2 {
				return newError("headOr expects a default value")
			}
			return args[1]
		}
		return list.Get(0)
	})

	reg("tail", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("tail", args, 0)
		if errObj != nil {
			return errObj
		}
		if list.Len() == 0 {
			return newListWithType(nil, list.ElementType)
		}
		return list.Slice(1, list.Len())
	})

	reg("last", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("last", args, 0)
		if errObj != nil {
			return errObj
		}
		if list.Len() == 0 {
			return makeNone()
		}
		return makeSome(list.Get(list.Len() - 1))
	})

	reg("lastOr", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("lastOr", args, 0)
		if errObj != nil {
			return errObj
		}
		if list.Len() == 0 {
			if len(args) < 2 {
				return newError("lastOr expects a default value")
			}
			return args[1]
		}
		return list.Get(list.Len() - 1)
	})

	reg("init", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("init", args, 0)
		if errObj != nil {
			return errObj
		}
		if list.Len() == 0 {
			return newListWithType(nil, list.ElementType)
		}
		return list.Slice(0, list.Len()-1)
	})

	reg("nth", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("nth", args, 0)
		if errObj != nil {
			return errObj
		}
		idx, ok := args[1].(*Integer)
		if !ok {
			return newError("nth expects an Int index")
		}
		i := int(idx.Value)
		if i < 0 {
			i += list.Len()
		}
		if i < 0 || i >= list.Len() {
			return makeNone()
		}
		return makeSome(list.Get(i))
	})

	reg("nthOr", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("nthOr", args, 0)
		if errObj != nil {
			return errObj
		}
		idx, ok := args[1].(*Integer)
		if !ok {
			return newError("nthOr expects an Int index")
		}
		i := int(idx.Value)
		if i < 0 {
			i += list.Len()
		}
		if i < 0 || i >= list.Len() {
			if len(args) < 3 {
				return newError("nthOr expects a default value")
			}
			return args[2]
		}
		return list.Get(i)
	})

	reg("length", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("length", args, 0)
		if errObj != nil {
			return errObj
		}
		return &Integer{Value: int64(list.Len())}
	})

	reg("reverse", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("reverse", args, 0)
		if errObj != nil {
			return errObj
		}
		src := list.ToSlice()
		out := make([]Object, len(src))
		for i, el := range src {
			out[len(src)-1-i] = el
		}
		return newListWithType(out, list.ElementType)
	})

	reg("concat", func(e *Evaluator, args ...Object) Object {
		a, errObj := argList("concat", args, 0)
		if errObj != nil {
			return errObj
		}
		c, ok := args[1].(*List)
		if !ok {
			return newError("concat expects a List, got %s", args[1].Type())
		}
		return a.Concat(c)
	})

	reg("append", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("append", args, 0)
		if errObj != nil {
			return errObj
		}
		out := append(list.ToSlice(), args[1])
		return newListWithType(out, list.ElementType)
	})

	reg("take", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("take", args, 0)
		if errObj != nil {
			return errObj
		}
		n, ok := args[1].(*Integer)
		if !ok {
			return newError("take expects an Int count")
		}
		c := int(n.Value)
		if c > list.Len() {
			c = list.Len()
		}
		if c < 0 {
			c = 0
		}
		return list.Slice(0, c)
	})

	reg("drop", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("drop", args, 0)
		if errObj != nil {
			return errObj
		}
		n, ok := args[1].(*Integer)
		if !ok {
			return newError("drop expects an Int count")
		}
		c := int(n.Value)
		if c > list.Len() {
			c = list.Len()
		}
		if c < 0 {
			c = 0
		}
		return list.Slice(c, list.Len())
	})

	reg("slice", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("slice", args, 0)
		if errObj != nil {
			return errObj
		}
		start, ok1 := args[1].(*Integer)
		end, ok2 := args[2].(*Integer)
		if !ok1 || !ok2 {
			return newError("slice expects Int bounds")
		}
		return list.Slice(int(start.Value), int(end.Value))
	})

	callPredicate := func(e *Evaluator, fn Object, el Object) (bool, Object) {
		res := e.ApplyFunction(fn, []Object{el})
		if isError(res) {
			return false, res
		}
		if boolean, ok := res.(*Boolean); ok {
			return boolean.Value, nil
		}
		return !isZeroValue(res), nil
	}

	reg("takeWhile", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("takeWhile expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("takeWhile expects a List, got %s", args[1].Type())
		}
		var out []Object
		for _, el := range list.ToSlice() {
			keep, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if !keep {
				break
			}
			out = append(out, el)
		}
		return newListWithType(out, list.ElementType)
	})

	reg("dropWhile", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("dropWhile expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("dropWhile expects a List, got %s", args[1].Type())
		}
		src := list.ToSlice()
		i := 0
		for ; i < len(src); i++ {
			keep, errObj := callPredicate(e, args[0], src[i])
			if errObj != nil {
				return errObj
			}
			if !keep {
				break
			}
		}
		return newListWithType(src[i:], list.ElementType)
	})

	reg("map", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("map expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("map expects a List, got %s", args[1].Type())
		}
		src := list.ToSlice()
		out := make([]Object, len(src))
		for i, el := range src {
			res := e.ApplyFunction(args[0], []Object{el})
			if isError(res) {
				return res
			}
			out[i] = res
		}
		return newList(out)
	})

	reg("filter", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("filter expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("filter expects a List, got %s", args[1].Type())
		}
		var out []Object
		for _, el := range list.ToSlice() {
			keep, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if keep {
				out = append(out, el)
			}
		}
		return newListWithType(out, list.ElementType)
	})

	reg("foldl", func(e *Evaluator, args ...Object) Object {
		if len(args) != 3 {
			return newError("foldl expects 3 arguments, got %d", len(args))
		}
		list, ok := args[2].(*List)
		if !ok {
			return newError("foldl expects a List, got %s", args[2].Type())
		}
		acc := args[1]
		for _, el := range list.ToSlice() {
			acc = e.ApplyFunction(args[0], []Object{acc, el})
			if isError(acc) {
				return acc
			}
		}
		return acc
	})

	reg("foldr", func(e *Evaluator, args ...Object) Object {
		if len(args) != 3 {
			return newError("foldr expects 3 arguments, got %d", len(args))
		}
		list, ok := args[2].(*List)
		if !ok {
			return newError("foldr expects a List, got %s", args[2].Type())
		}
		src := list.ToSlice()
		acc := args[1]
		for i := len(src) - 1; i >= 0; i-- {
			acc = e.ApplyFunction(args[0], []Object{src[i], acc})
			if isError(acc) {
				return acc
			}
		}
		return acc
	})

	reg("forEach", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("forEach expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("forEach expects a List, got %s", args[1].Type())
		}
		for _, el := range list.ToSlice() {
			if res := e.ApplyFunction(args[0], []Object{el}); isError(res) {
				return res
			}
		}
		return &Nil{}
	})

	reg("find", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("find expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("find expects a List, got %s", args[1].Type())
		}
		for _, el := range list.ToSlice() {
			hit, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if hit {
				return makeSome(el)
			}
		}
		return makeNone()
	})

	reg("findIndex", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("findIndex expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("findIndex expects a List, got %s", args[1].Type())
		}
		for i, el := range list.ToSlice() {
			hit, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if hit {
				return makeSome(&Integer{Value: int64(i)})
			}
		}
		return makeNone()
	})

	reg("indexOf", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("indexOf", args, 0)
		if errObj != nil {
			return errObj
		}
		for i, el := range list.ToSlice() {
			if objectsEqual(el, args[1]) {
				return makeSome(&Integer{Value: int64(i)})
			}
		}
		return makeNone()
	})

	reg("contains", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("contains", args, 0)
		if errObj != nil {
			return errObj
		}
		for _, el := range list.ToSlice() {
			if objectsEqual(el, args[1]) {
				return TRUE
			}
		}
		return FALSE
	})

	reg("all", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("all expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("all expects a List, got %s", args[1].Type())
		}
		for _, el := range list.ToSlice() {
			hit, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if !hit {
				return FALSE
			}
		}
		return TRUE
	})

	reg("any", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("any expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("any expects a List, got %s", args[1].Type())
		}
		for _, el := range list.ToSlice() {
			hit, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if hit {
				return TRUE
			}
		}
		return FALSE
	})

	reg("flatten", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("flatten", args, 0)
		if errObj != nil {
			return errObj
		}
		var out []Object
		for _, el := range list.ToSlice() {
			inner, ok := el.(*List)
			if !ok {
				return newError("flatten expects a List of Lists, got element %s", el.Type())
			}
			out = append(out, inner.ToSlice()...)
		}
		return newList(out)
	})

	reg("zip", func(e *Evaluator, args ...Object) Object {
		a, errObj := argList("zip", args, 0)
		if errObj != nil {
			return errObj
		}
		c, ok := args[1].(*List)
		if !ok {
			return newError("zip expects a List, got %s", args[1].Type())
		}
		n := a.Len()
		if c.Len() < n {
			n = c.Len()
		}
		out := make([]Object, n)
		for i := 0; i < n; i++ {
			out[i] = &Tuple{Elements: []Object{a.Get(i), c.Get(i)}}
		}
		return newList(out)
	})

	reg("unzip", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("unzip", args, 0)
		if errObj != nil {
			return errObj
		}
		var firsts, seconds []Object
		for _, el := range list.ToSlice() {
			tup, ok := el.(*Tuple)
			if !ok || len(tup.Elements) != 2 {
				return newError("unzip expects a List of pairs")
			}
			firsts = append(firsts, tup.Elements[0])
			seconds = append(seconds, tup.Elements[1])
		}
		return &Tuple{Elements: []Object{newList(firsts), newList(seconds)}}
	})

	reg("partition", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("partition expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("partition expects a List, got %s", args[1].Type())
		}
		var yes, no []Object
		for _, el := range list.ToSlice() {
			hit, errObj := callPredicate(e, args[0], el)
			if errObj != nil {
				return errObj
			}
			if hit {
				yes = append(yes, el)
			} else {
				no = append(no, el)
			}
		}
		return &Tuple{Elements: []Object{newList(yes), newList(no)}}
	})

	reg("sort", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("sort", args, 0)
		if errObj != nil {
			return errObj
		}
		out := list.ToSlice()
		var sortErr Object
		sort.SliceStable(out, func(i, j int) bool {
			c, err := compareObjects(out[i], out[j])
			if err != nil && sortErr == nil {
				sortErr = newError("%s", err.Error())
			}
			return c < 0
		})
		if sortErr != nil {
			return sortErr
		}
		return newListWithType(out, list.ElementType)
	})

	reg("sortBy", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("sortBy expects 2 arguments, got %d", len(args))
		}
		list, ok := args[1].(*List)
		if !ok {
			return newError("sortBy expects a List, got %s", args[1].Type())
		}
		out := list.ToSlice()
		var sortErr Object
		sort.SliceStable(out, func(i, j int) bool {
			res := e.ApplyFunction(args[0], []Object{out[i], out[j]})
			if isError(res) {
				if sortErr == nil {
					sortErr = res
				}
				return false
			}
			if boolean, ok := res.(*Boolean); ok {
				return boolean.Value
			}
			if n, ok := res.(*Integer); ok {
				return n.Value < 0
			}
			return false
		})
		if sortErr != nil {
			return sortErr
		}
		return newListWithType(out, list.ElementType)
	})

	reg("unique", func(e *Evaluator, args ...Object) Object {
		list, errObj := argList("unique", args, 0)
		if errObj != nil {
			return errObj
		}
		var out []Object
		for _, el := range list.ToSlice() {
			dup := false
			for _, seen := range out {
				if objectsEqual(el, seen) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, el)
			}
		}
		return newListWithType(out, list.ElementType)
	})

	reg("range", func(e *Evaluator, args ...Object) Object {
		if len(args) != 2 {
			return newError("range expects 2 arguments, got %d", len(args))
		}
		from, ok1 := args[0].(*Integer)
		to, ok2 := args[1].(*Integer)
		if !ok1 || !ok2 {
			return newError("range expects Int bounds")
		}
		var out []Object
		for i := from.Value; i <= to.Value; i++ {
			out = append(out, &Integer{Value: i})
		}
		return newListWithType(out, "Int")
	})

	for name, builtin := range MapBuiltins() {
		b[name] = builtin
	}
	return b
}

// MapBuiltins returns the built-in functions of the lib/map virtual
// package.
func MapBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	argMap := func(name string, args []Object) (*Map, Object) {
		if len(args) == 0 {
			return nil, newError("%s expects a Map argument", name)
		}
		m, ok := args[0].(*Map)
		if !ok {
			return nil, newError("%s expects a Map, got %s", name, args[0].Type())
		}
		return m, nil
	}

	reg("mapNew", func(e *Evaluator, args ...Object) Object {
		return NewMap()
	})

	reg("mapPut", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapPut", args)
		if errObj != nil {
			return errObj
		}
		if len(args) != 3 {
			return newError("mapPut expects 3 arguments, got %d", len(args))
		}
		return m.Put(args[1], args[2])
	})

	reg("mapGet", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapGet", args)
		if errObj != nil {
			return errObj
		}
		if val, ok := m.Get(args[1]); ok {
			return makeSome(val)
		}
		return makeNone()
	})

	reg("mapGetOr", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapGetOr", args)
		if errObj != nil {
			return errObj
		}
		if len(args) != 3 {
			return newError("mapGetOr expects 3 arguments, got %d", len(args))
		}
		if val, ok := m.Get(args[1]); ok {
			return val
		}
		return args[2]
	})

	reg("mapRemove", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapRemove", args)
		if errObj != nil {
			return errObj
		}
		return m.remove(args[1])
	})

	reg("mapContains", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapContains", args)
		if errObj != nil {
			return errObj
		}
		if m.contains(args[1]) {
			return TRUE
		}
		return FALSE
	})

	reg("mapKeys", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapKeys", args)
		if errObj != nil {
			return errObj
		}
		return m.keys()
	})

	reg("mapValues", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapValues", args)
		if errObj != nil {
			return errObj
		}
		var out []Object
		for _, key := range m.keys().ToSlice() {
			out = append(out, m.get(key))
		}
		return newList(out)
	})

	reg("mapItems", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapItems", args)
		if errObj != nil {
			return errObj
		}
		var out []Object
		for _, key := range m.keys().ToSlice() {
			out = append(out, &Tuple{Elements: []Object{key, m.get(key)}})
		}
		return newList(out)
	})

	reg("mapSize", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapSize", args)
		if errObj != nil {
			return errObj
		}
		return &Integer{Value: int64(m.Len())}
	})

	reg("mapMerge", func(e *Evaluator, args ...Object) Object {
		m, errObj := argMap("mapMerge", args)
		if errObj != nil {
			return errObj
		}
		other, ok := args[1].(*Map)
		if !ok {
			return newError("mapMerge expects a Map, got %s", args[1].Type())
		}
		out := m
		for _, key := range other.keys().ToSlice() {
			out = out.Put(key, other.get(key))
		}
		return out
	})

	reg("mapFromRecord", func(e *Evaluator, args ...Object) Object {
		if len(args) != 1 {
			return newError("mapFromRecord expects 1 argument, got %d", len(args))
		}
		rec, ok := args[0].(*RecordInstance)
		if !ok {
			return newError("mapFromRecord expects a Record, got %s", args[0].Type())
		}
		out := NewMap()
		for _, f := range rec.Fields {
			out = out.Put(StringToList(f.Key), f.Value)
		}
		return out
	})

	return b
}
