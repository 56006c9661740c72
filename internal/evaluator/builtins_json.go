package evaluator

import (
	"encoding/json"
)

// JsonBuiltins returns built-in functions for the lib/json virtual package.
func JsonBuiltins() map[string]*Builtin {
	b := map[string]*Builtin{}
	reg := func(name string, fn BuiltinFunction) {
		b[name] = &Builtin{Name: name, Fn: fn}
	}

	reg("jsonEncode", func(e *Evaluator, args ...Object) Object {
		if len(args) != 1 {
			return newError("jsonEncode expects 1 argument, got %d", len(args))
		}
		value, err := objectToGo(args[0])
		if err != nil {
			return newError("jsonEncode: %s", err.Error())
		}
		data, err := json.Marshal(value)
		if err != nil {
			return newError("jsonEncode: %s", err.Error())
		}
		return StringToList(string(data))
	})

	reg("jsonDecode", func(e *Evaluator, args ...Object) Object {
		list, ok := args[0].(*List)
		if !ok || !IsStringList(list) {
			return newError("jsonDecode expects a String, got %s", args[0].Type())
		}
		var value interface{}
		if err := json.Unmarshal([]byte(ListToString(list)), &value); err != nil {
			return makeFailStr(err.Error())
		}
		obj, err := inferFromYaml(value) // same Go-value mapping as YAML decode
		if err != nil {
			return makeFailStr(err.Error())
		}
		return makeOk(obj)
	})

	return b
}
