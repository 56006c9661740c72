package evaluator

import (
	"fmt"
	"math/big"

	"github.com/funvibe/funxy/internal/config"
)

// stringToListJson converts a decoded string value into the runtime String
// representation. Identical to StringToList; named separately so the
// json/yaml decode paths read explicitly.
func stringToListJson(s string) Object {
	return StringToList(s)
}

// objectToGo converts a runtime value into plain Go data for the yaml/json
// encoders.
func objectToGo(obj Object) (interface{}, error) {
	switch v := obj.(type) {
	case nil, *Nil:
		return nil, nil
	case *Integer:
		return v.Value, nil
	case *BigInt:
		return v.Value.String(), nil
	case *Rational:
		f, _ := new(big.Float).SetRat(v.Value).Float64()
		return f, nil
	case *Float:
		return v.Value, nil
	case *Boolean:
		return v.Value, nil
	case *Char:
		return string(rune(v.Value)), nil
	case *Bytes:
		return v.ToSlice(), nil
	case *List:
		if IsStringList(v) {
			return ListToString(v), nil
		}
		elements := v.ToSlice()
		out := make([]interface{}, len(elements))
		for i, el := range elements {
			conv, err := objectToGo(el)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *Tuple:
		out := make([]interface{}, len(v.Elements))
		for i, el := range v.Elements {
			conv, err := objectToGo(el)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *RecordInstance:
		out := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			conv, err := objectToGo(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Key] = conv
		}
		return out, nil
	case *Map:
		out := make(map[string]interface{}, v.Len())
		keys := v.keys()
		for _, key := range keys.ToSlice() {
			val := v.get(key)
			conv, err := objectToGo(val)
			if err != nil {
				return nil, err
			}
			keyStr := key.Inspect()
			if kl, ok := key.(*List); ok && IsStringList(kl) {
				keyStr = ListToString(kl)
			}
			out[keyStr] = conv
		}
		return out, nil
	case *DataInstance:
		// Option/Result unwrap transparently; other ADTs encode as a
		// single-key object tagged with the constructor.
		switch v.TypeName {
		case config.OptionTypeName:
			if v.Name == config.SomeCtorName && len(v.Fields) == 1 {
				return objectToGo(v.Fields[0])
			}
			return nil, nil
		case config.ResultTypeName:
			if len(v.Fields) == 1 {
				return objectToGo(v.Fields[0])
			}
		}
		if len(v.Fields) == 0 {
			return v.Name, nil
		}
		fields := make([]interface{}, len(v.Fields))
		for i, f := range v.Fields {
			conv, err := objectToGo(f)
			if err != nil {
				return nil, err
			}
			fields[i] = conv
		}
		return map[string]interface{}{v.Name: fields}, nil
	}
	return nil, fmt.Errorf("cannot encode %s", obj.Type())
}
