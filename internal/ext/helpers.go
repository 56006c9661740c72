package ext

import "fmt"

// HelpersTemplate returns the ext_helpers.go source written next to the
// generated binding files: the package-main conversion shims the generated
// code calls, all delegating to pkg/ext so the real logic lives in one
// place.
func HelpersTemplate(funxyModulePath string) string {
	return fmt.Sprintf(`// Code generated by funxy ext; DO NOT EDIT.
package main

import (
	"context"
	"fmt"

	ext "%s/pkg/ext"
)

// toFunxy converts any Go value into a Funxy runtime object.
func toFunxy(val interface{}) ext.Object {
	return ext.ToFunxy(val)
}

func toGoInt(obj ext.Object) (int64, error) {
	if v, ok := obj.(*ext.Integer); ok {
		return v.Value, nil
	}
	return 0, fmt.Errorf("expected Int, got %%s", obj.Type())
}

func toGoFloat(obj ext.Object) (float64, error) {
	switch v := obj.(type) {
	case *ext.Float:
		return v.Value, nil
	case *ext.Integer:
		return float64(v.Value), nil
	}
	return 0, fmt.Errorf("expected Float, got %%s", obj.Type())
}

func toGoBool(obj ext.Object) (bool, error) {
	if v, ok := obj.(*ext.Boolean); ok {
		return v.Value, nil
	}
	return false, fmt.Errorf("expected Bool, got %%s", obj.Type())
}

func toGoString(obj ext.Object) (string, error) {
	if v, ok := obj.(*ext.List); ok && ext.IsStringList(v) {
		return ext.ListToString(v), nil
	}
	return "", fmt.Errorf("expected String, got %%s", obj.Type())
}

func toGoBytes(obj ext.Object) ([]byte, error) {
	if v, ok := obj.(*ext.Bytes); ok {
		return v.ToSlice(), nil
	}
	if v, ok := obj.(*ext.List); ok && ext.IsStringList(v) {
		return []byte(ext.ListToString(v)), nil
	}
	return nil, fmt.Errorf("expected Bytes, got %%s", obj.Type())
}

func toGoError(obj ext.Object) (error, error) {
	if _, ok := obj.(*ext.Nil); ok {
		return nil, nil
	}
	s, err := toGoString(obj)
	if err != nil {
		return nil, err
	}
	return fmt.Errorf("%%s", s), nil
}

// toGoContext supplies the context for bound Go calls. Cancellation is
// owned by the host process; bound calls run under Background.
func toGoContext(obj ext.Object) (context.Context, error) {
	_ = obj
	return context.Background(), nil
}

// toGoAny passes a Funxy object through as a Go interface value,
// unwrapping primitives.
func toGoAny(obj ext.Object) (interface{}, error) {
	switch v := obj.(type) {
	case *ext.Nil:
		return nil, nil
	case *ext.Integer:
		return v.Value, nil
	case *ext.Float:
		return v.Value, nil
	case *ext.Boolean:
		return v.Value, nil
	case *ext.Bytes:
		return v.ToSlice(), nil
	case *ext.List:
		if ext.IsStringList(v) {
			return ext.ListToString(v), nil
		}
		elements := v.ToSlice()
		out := make([]interface{}, len(elements))
		for i, el := range elements {
			conv, err := toGoAny(el)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *ext.HostObject:
		return v.Value, nil
	}
	return obj, nil
}
`, funxyModulePath)
}
