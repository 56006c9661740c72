package evaluator

import (
	"fmt"
	"unsafe"

	"github.com/funvibe/funxy/internal/config"
)

// StringToList converts a Go string into the runtime String representation
// (a List of Chars).
func StringToList(s string) *List {
	runes := []rune(s)
	elements := make([]Object, len(runes))
	for i, r := range runes {
		elements[i] = &Char{Value: int64(r)}
	}
	return newListWithType(elements, "Char")
}

// IsStringList reports whether every element of list is a Char, i.e. the
// list is a String at runtime.
func IsStringList(list *List) bool {
	if list == nil {
		return false
	}
	for _, el := range list.ToSlice() {
		if _, ok := el.(*Char); !ok {
			return false
		}
	}
	return true
}

// makeZero builds the Zero alternative of Option, the identity MonadZero
// and Monoid instances hand out.
func makeZero() Object {
	return &DataInstance{
		Name:     "Zero",
		Fields:   []Object{},
		TypeName: config.OptionTypeName,
	}
}

// GetContentBytes extracts raw bytes from a write-style argument: Bytes
// pass through, strings (List<Char>) are UTF-8 encoded.
func GetContentBytes(obj Object) ([]byte, error) {
	switch v := obj.(type) {
	case *Bytes:
		return v.ToSlice(), nil
	case *List:
		if IsStringList(v) {
			return []byte(ListToString(v)), nil
		}
		return nil, fmt.Errorf("content must be String or Bytes, got list of mixed elements")
	}
	return nil, fmt.Errorf("content must be String or Bytes, got %s", obj.Type())
}

// isNativeLittleEndian reports the host byte order, used by the bytes
// builtins' "native" endianness mode.
func isNativeLittleEndian() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}
