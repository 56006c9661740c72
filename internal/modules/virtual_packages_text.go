package modules

import (
	"github.com/funvibe/funxy/internal/typesystem"
)

// initYamlPackage registers the lib/yaml virtual package.
func initYamlPackage() {
	stringType := typesystem.TApp{
		Constructor: ListCon,
		Args:        []typesystem.Type{typesystem.Char},
	}
	resultType := func(t typesystem.Type) typesystem.Type {
		return typesystem.TApp{
			Constructor: ResultCon,
			Args:        []typesystem.Type{stringType, t},
		}
	}
	tVar := typesystem.TVar{Name: "T"}
	aVar := typesystem.TVar{Name: "A"}

	pkg := &VirtualPackage{
		Name: "yaml",
		Symbols: map[string]typesystem.Type{
			// yamlDecode<T>(yaml: String) -> Result<T, String>
			"yamlDecode": typesystem.TFunc{
				Params:     []typesystem.Type{stringType},
				ReturnType: resultType(tVar),
			},
			// yamlEncode(value) -> String
			"yamlEncode": typesystem.TFunc{
				Params:     []typesystem.Type{aVar},
				ReturnType: stringType,
			},
			// yamlRead<T>(path: String) -> Result<T, String>
			"yamlRead": typesystem.TFunc{
				Params:     []typesystem.Type{stringType},
				ReturnType: resultType(tVar),
			},
			// yamlWrite(path: String, value) -> Result<Nil, String>
			"yamlWrite": typesystem.TFunc{
				Params:     []typesystem.Type{stringType, aVar},
				ReturnType: resultType(typesystem.Nil),
			},
		},
	}
	RegisterVirtualPackage("lib/yaml", pkg)
}

// initTermPackage registers the lib/term virtual package.
func initTermPackage() {
	stringType := typesystem.TApp{
		Constructor: ListCon,
		Args:        []typesystem.Type{typesystem.Char},
	}
	resultType := func(t typesystem.Type) typesystem.Type {
		return typesystem.TApp{
			Constructor: ResultCon,
			Args:        []typesystem.Type{stringType, t},
		}
	}
	intPair := typesystem.TTuple{Elements: []typesystem.Type{typesystem.Int, typesystem.Int}}

	pkg := &VirtualPackage{
		Name: "term",
		Symbols: map[string]typesystem.Type{
			"termIsTTY": typesystem.TFunc{
				ReturnType: typesystem.Bool,
			},
			"termSize": typesystem.TFunc{
				ReturnType: resultType(intPair),
			},
			"termColors": typesystem.TFunc{
				ReturnType: typesystem.Int,
			},
			"termClear": typesystem.TFunc{
				ReturnType: typesystem.Nil,
			},
			"termClearLine": typesystem.TFunc{
				ReturnType: typesystem.Nil,
			},
			"termRaw": typesystem.TFunc{
				ReturnType: resultType(typesystem.Nil),
			},
			"termRestore": typesystem.TFunc{
				ReturnType: resultType(typesystem.Nil),
			},
			"termBufferStart": typesystem.TFunc{
				ReturnType: typesystem.Nil,
			},
			"termBufferFlush": typesystem.TFunc{
				ReturnType: typesystem.Nil,
			},
		},
	}
	RegisterVirtualPackage("lib/term", pkg)
}
