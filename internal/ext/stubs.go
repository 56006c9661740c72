package ext

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GenerateStubs writes one `.funxy/ext/<module>.d.lang` declaration file per
// dependency: Funxy-syntax signatures for every bound function, method, and
// constant, so the analyzer and LSP can type ext calls without building the
// Go binding binary.
func GenerateStubs(cfg *Config, result *InspectResult, projectDir string) error {
	stubDir := filepath.Join(projectDir, ".funxy", "ext")
	if err := os.MkdirAll(stubDir, 0o755); err != nil {
		return fmt.Errorf("creating stub directory: %w", err)
	}

	byModule := map[string][]*ResolvedBinding{}
	for _, b := range result.Bindings {
		name := b.Dep.ExtModuleName()
		byModule[name] = append(byModule[name], b)
	}

	names := make([]string, 0, len(byModule))
	for name := range byModule {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		bindings := byModule[name]
		var sb strings.Builder
		fmt.Fprintf(&sb, "// Code generated by funxy ext; DO NOT EDIT.\n")
		fmt.Fprintf(&sb, "// Declarations for ext/%s (%s)\n\n", name, bindings[0].GoPackagePath)
		fmt.Fprintf(&sb, "package %s (*)\n\n", stubPackageName(name))

		for _, b := range bindings {
			writeBindingStub(&sb, b)
		}

		path := filepath.Join(stubDir, name+".d.lang")
		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("writing stub %s: %w", path, err)
		}
	}
	return nil
}

func stubPackageName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '-' || r == '.' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}

func writeBindingStub(sb *strings.Builder, b *ResolvedBinding) {
	switch {
	case b.FuncBinding != nil:
		writeFuncStub(sb, b.Spec.As, b.FuncBinding.Signature, b.Spec.ErrorToResult, false)

	case b.TypeBinding != nil:
		fmt.Fprintf(sb, "// %s (Go type %s.%s)\n", b.Spec.As, b.GoPackagePath, b.TypeBinding.GoName)
		for _, m := range b.TypeBinding.Methods {
			writeFuncStub(sb, m.FunxyName, m.Signature, b.Spec.ErrorToResult, true)
		}
		sb.WriteString("\n")

	case b.ConstBinding != nil:
		fmt.Fprintf(sb, "// const %s\n%s : %s\n\n", b.ConstBinding.GoName, b.Spec.As, funxyTypeOf(b.ConstBinding.Type))
	}
}

func writeFuncStub(sb *strings.Builder, name string, sig *FuncSignature, errorToResult, method bool) {
	var params []string
	if method {
		params = append(params, "self: HostObject")
	}
	if sig != nil {
		for i, p := range sig.Params {
			if sig.HasContextParam && i == 0 {
				continue
			}
			pname := p.Name
			if pname == "" {
				pname = fmt.Sprintf("arg%d", i)
			}
			t := funxyTypeOf(p.Type)
			if p.IsVariadic || (sig.IsVariadic && i == len(sig.Params)-1) {
				t = "..." + t
			}
			params = append(params, pname+": "+t)
		}
	}

	ret := stubReturnType(sig, errorToResult)
	fmt.Fprintf(sb, "fun %s(%s) -> %s\n", name, strings.Join(params, ", "), ret)
}

func stubReturnType(sig *FuncSignature, errorToResult bool) string {
	if sig == nil {
		return "Nil"
	}
	results := sig.Results
	hasError := sig.HasErrorReturn
	if hasError && len(results) > 0 {
		results = results[:len(results)-1]
	}

	inner := "Nil"
	switch len(results) {
	case 0:
	case 1:
		inner = funxyTypeOf(results[0].Type)
	default:
		parts := make([]string, len(results))
		for i, r := range results {
			parts[i] = funxyTypeOf(r.Type)
		}
		inner = "(" + strings.Join(parts, ", ") + ")"
	}

	if hasError && errorToResult {
		return "Result<String, " + inner + ">"
	}
	return inner
}

// funxyTypeOf maps a Go type reference onto the Funxy type it crosses the
// boundary as. The inspector precomputes FunxyType for most shapes; the
// structural fallbacks below cover refs built without it.
func funxyTypeOf(t GoTypeRef) string {
	if t.FunxyType != "" {
		return t.FunxyType
	}
	switch t.Kind {
	case GoTypeBasic:
		switch {
		case strings.Contains(t.GoString, "int"):
			return "Int"
		case strings.Contains(t.GoString, "float"):
			return "Float"
		case t.GoString == "bool":
			return "Bool"
		case t.GoString == "string":
			return "String"
		}
		return "Int"
	case GoTypeByteSlice:
		return "Bytes"
	case GoTypeSlice, GoTypeArray:
		if t.ElemType != nil {
			return "List<" + funxyTypeOf(*t.ElemType) + ">"
		}
		return "List<a>"
	case GoTypeMap:
		key, val := "a", "b"
		if t.KeyType != nil {
			key = funxyTypeOf(*t.KeyType)
		}
		if t.ElemType != nil {
			val = funxyTypeOf(*t.ElemType)
		}
		return "Map<" + key + ", " + val + ">"
	case GoTypeError:
		return "String"
	case GoTypeFunc:
		return "Function"
	case GoTypePtr:
		if t.ElemType != nil {
			return funxyTypeOf(*t.ElemType)
		}
		return "HostObject"
	case GoTypeTypeParam:
		return strings.ToLower(t.TypeName)
	}
	return "HostObject"
}
