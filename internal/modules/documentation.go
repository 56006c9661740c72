package modules

// DocEntry documents one symbol of a package for editor tooling.
type DocEntry struct {
	Name        string
	Signature   string
	Description string
}

// DocPackage groups the documentation of one package. "prelude" covers the
// always-available builtins.
type DocPackage struct {
	Name      string
	Functions []DocEntry
	Types     []DocEntry
	Traits    []DocEntry
}

var docPackages = map[string]*DocPackage{}

// GetDocPackage returns the documentation for a package, or nil.
func GetDocPackage(name string) *DocPackage {
	return docPackages[name]
}

// RegisterDocPackage installs (or replaces) a package's documentation.
func RegisterDocPackage(pkg *DocPackage) {
	docPackages[pkg.Name] = pkg
}

// InitDocumentation builds the documentation registry: one DocPackage per
// registered virtual package (derived from its symbol types), plus the
// hand-written prelude entries for builtins that exist outside any
// importable package.
func InitDocumentation() {
	for path, pkg := range virtualPackages {
		doc := &DocPackage{Name: pkg.Name}
		for name, typ := range pkg.Symbols {
			doc.Functions = append(doc.Functions, DocEntry{
				Name:      name,
				Signature: name + " : " + typ.String(),
			})
		}
		for name, typ := range pkg.Types {
			doc.Types = append(doc.Types, DocEntry{
				Name:      name,
				Signature: typ.String(),
			})
		}
		for name, trait := range pkg.Traits {
			sig := name
			if len(trait.TypeParams) > 0 {
				sig += "<"
				for i, tp := range trait.TypeParams {
					if i > 0 {
						sig += ", "
					}
					sig += tp
				}
				sig += ">"
			}
			doc.Traits = append(doc.Traits, DocEntry{Name: sig, Signature: sig})
		}
		docPackages[pkg.Name] = doc
		docPackages[path] = doc
	}

	docPackages["prelude"] = &DocPackage{
		Name: "prelude",
		Functions: []DocEntry{
			{Name: "print", Signature: "print(value) -> Nil", Description: "Writes value to stdout followed by a newline."},
			{Name: "typeOf", Signature: "typeOf(value) -> String", Description: "Returns the runtime type name of value."},
			{Name: "panic", Signature: "panic(message: String)", Description: "Aborts evaluation with message."},
			{Name: "show", Signature: "show(value) -> String", Description: "Renders value using its Show instance."},
			{Name: "read", Signature: "read(s: String) -> Option<a>", Description: "Parses a value from its textual form."},
			{Name: "id", Signature: "id(x: a) -> a", Description: "The identity function."},
			{Name: "constant", Signature: "constant(x: a) -> (b) -> a", Description: "Returns a function that ignores its argument and yields x."},
		},
		Types: []DocEntry{
			{Name: "Int", Signature: "Int", Description: "64-bit signed integer."},
			{Name: "Float", Signature: "Float", Description: "64-bit floating point number."},
			{Name: "Bool", Signature: "Bool", Description: "true or false."},
			{Name: "Char", Signature: "Char", Description: "Unicode code point."},
			{Name: "String", Signature: "String = List<Char>", Description: "A list of characters."},
			{Name: "Option", Signature: "Option<a> = Some(a) | None", Description: "An optional value."},
			{Name: "Result", Signature: "Result<e, a> = Ok(a) | Fail(e)", Description: "Success or failure."},
		},
		Traits: []DocEntry{
			{Name: "Show<a>", Signature: "Show<a>", Description: "Types renderable as text."},
			{Name: "Equal<a>", Signature: "Equal<a>", Description: "Types comparable with == and !=."},
			{Name: "Order<a>", Signature: "Order<a>", Description: "Types with a total ordering."},
			{Name: "Numeric<a>", Signature: "Numeric<a>", Description: "Types supporting arithmetic operators."},
			{Name: "Functor<f>", Signature: "Functor<f>", Description: "Structures that can be mapped over."},
			{Name: "Monad<m>", Signature: "Monad<m>", Description: "Sequenceable computations."},
		},
	}
}
