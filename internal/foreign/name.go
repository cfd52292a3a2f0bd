package foreign

import "strings"

// Separator splits module path segments and the trailing symbol.
const Separator = "."

// QualifiedName is a parsed module.symbol reference.
type QualifiedName struct {
	Module string
	Symbol string
}

// ParseName splits name into module and symbol. At least two non-empty
// segments are required.
func ParseName(name string) (QualifiedName, error) {
	parts := strings.Split(name, Separator)
	if len(parts) < 2 {
		return QualifiedName{}, &InvalidNameError{Name: name}
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return QualifiedName{}, &InvalidNameError{Name: name}
		}
	}
	last := len(parts) - 1
	return QualifiedName{
		Module: strings.Join(parts[:last], Separator),
		Symbol: parts[last],
	}, nil
}

// String joins the name back together.
func (q QualifiedName) String() string {
	return q.Module + Separator + q.Symbol
}

// moduleFile maps a module name to a path relative to the module root.
func moduleFile(module string) string {
	return strings.ReplaceAll(module, Separator, "/") + ".lua"
}
