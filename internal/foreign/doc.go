// Package foreign instantiates objects inside an embedded Lua runtime by
// qualified name.
//
// A qualified name is a dotted path whose last segment is a symbol and whose
// leading segments name a module:
//
//	b, err := foreign.New(foreign.WithModulePath("./lua"))
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	h, err := b.Instantiate(ctx, "widgets.slider.Slider", 0, 100)
//
// Module "widgets.slider" is loaded from a registered source or from
// widgets/slider.lua under the module path. The symbol may be a function,
// a table with a __call metamethod, or a table with a new function.
//
// Every failure is reported as *InvalidNameError or *InstantiationError.
// Lua's own error values never leave this package.
//
// # Sandbox
//
// The runtime opens only the base, table, string and math libraries.
// dofile, loadfile, load and loadstring are removed, and require resolves
// through the same loader as Instantiate.
package foreign
