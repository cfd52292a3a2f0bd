package foreign

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go argument into a Lua value. Handles must belong to b.
func (b *Bridge) toLua(v any) (lua.LValue, error) {
	switch val := v.(type) {
	case nil:
		return lua.LNil, nil
	case *Handle:
		if val == nil {
			return lua.LNil, nil
		}
		if val.owner != b {
			return nil, ErrForeignHandle
		}
		return val.value, nil
	case bool:
		return lua.LBool(val), nil
	case string:
		return lua.LString(val), nil
	case []byte:
		return lua.LString(val), nil
	case int:
		return lua.LNumber(val), nil
	case int64:
		return lua.LNumber(val), nil
	case float64:
		return lua.LNumber(val), nil
	}
	return b.reflectToLua(reflect.ValueOf(v), 0)
}

const maxConvertDepth = 32

func (b *Bridge) reflectToLua(rv reflect.Value, depth int) (lua.LValue, error) {
	if depth > maxConvertDepth {
		return nil, fmt.Errorf("value nested deeper than %d levels", maxConvertDepth)
	}
	switch rv.Kind() {
	case reflect.Bool:
		return lua.LBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float()), nil
	case reflect.String:
		return lua.LString(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return lua.LNil, nil
		}
		if h, ok := rv.Interface().(*Handle); ok {
			return b.toLua(h)
		}
		return b.reflectToLua(rv.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		t := b.state.CreateTable(rv.Len(), 0)
		for i, n := 0, rv.Len(); i < n; i++ {
			lv, err := b.reflectToLua(rv.Index(i), depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			t.RawSetInt(i+1, lv)
		}
		return t, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not string", rv.Type().Key())
		}
		t := b.state.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			lv, err := b.reflectToLua(iter.Value(), depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", iter.Key().String(), err)
			}
			t.RawSetString(iter.Key().String(), lv)
		}
		return t, nil
	case reflect.Invalid:
		return lua.LNil, nil
	}
	return nil, fmt.Errorf("unsupported argument type %s", rv.Type())
}

// fromLua converts a Lua value into plain Go data. Integral numbers become
// int64, sequences become []any and other tables map[string]any. Functions
// convert to nil. Cycles are cut at the repeated table.
func fromLua(lv lua.LValue) any {
	return fromLuaSeen(lv, make(map[*lua.LTable]bool))
}

func fromLuaSeen(lv lua.LValue, seen map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		return v.Value
	case *lua.LTable:
		if seen[v] {
			return nil
		}
		seen[v] = true
		defer delete(seen, v)
		return tableFromLua(v, seen)
	}
	return nil
}

func tableFromLua(t *lua.LTable, seen map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = fromLuaSeen(t.RawGetInt(i+1), seen)
		}
		return out
	}

	out := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = fromLuaSeen(v, seen)
	})
	return out
}

// fieldNames lists the string keys of a table, sorted.
func fieldNames(t *lua.LTable) []string {
	var names []string
	t.ForEach(func(k, _ lua.LValue) {
		if s, ok := k.(lua.LString); ok {
			names = append(names, string(s))
		}
	})
	sort.Strings(names)
	return names
}
