// Package value defines the runtime data model shared by the
// interpreter and generated rendering code.
//
// A Value is a tagged union over the seven runtime variants: null,
// bool, int, float, string, array, and keyed object. Lookups never
// fail: a missing field or mismatched variant yields the null value, a
// deliberate leniency of the template language.
package value

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the runtime variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns a printable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one runtime datum. The zero value is null.
type Value struct {
	kind Kind

	b   bool
	i   int64
	f   float64
	s   string
	arr []Value
	obj map[string]Value
}

// Null is the absent value.
var Null = Value{}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a sequence.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// Object wraps a keyed map.
func Object(fields map[string]Value) Value {
	return Value{kind: KindObject, obj: fields}
}

// Kind returns the runtime variant of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy reports whether the value is true in a conditional: non-zero
// numbers, true, non-empty strings, and non-empty collections.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.obj) > 0
	default:
		return false
	}
}

// Bool returns the boolean payload, false for other variants.
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Int returns the integer payload, truncating floats, zero otherwise.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	default:
		return 0
	}
}

// Float returns the float payload, widening ints, zero otherwise.
func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	default:
		return 0
	}
}

// Items returns the array payload, nil for other variants.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}

	return v.arr
}

// Fields returns the object payload, nil for other variants.
func (v Value) Fields() map[string]Value {
	if v.kind != KindObject {
		return nil
	}

	return v.obj
}

// Keys returns the object's keys in sorted order so that iteration is
// deterministic across renders.
func (v Value) Keys() []string {
	if v.kind != KindObject || len(v.obj) == 0 {
		return nil
	}

	keys := make([]string, 0, len(v.obj))
	for key := range v.obj {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// Len returns the element count of an array or object, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Field resolves one step of a dotted path: an object field by name, or
// null for any other variant or a missing key.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Null
	}

	return v.obj[name]
}

// Path resolves a dotted path of field accesses, degrading to null at
// the first missing step.
func (v Value) Path(path string) Value {
	cur := v

	for path != "" {
		var name string

		name, path, _ = strings.Cut(path, ".")

		cur = cur.Field(name)
		if cur.IsNull() {
			return Null
		}
	}

	return cur
}

// Render returns the value's textual form for template output. Null
// renders as the empty string; arrays join their items with commas.
func (v Value) Render() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.Render()
		}

		return strings.Join(parts, ",")
	case KindObject:
		parts := make([]string, 0, len(v.obj))
		for _, key := range v.Keys() {
			parts = append(parts, key+":"+v.obj[key].Render())
		}

		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// Equal compares two values with the permissive cross-type coercion
// used by case dispatch: numbers compare across int/float, and strings
// compare equal to the number or boolean they spell.
func Equal(a, b Value) bool {
	if a.kind == b.kind {
		return equalSameKind(a, b)
	}

	// One explicit coercion table, checked in both directions.
	return coerceEqual(a, b) || coerceEqual(b, a)
}

func equalSameKind(a, b Value) bool {
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	default:
		// Arrays and objects compare by identity of rendering.
		return a.Render() == b.Render()
	}
}

// coerceEqual implements one direction of the cross-type table.
func coerceEqual(a, b Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindFloat:
		return float64(a.i) == b.f

	case a.kind == KindString && b.kind == KindInt:
		i, err := strconv.ParseInt(a.s, 10, 64)

		return err == nil && i == b.i

	case a.kind == KindString && b.kind == KindFloat:
		f, err := strconv.ParseFloat(a.s, 64)

		return err == nil && f == b.f

	case a.kind == KindString && b.kind == KindBool:
		t, err := strconv.ParseBool(a.s)

		return err == nil && t == b.b

	default:
		return false
	}
}

// Of converts arbitrary Go data into the value model: structs and
// string-keyed maps become objects, slices and arrays become arrays,
// primitives map directly, and nil becomes null.
func Of(data any) Value {
	if data == nil {
		return Null
	}

	if v, ok := data.(Value); ok {
		return v
	}

	return ofReflect(reflect.ValueOf(data))
}

func ofReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}

		return ofReflect(rv.Elem())

	case reflect.Bool:
		return Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		return Int(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return Int(int64(rv.Uint()))

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())

	case reflect.String:
		return String(rv.String())

	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = ofReflect(rv.Index(i))
		}

		return Value{kind: KindArray, arr: items}

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null
		}

		fields := make(map[string]Value, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = ofReflect(iter.Value())
		}

		return Object(fields)

	case reflect.Struct:
		return ofStruct(rv)

	default:
		return Null
	}
}

// ofStruct converts exported struct fields to object entries, keyed by
// field name.
func ofStruct(rv reflect.Value) Value {
	rt := rv.Type()
	fields := make(map[string]Value, rt.NumField())

	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("plume"); ok && tag != "" {
			name = tag
		}

		fields[name] = ofReflect(rv.Field(i))
	}

	return Object(fields)
}
