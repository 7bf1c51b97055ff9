package geom

import (
	"encoding/json"
	"reflect"
)

// ParseScalar converts a dynamically typed number into a float64. Integer
// and floating-point kinds are accepted, as is json.Number. Booleans,
// strings, nil and collections fail with ErrTypeMismatch.
func ParseScalar(v interface{}) (float64, error) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return 0, typeErrorf("%q is not a number", n.String())
		}
		return f, nil
	}
	if v == nil {
		return 0, typeErrorf("expected a number, got nil")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	default:
		return 0, typeErrorf("expected a number, got %T", v)
	}
}

// ParseVector converts a dynamically typed ordered sequence into a Vector.
// Slices and arrays of numbers (including []interface{} holding numbers)
// are accepted. Maps are rejected because they carry no element order;
// strings, scalars, nil and nested collections are rejected as well.
func ParseVector(v interface{}) (Vector, error) {
	if v == nil {
		return nil, typeErrorf("expected an ordered numeric sequence, got nil")
	}
	if vec, ok := v.(Vector); ok {
		return CloneVector(vec), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	case reflect.Map:
		return nil, typeErrorf("unordered collection %T is not a vector", v)
	default:
		return nil, typeErrorf("expected an ordered numeric sequence, got %T", v)
	}

	out := make(Vector, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		f, err := ParseScalar(rv.Index(i).Interface())
		if err != nil {
			return nil, typeErrorf("element %d: expected a number, got %T", i, rv.Index(i).Interface())
		}
		out[i] = f
	}
	return out, nil
}

// ParseOrder converts an optional Minkowski order. A nil value means the
// order was not supplied and yields an empty slice.
func ParseOrder(v interface{}) ([]float64, error) {
	if v == nil {
		return nil, nil
	}
	p, err := ParseScalar(v)
	if err != nil {
		return nil, typeErrorf("minkowski order: expected a number, got %T", v)
	}
	return []float64{p}, nil
}
