package internal

import (
	"reflect"
	"strconv"
)

// Scalar lists the types request values can be parsed into.
// Named types are accepted, so route keys like `type UserID int64` work.
type Scalar interface {
	~string | ~int | ~int64 | ~uint | ~uint64 | ~float64 | ~bool
}

// ContextValue returns the value stored under key, or the zero T when it is
// missing or has another type.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param parses a path parameter. Unparsable values give the zero T.
func Param[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Param(name))
	return v
}

// Query parses a query parameter. Unparsable values give the zero T.
func Query[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Query(name))
	return v
}

// QueryDefault is Query with a fallback for empty or unparsable values.
func QueryDefault[T Scalar](c Context, name string, defaultValue T) T {
	return orDefault(c.Query(name), defaultValue)
}

// Form parses a form field. Unparsable values give the zero T.
func Form[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Form(name))
	return v
}

// FormDefault is Form with a fallback for empty or unparsable values.
func FormDefault[T Scalar](c Context, name string, defaultValue T) T {
	return orDefault(c.Form(name), defaultValue)
}

func orDefault[T Scalar](raw string, def T) T {
	if raw == "" {
		return def
	}
	if v, ok := parseScalar[T](raw); ok {
		return v
	}
	return def
}

// parseScalar converts raw by the underlying kind of T.
func parseScalar[T Scalar](raw string) (T, bool) {
	var out T
	v := reflect.ValueOf(&out).Elem()

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return out, false
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return out, false
		}
		v.SetUint(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return out, false
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, false
		}
		v.SetBool(b)
	default:
		return out, false
	}
	return out, true
}
