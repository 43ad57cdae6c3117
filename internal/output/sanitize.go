package output

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// Sanitize recursively replaces infinite and NaN values with zero so the
// result can be encoded. Structs become maps keyed by their json tag.
func Sanitize(data any) any {
	switch v := data.(type) {
	case nil:
		return nil
	case float64:
		return finite(v)
	case float32:
		return float32(finite(float64(v)))
	case time.Time, time.Duration, string, bool, int, int64:
		return v
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = Sanitize(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = Sanitize(val)
		}
		return result
	case []float64:
		result := make([]float64, len(v))
		for i, val := range v {
			result[i] = finite(val)
		}
		return result
	default:
		return sanitizeWithReflection(data)
	}
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// sanitizeWithReflection uses reflection to sanitize struct fields
func sanitizeWithReflection(data any) any {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	if val.Type().Implements(textMarshalerType) {
		return val.Interface()
	}

	switch val.Kind() {
	case reflect.Struct:
		result := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := val.Field(i)
			fieldType := typ.Field(i)

			// Skip unexported fields
			if !field.CanInterface() {
				continue
			}

			fieldName := fieldType.Name
			omitEmpty := false
			if jsonTag := fieldType.Tag.Get("json"); jsonTag != "" {
				if jsonTag == "-" {
					continue
				}
				parts := strings.Split(jsonTag, ",")
				if parts[0] != "" {
					fieldName = parts[0]
				}
				for _, opt := range parts[1:] {
					omitEmpty = omitEmpty || opt == "omitempty"
				}
			}
			if omitEmpty && field.IsZero() {
				continue
			}

			result[fieldName] = Sanitize(field.Interface())
		}
		return result
	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.IsNil() {
			return nil
		}
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			result[i] = Sanitize(val.Index(i).Interface())
		}
		return result
	case reflect.Map:
		result := make(map[string]any, val.Len())
		for _, key := range val.MapKeys() {
			result[fmt.Sprint(key.Interface())] = Sanitize(val.MapIndex(key).Interface())
		}
		return result
	case reflect.Float64, reflect.Float32:
		return finite(val.Float())
	case reflect.String:
		return val.String()
	default:
		return val.Interface()
	}
}
