package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// CoerceFields filters raw analyzer output down to the schema's keys and
// coerces every value to its declared primitive type. Keys outside the schema
// are dropped. A value that cannot be coerced is dropped and reported as a
// per-field warning rather than failing the analysis.
func CoerceFields(schema map[string]FieldSpec, raw map[string]any) (map[string]any, []string) {
	fields := make(map[string]any, len(raw))
	var warnings []string

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, ok := schema[name]
		if !ok {
			continue
		}
		value, err := coerceValue(spec.Type, raw[name])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("field %q: %v", name, err))
			continue
		}
		fields[name] = value
	}
	return fields, warnings
}

func coerceValue(fieldType FieldType, value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("null value")
	}

	switch fieldType {
	case FieldString:
		return coerceString(value)
	case FieldNumber:
		return coerceNumber(value)
	case FieldBoolean:
		return coerceBoolean(value)
	case FieldDate:
		return coerceDate(value)
	default:
		return nil, fmt.Errorf("unsupported type %q", fieldType)
	}
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, fmt.Errorf("cannot represent %T as string", value)
	}
}

func coerceNumber(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v.String())
		}
		return n, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot represent %T as number", value)
	}
}

func coerceBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot represent %T as boolean", value)
	}
}

func coerceDate(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(dateLayout), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if t, err := time.Parse(dateLayout, trimmed); err == nil {
			return t.Format(dateLayout), nil
		}
		if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
			return t.UTC().Format(dateLayout), nil
		}
		return nil, fmt.Errorf("not a date: %q", v)
	default:
		return nil, fmt.Errorf("cannot represent %T as date", value)
	}
}
