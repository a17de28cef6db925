package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

var (
	// integerPattern matches a leading run of decimal digits. Only the start
	// of the value is anchored; trailing garbage is caught by the conversion.
	integerPattern = regexp.MustCompile(`^\d+`)

	// datePattern matches a leading YYYY-MM-DD date.
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// DateLayout is the layout accepted by the Date validator.
const DateLayout = "2006-01-02"

var errNoText = errors.New("value has no string representation")

// String requires Field and converts its value to a string.
type String struct {
	Field string
}

// Process implements Validator.
func (s String) Process(rec Record) (Record, error) {
	v, err := requireField(rec, s.Field)
	if err != nil {
		return nil, err
	}
	text, err := toText(v)
	if err != nil {
		return nil, types.NewValidationError(s.Field, types.InvalidFieldValue, err)
	}
	rec[s.Field] = text
	return rec, nil
}

// Integer requires Field, checks that it is written as decimal digits, and
// converts it to int64.
type Integer struct {
	Field string
}

// Process implements Validator.
func (i Integer) Process(rec Record) (Record, error) {
	v, err := requireField(rec, i.Field)
	if err != nil {
		return nil, err
	}

	if n, ok := asInt64(v); ok {
		if n < 0 {
			return nil, types.NewValidationError(i.Field, types.InvalidFieldFormat, nil)
		}
		rec[i.Field] = n
		return rec, nil
	}

	text, err := toText(v)
	if err != nil {
		return nil, types.NewValidationError(i.Field, types.InvalidFieldFormat, err)
	}
	if err := requireFormat(i.Field, text, integerPattern); err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, types.NewValidationError(i.Field, types.InvalidFieldValue, err)
	}
	rec[i.Field] = n
	return rec, nil
}

// Default injects Value when Field is absent. An existing value is never
// overwritten.
type Default struct {
	Field string
	Value any
}

// Process implements Validator.
func (d Default) Process(rec Record) (Record, error) {
	if _, ok := rec[d.Field]; !ok {
		rec[d.Field] = d.Value
	}
	return rec, nil
}

// Date requires Field and converts a YYYY-MM-DD value to a time.Time at
// midnight UTC.
type Date struct {
	Field string
}

// Process implements Validator.
func (d Date) Process(rec Record) (Record, error) {
	v, err := requireField(rec, d.Field)
	if err != nil {
		return nil, err
	}
	if t, ok := v.(time.Time); ok {
		rec[d.Field] = t
		return rec, nil
	}

	text, err := toText(v)
	if err != nil {
		return nil, types.NewValidationError(d.Field, types.InvalidFieldFormat, err)
	}
	if err := requireFormat(d.Field, text, datePattern); err != nil {
		return nil, err
	}
	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return nil, types.NewValidationError(d.Field, types.InvalidFieldValue, err)
	}
	rec[d.Field] = t
	return rec, nil
}

// Enum requires Field and checks that its string form is one of Values.
type Enum struct {
	Field  string
	Values []string
}

// Process implements Validator.
func (e Enum) Process(rec Record) (Record, error) {
	v, err := requireField(rec, e.Field)
	if err != nil {
		return nil, err
	}
	text, err := toText(v)
	if err != nil {
		return nil, types.NewValidationError(e.Field, types.InvalidFieldValue, err)
	}
	if !slices.Contains(e.Values, text) {
		err := fmt.Errorf("%q is not one of %v", text, e.Values)
		return nil, types.NewValidationError(e.Field, types.InvalidFieldValue, err)
	}
	rec[e.Field] = text
	return rec, nil
}

// toText returns the string representation of scalar values. Values without
// one (nil, maps, slices, structs) return errNoText.
func toText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case []byte:
		return string(x), nil
	}
	if n, ok := asInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	if u, ok := v.(uint64); ok {
		return strconv.FormatUint(u, 10), nil
	}
	return "", fmt.Errorf("%w: %T", errNoText, v)
}

// asInt64 reports whether v is a Go integer that fits in int64.
func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > 1<<63-1 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > 1<<63-1 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}
