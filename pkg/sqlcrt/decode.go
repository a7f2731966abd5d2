package sqlcrt

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// RowParser is implemented by record shapes that decode themselves.
// Errors returned by ParseRow are reported as validation errors.
type RowParser interface {
	ParseRow(row Row) error
}

type shapeField struct {
	name     string
	column   string
	index    []int
	required bool
}

type shape struct {
	name        string
	fields      []shapeField
	hasValidate bool
}

var shapes sync.Map // reflect.Type -> *shape

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// Decode builds a T from row.
//
// When *T implements RowParser that is used. Otherwise T must be a struct:
// columns map onto exported fields by their `db` tag, or the snake_case field
// name when the tag is absent. A field is required unless it is a pointer or
// its tag has the omitempty option. Once every column is assigned, `validate`
// tags are checked.
//
// Every failure is a *ValidationError. No value is returned on failure.
func Decode[T any](row Row) (*T, error) {
	out := new(T)

	if p, ok := any(out).(RowParser); ok {
		if err := p.ParseRow(row); err != nil {
			return nil, parserError(reflect.TypeOf(out).Elem(), err)
		}

		return out, nil
	}

	rv := reflect.ValueOf(out).Elem()
	if rv.Kind() != reflect.Struct {
		return nil, &ValidationError{
			Shape:  rv.Type().String(),
			Issues: []FieldIssue{{Message: "record shape must be a struct"}},
		}
	}

	s := shapeOf(rv.Type())

	var issues []FieldIssue

	for _, f := range s.fields {
		v, ok := row.Get(f.column)
		if !ok {
			if f.required {
				issues = append(issues, FieldIssue{Field: f.name, Column: f.column, Message: "field required"})
			}

			continue
		}

		if err := assign(rv.FieldByIndex(f.index), v, f.required); err != nil {
			issues = append(issues, FieldIssue{Field: f.name, Column: f.column, Message: err.Error()})
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Shape: s.name, Issues: issues}
	}

	if s.hasValidate {
		if err := validateShape(s, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func shapeOf(t reflect.Type) *shape {
	if s, ok := shapes.Load(t); ok {
		return s.(*shape)
	}

	s := &shape{name: t.String()}
	collectFields(t, nil, s)

	actual, _ := shapes.LoadOrStore(t, s)

	return actual.(*shape)
}

func collectFields(t reflect.Type, parent []int, s *shape) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("db") == "" {
			collectFields(f.Type, index, s)
			continue
		}

		if !f.IsExported() {
			continue
		}

		if f.Tag.Get("validate") != "" {
			s.hasValidate = true
		}

		name, opts, _ := strings.Cut(f.Tag.Get("db"), ",")
		if name == "-" {
			continue
		}

		if name == "" {
			name = ToSnakeCase(f.Name)
		}

		s.fields = append(s.fields, shapeField{
			name:     f.Name,
			column:   name,
			index:    index,
			required: f.Type.Kind() != reflect.Ptr && !strings.Contains(opts, "omitempty"),
		})
	}
}

func assign(dst reflect.Value, v any, required bool) error {
	if reflect.PointerTo(dst.Type()).Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(v)
	}

	if v == nil {
		switch dst.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		default:
			if required {
				return fmt.Errorf("null is not a valid %s", dst.Type())
			}
		}

		dst.SetZero()

		return nil
	}

	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v, true); err != nil {
			return err
		}

		dst.Set(elem)

		return nil
	}

	src := reflect.ValueOf(v)

	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	if err := convert(dst, src); err != nil {
		return fmt.Errorf("cannot use %T value as %s: %w", v, dst.Type(), err)
	}

	return nil
}

var errIncompatible = errors.New("incompatible type")

//nolint:exhaustive // Only scalar destinations are coerced.
func convert(dst, src reflect.Value) error {
	if src.Kind() == reflect.String || isBytes(src) {
		return convertText(dst, textOf(src))
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := integerOf(src)
		if !ok || dst.OverflowInt(n) {
			return errIncompatible
		}

		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := integerOf(src)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return errIncompatible
		}

		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, ok := floatOf(src)
		if !ok || dst.OverflowFloat(f) {
			return errIncompatible
		}

		dst.SetFloat(f)
	case reflect.Bool:
		n, ok := integerOf(src)
		if !ok || (n != 0 && n != 1) {
			return errIncompatible
		}

		dst.SetBool(n == 1)
	case reflect.String:
		return errIncompatible
	default:
		if src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind() {
			dst.Set(src.Convert(dst.Type()))
			return nil
		}

		return errIncompatible
	}

	return nil
}

//nolint:exhaustive // Only scalar destinations are parsed from text.
func convertText(dst reflect.Value, s string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(s)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.Uint8 {
			return errIncompatible
		}

		dst.SetBytes([]byte(s))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || dst.OverflowInt(n) {
			return errIncompatible
		}

		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil || dst.OverflowUint(n) {
			return errIncompatible
		}

		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || dst.OverflowFloat(f) {
			return errIncompatible
		}

		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return errIncompatible
		}

		dst.SetBool(b)
	default:
		return errIncompatible
	}

	return nil
}

func isBytes(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

func textOf(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}

	return string(v.Bytes())
}

//nolint:exhaustive // Non numeric kinds are rejected.
func integerOf(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}

		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}

		return int64(f), true
	case reflect.Bool:
		if v.Bool() {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

//nolint:exhaustive // Non numeric kinds are rejected.
func floatOf(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

var matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
var matchAllCap = regexp.MustCompile("([a-z0-9])([A-Z])")

// ToSnakeCase converts a Go field name to the column name it maps to by default.
func ToSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")

	return strings.ToLower(snake)
}
