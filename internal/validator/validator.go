// Package validator collects per-field input problems into a single error.
// Rules are go-playground/validator tags; failures are translated into short
// messages keyed by field name.
package validator

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every *Error.
var ErrInvalid = errors.New("validation failed")

var rules = playground.New()

// oneofParam splits a oneof parameter the way the validator does: quoted values may hold spaces.
var oneofParam = regexp.MustCompile(`'[^']*'|\S+`)

// Error maps field names to the first problem found for each.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrInvalid.Error() + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Validator accumulates field errors.
type Validator struct {
	fields map[string]string
}

func New() *Validator {
	return &Validator{fields: make(map[string]string)}
}

// Check records msg for key when cond is false. Only the first message per key is kept.
func (v *Validator) Check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.fields[key]; !ok {
		v.fields[key] = msg
	}
}

// Var runs the validator tag against value and records the first failing rule under key.
func (v *Validator) Var(value any, tag, key string) {
	if _, ok := v.fields[key]; ok {
		return
	}
	err := rules.Var(value, tag)
	if err == nil {
		return
	}
	var failed playground.ValidationErrors
	if errors.As(err, &failed) && len(failed) > 0 {
		v.fields[key] = message(failed[0])
		return
	}
	v.fields[key] = "is invalid"
}

// Required records a problem when value is blank.
func (v *Validator) Required(value, key string) {
	v.Var(strings.TrimSpace(value), "required", key)
}

func (v *Validator) Email(value, key string) {
	v.Var(value, "required,email", key)
}

func (v *Validator) Valid() bool {
	return len(v.fields) == 0
}

// Err returns nil when no problem was recorded.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &Error{Fields: v.fields}
}

// OneOf builds a oneof tag for the given values, quoting those that contain spaces.
func OneOf[T ~string](values ...T) string {
	parts := make([]string, 0, len(values))
	for _, val := range values {
		s := string(val)
		if strings.ContainsAny(s, " \t") {
			s = "'" + s + "'"
		}
		parts = append(parts, s)
	}
	return "oneof=" + strings.Join(parts, " ")
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	case "oneof":
		values := oneofParam.FindAllString(fe.Param(), -1)
		for i, val := range values {
			values[i] = strings.Trim(val, "'")
		}
		return "must be one of " + strings.Join(values, ", ")
	}
	return "fails the " + fe.Tag() + " rule"
}
