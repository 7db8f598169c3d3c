// Package validate provides struct-tag validation for request structs.
//
// Rules are comma-separated in the `validate` tag and run in order; the
// first failing rule sets the field's message.
//
//	required            non-zero value (pointer: non-nil)
//	required_if=f:v     required only when sibling field f equals v
//	email               valid email address
//	min=N / max=N       string: rune length | number: value
//	gte=N / lte=N       number bounds
//
// Numeric rules reject NaN and ±Inf.
//	in=a|b|c            value is one of the listed items
//	eqfield=f           value equals sibling field f
//	nullable            skip remaining rules when empty
//
// Field names in messages and in the returned map are the json tag names.
//
//	type ProductRequest struct {
//	    Name  string   `json:"name"  validate:"required,min=2,max=100"`
//	    Price *float64 `json:"price" validate:"required,gte=0"`
//	}
package validate

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Errors maps json field names to messages.
type Errors map[string]string

// Struct validates the exported fields of v that carry a `validate` tag.
// The map is empty when v is valid.
func Struct(v any) Errors {
	errs := Errors{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || !sf.IsExported() {
			continue
		}

		f := field{name: FieldName(sf), value: rv.Field(i), parent: rv}
		rules := strings.Split(tag, ",")

		if isRequiredIfInactive(rules, f) {
			continue
		}
		for _, rule := range rules {
			rule = strings.TrimSpace(rule)
			if rule == "nullable" {
				if isEmpty(f.value) {
					break
				}
				continue
			}
			if msg := apply(rule, f); msg != "" {
				errs[f.name] = msg
				break
			}
		}
	}
	return errs
}

// HasErrors reports whether errs is non-empty.
func HasErrors(errs Errors) bool { return len(errs) > 0 }

// FieldName returns the json name of a struct field.
func FieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

type field struct {
	name   string
	value  reflect.Value
	parent reflect.Value
}

type ruleFunc func(f field, param string) string

var rules map[string]ruleFunc

func init() {
	rules = map[string]ruleFunc{
		"required":    ruleRequired,
		"required_if": ruleRequired,
		"email":       ruleEmail,
		"min":         ruleMin,
		"max":         ruleMax,
		"gte":         ruleGte,
		"lte":         ruleLte,
		"in":          ruleIn,
		"eqfield":     ruleEqField,
	}
}

func apply(rule string, f field) string {
	key, param, _ := strings.Cut(rule, "=")
	fn, ok := rules[key]
	if !ok {
		panic(fmt.Sprintf("validate: unknown rule %q on field %s", key, f.name))
	}
	return fn(f, param)
}

// isRequiredIfInactive reports whether the field carries required_if and
// its condition does not hold, in which case no rule applies.
func isRequiredIfInactive(list []string, f field) bool {
	for _, r := range list {
		key, param, _ := strings.Cut(strings.TrimSpace(r), "=")
		if key != "required_if" {
			continue
		}
		other, want, _ := strings.Cut(param, ":")
		sib, ok := sibling(f.parent, other)
		return !ok || text(sib) != want
	}
	return false
}

func ruleRequired(f field, _ string) string {
	if isEmpty(f.value) {
		return fmt.Sprintf("The %s field is required.", f.name)
	}
	return ""
}

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ruleEmail(f field, _ string) string {
	if !emailRE.MatchString(text(f.value)) {
		return fmt.Sprintf("The %s must be a valid email address.", f.name)
	}
	return ""
}

func ruleMin(f field, param string) string {
	n := parseFloat(param)
	if v, ok := number(f.value); ok {
		if !finite(v) {
			return notANumber(f)
		}
		if v < n {
			return fmt.Sprintf("The %s must be at least %s.", f.name, param)
		}
		return ""
	}
	if float64(len([]rune(strings.TrimSpace(text(f.value))))) < n {
		return fmt.Sprintf("The %s must be at least %s characters.", f.name, param)
	}
	return ""
}

func ruleMax(f field, param string) string {
	n := parseFloat(param)
	if v, ok := number(f.value); ok {
		if !finite(v) {
			return notANumber(f)
		}
		if v > n {
			return fmt.Sprintf("The %s must not be greater than %s.", f.name, param)
		}
		return ""
	}
	if float64(len([]rune(text(f.value)))) > n {
		return fmt.Sprintf("The %s must not exceed %s characters.", f.name, param)
	}
	return ""
}

func ruleGte(f field, param string) string {
	v, ok := number(f.value)
	if ok && !finite(v) {
		return notANumber(f)
	}
	if !ok || v < parseFloat(param) {
		return fmt.Sprintf("The %s must be greater than or equal to %s.", f.name, param)
	}
	return ""
}

func ruleLte(f field, param string) string {
	v, ok := number(f.value)
	if ok && !finite(v) {
		return notANumber(f)
	}
	if !ok || v > parseFloat(param) {
		return fmt.Sprintf("The %s must be less than or equal to %s.", f.name, param)
	}
	return ""
}

func ruleIn(f field, param string) string {
	got := text(f.value)
	for _, allowed := range strings.Split(param, "|") {
		if got == strings.TrimSpace(allowed) {
			return ""
		}
	}
	return fmt.Sprintf("The selected %s is invalid.", f.name)
}

func ruleEqField(f field, param string) string {
	other, ok := sibling(f.parent, param)
	if !ok || text(other) != text(f.value) {
		return fmt.Sprintf("The %s must be equal to %s.", f.name, param)
	}
	return ""
}

func sibling(parent reflect.Value, name string) (reflect.Value, bool) {
	rt := parent.Type()
	for i := 0; i < rt.NumField(); i++ {
		if FieldName(rt.Field(i)) == name {
			return parent.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, true
}

func isEmpty(v reflect.Value) bool {
	viaPtr := v.Kind() == reflect.Ptr
	v, ok := deref(v)
	if !ok {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Bool:
		return false
	}
	if n, isNum := number(v); isNum {
		// A set pointer counts as present even when it points at zero.
		return n == 0 && !viaPtr
	}
	return false
}

func number(v reflect.Value) (float64, bool) {
	v, ok := deref(v)
	if !ok {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// NaN and the infinities pass every comparison they should fail.
func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func notANumber(f field) string {
	return fmt.Sprintf("The %s must be a valid number.", f.name)
}

func text(v reflect.Value) string {
	v, ok := deref(v)
	if !ok {
		return ""
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
