// Package validate provides struct-tag validation that walks nested drafts and
// reports every failing field under its full path.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required          field must not be zero/empty (nil pointer, "", empty slice)
//	nullable          if empty, skip all remaining rules for this field
//	numeric           any number
//	integer           whole number
//	min=N             number: min value | string: min chars | slice: min items
//	max=N             number: max value | string: max chars | slice: max items
//	gt=N gte=N        number > N, >= N
//	lt=N lte=N        number < N, <= N
//	between=lo,hi     number or string length between lo and hi (inclusive)
//	in=a,b,c          value must be one of the listed items
//	not_in=a,b,c      value must NOT be one of the listed items
//	regex=pattern     value must match the regex (avoid commas in pattern)
//	alpha_dash        letters, digits, hyphens, underscores
//	when=f:v          only apply the rules after it when sibling f equals v
//	ltfield=f         number must be strictly less than sibling f
//	dive              descend into a struct or a slice of structs
//
// A `msg` tag overrides the message of individual rules, separated by
// semicolons: `msg:"required=SKU is required;max=SKU is too long"`.
//
// Pointers are dereferenced after the required/nullable checks, so `*int64`
// distinguishes "not entered" from zero.
//
// Paths join json names with dots and slice indexes:
//
//	type Option struct {
//	    Type  string `json:"variant_type" validate:"required,in=Color,Size"`
//	}
//	type Variant struct {
//	    Options []Option `json:"option_data" validate:"dive"`
//	}
//	// → errs["option_data.1.variant_type"] = "The selected variant type is invalid."
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Errors maps a field path to its message. One message per path: the first
// failure recorded wins.
type Errors map[string]string

// Add records msg for path unless the path already has a message.
func (e Errors) Add(path, msg string) {
	if _, ok := e[path]; !ok {
		e[path] = msg
	}
}

// Merge copies every entry of o that e does not already have.
func (e Errors) Merge(o Errors) {
	for k, v := range o {
		e.Add(k, v)
	}
}

// Set overwrites the message for path.
func (e Errors) Set(path, msg string) { e[path] = msg }

// Has reports whether path carries a message.
func (e Errors) Has(path string) bool {
	_, ok := e[path]
	return ok
}

// DeletePrefix removes path itself and every path nested under it.
func (e Errors) DeletePrefix(path string) {
	for k := range e {
		if k == path || strings.HasPrefix(k, path+".") {
			delete(e, k)
		}
	}
}

// Paths returns the error paths in sorted order.
func (e Errors) Paths() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HasErrors returns true when errs is non-empty.
func HasErrors(errs Errors) bool { return len(errs) > 0 }

// Path joins segments the way Struct names nested fields.
func Path(segments ...any) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if str := fmt.Sprint(s); str != "" {
			parts = append(parts, str)
		}
	}
	return strings.Join(parts, ".")
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Struct validates every exported field of v that carries a `validate` tag,
// descending into fields marked `dive`.
func Struct(v interface{}) Errors {
	errs := Errors{}
	walk(reflect.ValueOf(v), "", errs)
	return errs
}

func walk(rv reflect.Value, prefix string, errs Errors) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		value := rv.Field(i)
		path := Path(prefix, jsonFieldName(field))
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		c := check{label: labelOf(field), value: value, parent: rv}
		custom := parseMessages(field.Tag.Get("msg"))
		for _, rule := range rules {
			if rule == "nullable" || rule == "dive" {
				continue
			}
			if key, param, _ := strings.Cut(rule, "="); key == "when" {
				if !c.siblingEquals(param) {
					break
				}
				continue
			}
			if msg := c.apply(rule); msg != "" {
				key, _, _ := strings.Cut(rule, "=")
				if m, ok := custom[key]; ok {
					msg = m
				}
				errs.Add(path, msg)
				break
			}
		}

		if hasRule(rules, "dive") {
			descend(value, path, errs)
		}
	}
}

func descend(v reflect.Value, path string, errs Errors) {
	v = deref(v)
	switch v.Kind() {
	case reflect.Struct:
		walk(v, path, errs)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), Path(path, i), errs)
		}
	}
}

// ─── Core dispatcher ──────────────────────────────────────────────────────────

type check struct {
	label  string
	value  reflect.Value
	parent reflect.Value
}

func (c check) apply(rule string) string {
	key, param, _ := strings.Cut(rule, "=")

	if key == "required" {
		if isEmpty(c.value) {
			return fmt.Sprintf("The %s field is required.", c.label)
		}
		return ""
	}

	v := deref(c.value)
	if !v.IsValid() {
		return "" // nil pointer that was not required
	}
	raw := fmt.Sprintf("%v", v.Interface())
	field := c.label

	switch key {
	case "numeric":
		if !isNumericKind(v) {
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return fmt.Sprintf("The %s field must be a number.", field)
			}
		}
	case "integer":
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}
	case "alpha_dash":
		for _, ch := range raw {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' && ch != '_' {
				return fmt.Sprintf("The %s field may only contain letters, numbers, dashes, and underscores.", field)
			}
		}

	case "min":
		n := mustParseFloat(param)
		switch {
		case isNumericKind(v):
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		case isCollection(v):
			if float64(v.Len()) < n {
				return fmt.Sprintf("The %s must have at least %s %s.", field, param, plural(param, "item"))
			}
		default:
			if float64(len([]rune(raw))) < n {
				return fmt.Sprintf("The %s must be at least %s characters.", field, param)
			}
		}
	case "max":
		n := mustParseFloat(param)
		switch {
		case isNumericKind(v):
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		case isCollection(v):
			if float64(v.Len()) > n {
				return fmt.Sprintf("The %s must not have more than %s %s.", field, param, plural(param, "item"))
			}
		default:
			if float64(len([]rune(raw))) > n {
				return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
			}
		}
	case "gt":
		if toFloat(v) <= mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toFloat(v) < mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lt":
		if toFloat(v) >= mustParseFloat(param) {
			return fmt.Sprintf("The %s must be less than %s.", field, param)
		}
	case "lte":
		if toFloat(v) > mustParseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if ok {
			l, h := mustParseFloat(lo), mustParseFloat(hi)
			size := toFloat(v)
			unit := ""
			if !isNumericKind(v) {
				size, unit = float64(len([]rune(raw))), " characters"
			}
			if size < l || size > h {
				return fmt.Sprintf("The %s must be between %s and %s%s.", field, lo, hi, unit)
			}
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "not_in":
		for _, f := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(f) {
				return fmt.Sprintf("The selected %s is invalid.", field)
			}
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid validation pattern.", field)
		}
		if !re.MatchString(raw) {
			return fmt.Sprintf("The %s format is invalid.", field)
		}

	case "ltfield":
		other, otherField, ok := findSibling(c.parent, param)
		if !ok {
			return fmt.Sprintf("The %s cannot be compared with %s.", field, param)
		}
		if o := deref(other); o.IsValid() && toFloat(v) >= toFloat(o) {
			return fmt.Sprintf("The %s must be less than the %s (%v).", field, labelOf(otherField), o.Interface())
		}
	}

	return ""
}

// siblingEquals evaluates a `when=field:value` precondition.
func (c check) siblingEquals(param string) bool {
	name, want, _ := strings.Cut(param, ":")
	other, _, ok := findSibling(c.parent, name)
	if !ok {
		return false
	}
	o := deref(other)
	return o.IsValid() && fmt.Sprintf("%v", o.Interface()) == want
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false // false is a valid boolean value, not empty
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isCollection(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	f, _ := strconv.ParseFloat(fmt.Sprintf("%v", v.Interface()), 64)
	return f
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func plural(n, word string) string {
	if strings.TrimSpace(n) == "1" {
		return word
	}
	return word + "s"
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

// labelOf is the human name used in messages: the `label` tag, or the json
// name with underscores turned into spaces.
func labelOf(f reflect.StructField) string {
	if l := f.Tag.Get("label"); l != "" {
		return l
	}
	return strings.ReplaceAll(jsonFieldName(f), "_", " ")
}

// findSibling looks up the field of parent whose json name is name.
func findSibling(parent reflect.Value, name string) (reflect.Value, reflect.StructField, bool) {
	if parent.Kind() != reflect.Struct {
		return reflect.Value{}, reflect.StructField{}, false
	}
	rt := parent.Type()
	for i := 0; i < rt.NumField(); i++ {
		if jsonFieldName(rt.Field(i)) == name {
			return parent.Field(i), rt.Field(i), true
		}
	}
	return reflect.Value{}, reflect.StructField{}, false
}

// splitRules splits the validate tag by comma while keeping multi-value
// rule parameters (in=, not_in=, between=) intact.
// e.g. "required,in=Color,Size,dive" → ["required","in=Color,Size","dive"]
func splitRules(tag string) []string {
	var rules []string
	var current strings.Builder
	inParam := false

	multiValuePrefixes := []string{"in=", "not_in=", "between="}

	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		if ch != ',' {
			current.WriteByte(ch)
			if !inParam {
				for _, pfx := range multiValuePrefixes {
					if current.String() == pfx {
						inParam = true
						break
					}
				}
			}
			continue
		}

		if inParam && !looksLikeNewRule(tag[i+1:]) {
			current.WriteByte(ch) // comma is part of the param value
			continue
		}
		rules = append(rules, current.String())
		current.Reset()
		inParam = false
	}
	if current.Len() > 0 {
		rules = append(rules, current.String())
	}
	return rules
}

// looksLikeNewRule returns true when s starts with a known rule keyword.
func looksLikeNewRule(s string) bool {
	known := []string{
		"required", "nullable", "numeric", "integer", "alpha_dash", "dive",
		"regex=", "min=", "max=", "gt=", "gte=", "lt=", "lte=",
		"in=", "not_in=", "between=", "when=", "ltfield=",
	}
	for _, k := range known {
		if s == k || strings.HasPrefix(s, k+",") || (strings.HasSuffix(k, "=") && strings.HasPrefix(s, k)) {
			return true
		}
	}
	return false
}

func parseMessages(tag string) map[string]string {
	if tag == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(tag, ";") {
		if rule, msg, ok := strings.Cut(part, "="); ok {
			out[strings.TrimSpace(rule)] = strings.TrimSpace(msg)
		}
	}
	return out
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
