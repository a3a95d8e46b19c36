// Package forms holds the editable state behind the product creation view:
// the draft, its nested variant and option arrays, and the errors shown next
// to each field.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/schema"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

var (
	ErrVariantLimit = errors.New("forms: variant limit reached")
	ErrLastVariant  = errors.New("forms: a product needs at least one variant")
	ErrOptionLimit  = errors.New("forms: option limit reached")
	ErrLastOption   = errors.New("forms: a variant needs at least one option")
	ErrNoSuchEntry  = errors.New("forms: no such entry")
)

// ProductForm is one product creation session. It is owned by a single view
// and is not safe for concurrent use.
//
// Errors are kept in sync after every change: messages on fields that now
// pass are dropped, and the array-level rules (duplicate options, duplicate
// combinations, counts) are always recomputed so they show up immediately.
// Field-level messages for untouched fields only appear after Validate.
type ProductForm struct {
	schema *schema.Schema
	draft  models.ProductDraft
	errs   validate.Errors
	remote validate.Errors
}

func NewProductForm(s *schema.Schema) *ProductForm {
	return Load(s, models.NewProductDraft())
}

// Load starts a session from an existing draft, e.g. one read from a file.
func Load(s *schema.Schema, d models.ProductDraft) *ProductForm {
	f := &ProductForm{schema: s, draft: d.Clone(), errs: validate.Errors{}, remote: validate.Errors{}}
	f.revalidate()
	return f
}

// Draft returns a copy of the current draft.
func (f *ProductForm) Draft() models.ProductDraft { return f.draft.Clone() }

func (f *ProductForm) Limits() schema.Limits { return f.schema.Limits() }

// Errors returns a copy of the messages currently shown, by field path.
func (f *ProductForm) Errors() validate.Errors {
	out := make(validate.Errors, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Error returns the message shown for path, if any.
func (f *ProductForm) Error(path string) string { return f.errs[path] }

func (f *ProductForm) VariantCount() int { return len(f.draft.Variants) }

func (f *ProductForm) OptionCount(v int) int {
	if v < 0 || v >= len(f.draft.Variants) {
		return 0
	}
	return len(f.draft.Variants[v].Options)
}

// CanAppendVariant reports whether the "add variant" control is enabled.
func (f *ProductForm) CanAppendVariant() bool {
	max := f.Limits().MaxVariants
	return max <= 0 || len(f.draft.Variants) < max
}

// CanAddOption reports whether the "add option" control of variant v is
// enabled.
func (f *ProductForm) CanAddOption(v int) bool {
	if v < 0 || v >= len(f.draft.Variants) {
		return false
	}
	max := f.Limits().MaxOptions
	return max <= 0 || len(f.draft.Variants[v].Options) < max
}

// ─── Variant collection ──────────────────────────────────────────────────────

// AppendVariant adds a variant holding one empty option and returns its index.
func (f *ProductForm) AppendVariant() (int, error) {
	if !f.CanAppendVariant() {
		return -1, ErrVariantLimit
	}
	f.draft.Variants = append(f.draft.Variants, models.NewVariantDraft())
	f.revalidate()
	return len(f.draft.Variants) - 1, nil
}

// RemoveVariant drops variant i. Messages of later variants move with them.
func (f *ProductForm) RemoveVariant(i int) error {
	if i < 0 || i >= len(f.draft.Variants) {
		return fmt.Errorf("%w: variant %d", ErrNoSuchEntry, i)
	}
	if len(f.draft.Variants) == 1 {
		return ErrLastVariant
	}
	f.draft.Variants = append(f.draft.Variants[:i:i], f.draft.Variants[i+1:]...)
	shiftIndex(f.errs, "variants", i)
	shiftIndex(f.remote, "variants", i)
	f.revalidate()
	return nil
}

// ─── Option entries ──────────────────────────────────────────────────────────

// AddOption appends an empty option to variant v and returns its index.
func (f *ProductForm) AddOption(v int) (int, error) {
	if v < 0 || v >= len(f.draft.Variants) {
		return -1, fmt.Errorf("%w: variant %d", ErrNoSuchEntry, v)
	}
	if !f.CanAddOption(v) {
		return -1, ErrOptionLimit
	}
	opts := f.draft.Variants[v].Options
	f.draft.Variants[v].Options = append(opts[:len(opts):len(opts)], models.OptionEntry{})
	f.revalidate()
	return len(f.draft.Variants[v].Options) - 1, nil
}

// RemoveOption drops option o of variant v.
func (f *ProductForm) RemoveOption(v, o int) error {
	if err := f.checkOption(v, o); err != nil {
		return err
	}
	opts := f.draft.Variants[v].Options
	if len(opts) == 1 {
		return ErrLastOption
	}
	f.draft.Variants[v].Options = append(opts[:o:o], opts[o+1:]...)
	base := validate.Path("variants", v, "option_data")
	shiftIndex(f.errs, base, o)
	shiftIndex(f.remote, base, o)
	f.revalidate()
	return nil
}

func (f *ProductForm) SetOptionType(v, o int, t models.VariantType) error {
	if err := f.checkOption(v, o); err != nil {
		return err
	}
	f.draft.Variants[v].Options[o].VariantType = t
	f.touch(validate.Path("variants", v, "option_data", o, "variant_type"))
	return nil
}

func (f *ProductForm) SetOptionValue(v, o int, value string) error {
	if err := f.checkOption(v, o); err != nil {
		return err
	}
	f.draft.Variants[v].Options[o].Value = value
	f.touch(validate.Path("variants", v, "option_data", o, "value"))
	return nil
}

func (f *ProductForm) checkOption(v, o int) error {
	if v < 0 || v >= len(f.draft.Variants) {
		return fmt.Errorf("%w: variant %d", ErrNoSuchEntry, v)
	}
	if o < 0 || o >= len(f.draft.Variants[v].Options) {
		return fmt.Errorf("%w: option %d of variant %d", ErrNoSuchEntry, o, v)
	}
	return nil
}

// ─── Scalar fields ───────────────────────────────────────────────────────────

// Edit changes any part of the draft through fn. The paths listed in touched
// lose their server-side messages, since the value the server judged is gone.
// Array lengths must be changed with the dedicated methods instead.
func (f *ProductForm) Edit(fn func(d *models.ProductDraft), touched ...string) {
	fn(&f.draft)
	f.touch(touched...)
}

func (f *ProductForm) touch(paths ...string) {
	for _, p := range paths {
		delete(f.remote, p)
	}
	f.revalidate()
}

// ─── Validation ──────────────────────────────────────────────────────────────

// Validate runs the whole schema, replacing every shown message. It is what
// submit calls before anything leaves the process.
func (f *ProductForm) Validate() validate.Errors {
	f.remote = validate.Errors{}
	f.errs = f.schema.Validate(f.draft)
	return f.Errors()
}

// Valid reports whether a full validation would pass.
func (f *ProductForm) Valid() bool { return len(f.schema.Validate(f.draft)) == 0 }

// SetRemoteErrors shows field messages returned by the server. They stay
// until the field is edited or the form is validated again.
func (f *ProductForm) SetRemoteErrors(fields map[string]string) {
	for path, msg := range fields {
		f.remote.Set(path, msg)
		f.errs.Set(path, msg)
	}
}

// Reset discards the draft and every message.
func (f *ProductForm) Reset() {
	f.draft = models.NewProductDraft()
	f.errs = validate.Errors{}
	f.remote = validate.Errors{}
}

func (f *ProductForm) revalidate() {
	fresh := f.schema.Validate(f.draft)
	for path := range f.errs {
		if _, ok := f.remote[path]; ok {
			continue
		}
		if msg, ok := fresh[path]; ok {
			f.errs[path] = msg
			continue
		}
		delete(f.errs, path)
	}
	for path, msg := range f.arrayErrors() {
		f.errs.Set(path, msg)
	}
	for path, msg := range f.remote {
		f.errs.Set(path, msg)
	}
}

// arrayErrors collects the messages attached to the variants array and to
// each option array. These surface as soon as they apply, touched or not.
func (f *ProductForm) arrayErrors() validate.Errors {
	errs := f.schema.ValidateVariantArray(f.draft.Variants)
	for i, v := range f.draft.Variants {
		errs.Merge(f.schema.ValidateVariantOptions(i, v))
	}
	return errs
}

// shiftIndex renumbers the paths under base after entry removed was taken out
// of the array: base.removed.* is dropped and base.k.* becomes base.(k-1).*.
func shiftIndex(errs validate.Errors, base string, removed int) {
	prefix := base + "."
	moved := validate.Errors{}
	for path, msg := range errs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}
		idx, tail, _ := strings.Cut(rest, ".")
		n, err := strconv.Atoi(idx)
		if err != nil || n < removed {
			continue
		}
		delete(errs, path)
		if n == removed {
			continue
		}
		moved.Set(validate.Path(base, n-1, tail), msg)
	}
	for path, msg := range moved {
		errs.Set(path, msg)
	}
}
