// Package schema holds the rules a product draft must satisfy before it is
// uploaded. Field rules live on the model tags; the cross-field rules live
// here as plain functions over the draft.
package schema

import (
	"fmt"
	"strings"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/collection"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

const (
	MsgAtLeastOneVariant    = "At least one variant required"
	MsgAtLeastOneOption     = "At least one option required"
	MsgDuplicateOption      = "Duplicate variant type and value within a variant are not allowed"
	MsgDuplicateCombination = "Duplicate variant option combinations are not allowed"
	MsgDuplicateSKU         = "SKU is already used by another variant of this product"
	MsgProductImageRequired = "Product image is required"
	MsgVariantImageRequired = "Variant image is required"
	variantsPath            = "variants"
	optionsField            = "option_data"
)

// Limits caps the variant and option arrays. The form editor and the schema
// read the same value.
type Limits struct {
	MaxVariants int
	MaxOptions  int
}

func DefaultLimits() Limits { return Limits{MaxVariants: 3, MaxOptions: 2} }

// LimitsFromConfig reads MAX_VARIANTS and MAX_OPTIONS_PER_VARIANT.
func LimitsFromConfig() Limits {
	return Limits{MaxVariants: config.MaxVariants(), MaxOptions: config.MaxOptionsPerVariant()}
}

// Rule inspects a draft and reports violations by field path. Rules never
// modify the draft.
type Rule func(d *models.ProductDraft) validate.Errors

type Schema struct {
	limits Limits
	rules  []Rule
}

// New builds the product schema. Extra rules run after the built-in ones.
func New(limits Limits, extra ...Rule) *Schema {
	rules := []Rule{
		Fields,
		Images,
		VariantCount(limits.MaxVariants),
		OptionCount(limits.MaxOptions),
		DuplicateOptions,
		DuplicateCombinations,
		DuplicateSKUs,
	}
	return &Schema{limits: limits, rules: append(rules, extra...)}
}

func (s *Schema) Limits() Limits { return s.limits }

// Validate runs every rule and collects all violations. The first message
// recorded for a path wins. An empty result means the draft is valid.
func (s *Schema) Validate(d models.ProductDraft) validate.Errors {
	c := d.Clone()
	errs := validate.Errors{}
	for _, rule := range s.rules {
		errs.Merge(rule(&c))
	}
	return errs
}

// ValidateVariantOptions re-runs the option rules of one variant. The form
// uses it, with ValidateVariantArray, to refresh array-level messages after
// every edit.
func (s *Schema) ValidateVariantOptions(index int, v models.VariantDraft) validate.Errors {
	errs := validate.Errors{}
	path := validate.Path(variantsPath, index, optionsField)
	if msg := optionCountMessage(len(v.Options), s.limits.MaxOptions); msg != "" {
		errs.Add(path, msg)
	}
	if dup := FindDuplicateOption(index, v); dup != nil {
		errs.Add(dup.Path(), dup.Error())
	}
	return errs
}

// ValidateVariantArray re-runs the rules attached to the variants array as a
// whole: the count limits and the combination signature rule.
func (s *Schema) ValidateVariantArray(variants []models.VariantDraft) validate.Errors {
	d := &models.ProductDraft{Variants: variants}
	errs := VariantCount(s.limits.MaxVariants)(d)
	errs.Merge(DuplicateCombinations(d))
	return errs
}

// ─── Rules ───────────────────────────────────────────────────────────────────

// Fields applies the struct-tag rules of the draft models.
func Fields(d *models.ProductDraft) validate.Errors { return validate.Struct(d) }

// Images rejects blob references with an empty path. Nil references are left
// to the required tag.
func Images(d *models.ProductDraft) validate.Errors {
	errs := validate.Errors{}
	if d.ProductImage != nil && d.ProductImage.Empty() {
		errs.Add("ProductImage", MsgProductImageRequired)
	}
	for i, v := range d.Variants {
		if v.Image != nil && v.Image.Empty() {
			errs.Add(validate.Path(variantsPath, i, "image"), MsgVariantImageRequired)
		}
	}
	return errs
}

// VariantCount requires at least one variant and at most max (max <= 0 means
// no cap).
func VariantCount(max int) Rule {
	return func(d *models.ProductDraft) validate.Errors {
		errs := validate.Errors{}
		switch n := len(d.Variants); {
		case n == 0:
			errs.Add(variantsPath, MsgAtLeastOneVariant)
		case max > 0 && n > max:
			errs.Add(variantsPath, fmt.Sprintf("At most %d variants allowed", max))
		}
		return errs
	}
}

// OptionCount requires every variant to have between one and max options.
func OptionCount(max int) Rule {
	return func(d *models.ProductDraft) validate.Errors {
		errs := validate.Errors{}
		for i, v := range d.Variants {
			if msg := optionCountMessage(len(v.Options), max); msg != "" {
				errs.Add(validate.Path(variantsPath, i, optionsField), msg)
			}
		}
		return errs
	}
}

func optionCountMessage(n, max int) string {
	switch {
	case n == 0:
		return MsgAtLeastOneOption
	case max > 0 && n > max:
		return fmt.Sprintf("At most %d options allowed per variant", max)
	}
	return ""
}

func DuplicateOptions(d *models.ProductDraft) validate.Errors {
	errs := validate.Errors{}
	for i, v := range d.Variants {
		if dup := FindDuplicateOption(i, v); dup != nil {
			errs.Add(dup.Path(), dup.Error())
		}
	}
	return errs
}

func DuplicateCombinations(d *models.ProductDraft) validate.Errors {
	errs := validate.Errors{}
	if dup := FindDuplicateCombination(d.Variants); dup != nil {
		errs.Add(dup.Path(), dup.Error())
	}
	return errs
}

// DuplicateSKUs flags every repeat of a SKU already used earlier in the same
// draft. Catalog-wide uniqueness is the server's job.
func DuplicateSKUs(d *models.ProductDraft) validate.Errors {
	errs := validate.Errors{}
	sku := func(v models.VariantDraft) string { return strings.TrimSpace(v.SKU) }
	blank := func(v models.VariantDraft) bool { return sku(v) == "" }
	for _, i := range collection.DuplicateIndexes(d.Variants, sku, blank) {
		errs.Add(validate.Path(variantsPath, i, "sku"), MsgDuplicateSKU)
	}
	return errs
}

// ─── Duplicate detection ─────────────────────────────────────────────────────

// DuplicateOptionError reports a (type, value) pair that occurs more than
// once in one variant. It attaches to the variant's option array.
type DuplicateOptionError struct {
	Variant int
	Key     string
	Indexes []int
}

func (e *DuplicateOptionError) Error() string { return MsgDuplicateOption }

func (e *DuplicateOptionError) Path() string {
	return validate.Path(variantsPath, e.Variant, optionsField)
}

// DuplicateVariantCombinationError reports two variants with the same
// combination signature. Neither variant alone is wrong, so it attaches to
// the variants array.
type DuplicateVariantCombinationError struct {
	Signature string
	Indexes   []int
}

func (e *DuplicateVariantCombinationError) Error() string { return MsgDuplicateCombination }

func (e *DuplicateVariantCombinationError) Path() string { return variantsPath }

// FindDuplicateOption returns the first repeated pair of v, or nil. Entries
// missing a type or a value are left to the required rules.
func FindDuplicateOption(index int, v models.VariantDraft) *DuplicateOptionError {
	dups := collection.DuplicateIndexes(v.Options, models.OptionEntry.Key, incompleteOption)
	if len(dups) == 0 {
		return nil
	}
	key := v.Options[dups[0]].Key()
	var idx []int
	for i, o := range v.Options {
		if !incompleteOption(o) && o.Key() == key {
			idx = append(idx, i)
		}
	}
	return &DuplicateOptionError{Variant: index, Key: key, Indexes: idx}
}

// FindDuplicateCombination returns the first signature shared by two
// variants, or nil. Variants with incomplete options are not compared.
func FindDuplicateCombination(variants []models.VariantDraft) *DuplicateVariantCombinationError {
	skip := func(v models.VariantDraft) bool {
		return len(v.Options) == 0 || collection.Contains(v.Options, incompleteOption)
	}
	dups := collection.DuplicateIndexes(variants, models.VariantDraft.Signature, skip)
	if len(dups) == 0 {
		return nil
	}
	sig := variants[dups[0]].Signature()
	var idx []int
	for i, v := range variants {
		if !skip(v) && v.Signature() == sig {
			idx = append(idx, i)
		}
	}
	return &DuplicateVariantCombinationError{Signature: sig, Indexes: idx}
}

func incompleteOption(o models.OptionEntry) bool {
	return o.VariantType == "" || strings.TrimSpace(o.Value) == ""
}

// ValidateVariant checks a single variant being added to an existing
// product. Paths are relative to the variant, e.g. "option_data.0.value".
// existing holds the product's current variants; a new variant may not
// repeat one of their combinations.
func (s *Schema) ValidateVariant(v models.VariantDraft, existing ...models.VariantDraft) validate.Errors {
	errs := validate.Struct(v)
	if v.Image != nil && v.Image.Empty() {
		errs.Add("image", MsgVariantImageRequired)
	}
	if msg := optionCountMessage(len(v.Options), s.limits.MaxOptions); msg != "" {
		errs.Add(optionsField, msg)
	}
	if dup := FindDuplicateOption(0, v); dup != nil {
		errs.Add(optionsField, dup.Error())
	}
	if len(v.Options) == 0 || collection.Contains(v.Options, incompleteOption) {
		return errs
	}
	sig := v.Signature()
	if collection.Contains(existing, func(e models.VariantDraft) bool { return e.Signature() == sig }) {
		errs.Add(optionsField, MsgDuplicateCombination)
	}
	return errs
}
