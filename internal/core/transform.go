package core

// transform.go applies a rule's transformations to a processed row.
//
// Transformations run in rule order against the current processed row, so a
// later transformation sees the output of earlier ones. Each one overwrites
// (or creates) its target field. A failing transformation leaves the field
// as it was and the caller records the error on the row.

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TransformKind names the type of a Transform.
type TransformKind string

const (
	TransformFormat      TransformKind = "format"
	TransformCalculate   TransformKind = "calculate"
	TransformLookup      TransformKind = "lookup"
	TransformConcatenate TransformKind = "concatenate"
)

// errInvalidTime mirrors the failure of formatting an unparsable date.
var errInvalidTime = errors.New("RangeError: Invalid time value")

// titleWordRegex matches a word start and the rest of its non-space run.
var titleWordRegex = regexp.MustCompile(`\w\S*`)

// Transform computes a field's new value.
type Transform interface {
	Kind() TransformKind
	// Apply returns the new value for the target field. current is the
	// field's value in row (nil when missing). A nil result still creates
	// the field, with no value.
	Apply(current any, row *Fields) (any, error)
}

// TransformationRule applies one Transform to a single named field.
type TransformationRule struct {
	Field string
	Op    Transform
}

// DateFormat renders a date as YYYY-MM-DD. Layout is informational; every
// layout containing YYYY produces the ISO date.
type DateFormat struct {
	Layout string
}

// DecimalFormat renders a number with a fixed number of decimals.
type DecimalFormat struct {
	Places int
}

// UppercaseFormat upper-cases the value.
type UppercaseFormat struct{}

// TitleCaseFormat capitalizes each word and lower-cases the rest of it.
type TitleCaseFormat struct{}

// PrefixFormat prepends Prefix.
type PrefixFormat struct {
	Prefix string
}

// Passthrough leaves the value unchanged.
type Passthrough struct{}

// Calculate evaluates "a + b" over two fields of the row.
// Any formula without '+' leaves the value unchanged.
type Calculate struct {
	Formula string
}

// Lookup replaces the value through Mapping.
type Lookup struct {
	Mapping map[string]string
}

// Concatenate joins the values of Fields with Separator (default " ").
type Concatenate struct {
	Fields    []string
	Separator string
}

func (DateFormat) Kind() TransformKind      { return TransformFormat }
func (DecimalFormat) Kind() TransformKind   { return TransformFormat }
func (UppercaseFormat) Kind() TransformKind { return TransformFormat }
func (TitleCaseFormat) Kind() TransformKind { return TransformFormat }
func (PrefixFormat) Kind() TransformKind    { return TransformFormat }
func (Passthrough) Kind() TransformKind     { return TransformFormat }
func (Calculate) Kind() TransformKind       { return TransformCalculate }
func (Lookup) Kind() TransformKind          { return TransformLookup }
func (Concatenate) Kind() TransformKind     { return TransformConcatenate }

func (DateFormat) Apply(current any, _ *Fields) (any, error) {
	t, ok := parseDate(current)
	if !ok {
		return nil, errInvalidTime
	}
	return t.UTC().Format("2006-01-02"), nil
}

func (f DecimalFormat) Apply(current any, _ *Fields) (any, error) {
	if f.Places < 0 || f.Places > 100 {
		return nil, fmt.Errorf("RangeError: toFixed() digits argument must be between 0 and 100")
	}
	n := toNumber(current)
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= 1e21 {
		return formatNumber(n), nil
	}
	return toFixed(n, f.Places), nil
}

func (UppercaseFormat) Apply(current any, _ *Fields) (any, error) {
	return strings.ToUpper(toText(current)), nil
}

func (TitleCaseFormat) Apply(current any, _ *Fields) (any, error) {
	return titleCase(toText(current)), nil
}

func (f PrefixFormat) Apply(current any, _ *Fields) (any, error) {
	return f.Prefix + toText(current), nil
}

func (Passthrough) Apply(current any, _ *Fields) (any, error) {
	return current, nil
}

func (c Calculate) Apply(current any, row *Fields) (any, error) {
	if !strings.Contains(c.Formula, "+") {
		return current, nil
	}

	operands := strings.Split(c.Formula, " + ")
	if len(operands) < 2 {
		return nil, fmt.Errorf("TypeError: cannot evaluate formula %q", c.Formula)
	}

	sum := 0.0
	for _, name := range operands[:2] {
		v, _ := row.Get(strings.TrimSpace(name))
		n := toNumber(v)
		if math.IsNaN(n) {
			n = 0
		}
		sum += n
	}
	return sum, nil
}

func (l Lookup) Apply(current any, _ *Fields) (any, error) {
	if mapped, ok := l.Mapping[toText(current)]; ok && mapped != "" {
		return mapped, nil
	}
	return current, nil
}

func (c Concatenate) Apply(_ any, row *Fields) (any, error) {
	sep := c.Separator
	if sep == "" {
		sep = " "
	}
	parts := make([]string, len(c.Fields))
	for i, name := range c.Fields {
		v, _ := row.Get(name)
		parts[i] = toText(v)
	}
	return strings.Join(parts, sep), nil
}

// FormatParams is the loosely-typed parameter bag of a format transformation.
type FormatParams struct {
	Format    string `yaml:"format" json:"format,omitempty"`
	Decimals  *int   `yaml:"decimals" json:"decimals,omitempty"`
	Uppercase bool   `yaml:"uppercase" json:"uppercase,omitempty"`
	TitleCase bool   `yaml:"titleCase" json:"titleCase,omitempty"`
	Prefix    string `yaml:"prefix" json:"prefix,omitempty"`
}

// NewFormat picks the format transform for a parameter bag. Only the first
// matching parameter applies, in this order: date format, decimals,
// uppercase, title case, prefix. No match yields Passthrough.
func NewFormat(p FormatParams) Transform {
	switch {
	case strings.Contains(p.Format, "YYYY"):
		return DateFormat{Layout: p.Format}
	case p.Decimals != nil:
		return DecimalFormat{Places: *p.Decimals}
	case p.Uppercase:
		return UppercaseFormat{}
	case p.TitleCase:
		return TitleCaseFormat{}
	case p.Prefix != "":
		return PrefixFormat{Prefix: p.Prefix}
	default:
		return Passthrough{}
	}
}

// TransformRow copies row and applies transformations in order. It returns
// the processed copy and one error message per failed transformation.
func TransformRow(row *Fields, transformations []TransformationRule) (*Fields, []string) {
	processed := row.Clone()
	var errs []string

	for _, t := range transformations {
		if t.Op == nil {
			continue
		}
		current, _ := processed.Get(t.Field)
		value, err := t.Op.Apply(current, processed)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Transformation error on %s: %v", t.Field, err))
			continue
		}
		processed.Set(t.Field, value)
	}

	return processed, errs
}

// MarshalJSON describes the rule for listing endpoints.
func (r TransformationRule) MarshalJSON() ([]byte, error) {
	params := map[string]any{}
	switch op := r.Op.(type) {
	case DateFormat:
		params["format"] = op.Layout
	case DecimalFormat:
		params["decimals"] = op.Places
	case UppercaseFormat:
		params["uppercase"] = true
	case TitleCaseFormat:
		params["titleCase"] = true
	case PrefixFormat:
		params["prefix"] = op.Prefix
	case Calculate:
		params["formula"] = op.Formula
	case Lookup:
		params["mapping"] = op.Mapping
	case Concatenate:
		params["fields"] = op.Fields
		if op.Separator != "" {
			params["separator"] = op.Separator
		}
	}

	var kind TransformKind
	if r.Op != nil {
		kind = r.Op.Kind()
	}
	return marshalOrdered(map[string]any{
		"field":  r.Field,
		"type":   kind,
		"params": params,
	}, "field", "type", "params")
}

// titleCase upper-cases the first character of each \w\S* run and
// lower-cases the remainder of the run.
func titleCase(s string) string {
	return titleWordRegex.ReplaceAllStringFunc(s, func(word string) string {
		r, size := utf8.DecodeRuneInString(word)
		return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	})
}
