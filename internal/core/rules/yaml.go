package rules

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/deptdata/internal/core"
)

// catalogFile is the on-disk shape of a rule catalog:
//
//	rules:
//	  - id: passenger-ridership
//	    department: Operations
//	    filePattern: passenger|ridership
//	    validations:
//	      - {field: station, type: required, message: Station name is required}
//	    transformations:
//	      - {field: date, type: format, params: {format: YYYY-MM-DD}}
type catalogFile struct {
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	ID              string          `yaml:"id"`
	Name            string          `yaml:"name"`
	Department      string          `yaml:"department"`
	Category        string          `yaml:"category"`
	FilePattern     string          `yaml:"filePattern"`
	Keywords        []string        `yaml:"keywords"` // Used when filePattern is empty
	Columns         []string        `yaml:"columns"`
	Validations     []validationDoc `yaml:"validations"`
	Transformations []transformDoc  `yaml:"transformations"`
}

type validationDoc struct {
	Field   string `yaml:"field"`
	Type    string `yaml:"type"`
	Message string `yaml:"message"`
	Params  struct {
		Min     *float64 `yaml:"min"`
		Max     *float64 `yaml:"max"`
		Pattern string   `yaml:"pattern"`
	} `yaml:"params"`
}

type transformDoc struct {
	Field  string `yaml:"field"`
	Type   string `yaml:"type"`
	Params struct {
		core.FormatParams `yaml:",inline"`
		Formula           string            `yaml:"formula"`
		Mapping           map[string]string `yaml:"mapping"`
		Fields            []string          `yaml:"fields"`
		Separator         string            `yaml:"separator"`
	} `yaml:"params"`
}

// LoadFile reads a YAML rule catalog.
func LoadFile(path string) ([]core.ProcessingRule, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from RULES_FILE or a CLI flag
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}

// Parse decodes a YAML rule catalog. Unknown keys are rejected. Every
// problem in the catalog is reported, not just the first.
func Parse(data []byte) ([]core.ProcessingRule, error) {
	var doc catalogFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	var errs []error
	out := make([]core.ProcessingRule, 0, len(doc.Rules))
	seen := make(map[string]bool)

	for i, rd := range doc.Rules {
		rule, ruleErrs := rd.build()
		for _, err := range ruleErrs {
			errs = append(errs, fmt.Errorf("rules[%d] (%s): %w", i, rd.ID, err))
		}
		if rd.ID != "" && seen[rd.ID] {
			errs = append(errs, fmt.Errorf("rules[%d]: duplicate id %q", i, rd.ID))
		}
		seen[rd.ID] = true
		out = append(out, rule)
	}

	if len(out) == 0 {
		errs = append(errs, errors.New("catalog has no rules"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (rd ruleDoc) build() (core.ProcessingRule, []error) {
	var errs []error

	if rd.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if rd.Department == "" {
		errs = append(errs, errors.New("department is required"))
	}

	rule := core.ProcessingRule{
		ID:         rd.ID,
		Name:       rd.Name,
		Department: rd.Department,
		Category:   rd.Category,
		Columns:    rd.Columns,
	}

	switch {
	case rd.FilePattern != "":
		p, err := core.CompilePattern(rd.FilePattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("filePattern: %w", err))
		}
		rule.FilePattern = p
	case len(rd.Keywords) > 0:
		rule.FilePattern = core.PatternKeywords(rd.Keywords)
	}

	for j, vd := range rd.Validations {
		v, err := vd.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("validations[%d]: %w", j, err))
			continue
		}
		rule.Validations = append(rule.Validations, v)
	}

	for j, td := range rd.Transformations {
		t, err := td.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("transformations[%d]: %w", j, err))
			continue
		}
		rule.Transformations = append(rule.Transformations, t)
	}

	return rule, errs
}

func (vd validationDoc) build() (core.ValidationRule, error) {
	if vd.Field == "" {
		return core.ValidationRule{}, errors.New("field is required")
	}

	var check core.Check
	switch core.ValidationKind(strings.ToLower(vd.Type)) {
	case core.ValidateRequired:
		check = core.Required{}
	case core.ValidateNumeric:
		check = core.Numeric{}
	case core.ValidateDate:
		check = core.Date{}
	case core.ValidateEmail:
		check = core.Email{}
	case core.ValidateRegex:
		re, err := regexp.Compile(vd.Params.Pattern)
		if err != nil {
			return core.ValidationRule{}, fmt.Errorf("pattern: %w", err)
		}
		check = core.Regex{Pattern: re}
	case core.ValidateRange:
		if vd.Params.Min != nil && vd.Params.Max != nil && *vd.Params.Min > *vd.Params.Max {
			return core.ValidationRule{}, fmt.Errorf("range min %v exceeds max %v", *vd.Params.Min, *vd.Params.Max)
		}
		check = core.Range{Min: vd.Params.Min, Max: vd.Params.Max}
	default:
		return core.ValidationRule{}, fmt.Errorf("unknown validation type %q", vd.Type)
	}

	return core.ValidationRule{Field: vd.Field, Message: vd.Message, Check: check}, nil
}

func (td transformDoc) build() (core.TransformationRule, error) {
	if td.Field == "" {
		return core.TransformationRule{}, errors.New("field is required")
	}

	var op core.Transform
	switch core.TransformKind(strings.ToLower(td.Type)) {
	case core.TransformFormat:
		op = core.NewFormat(td.Params.FormatParams)
	case core.TransformCalculate:
		op = core.Calculate{Formula: td.Params.Formula}
	case core.TransformLookup:
		op = core.Lookup{Mapping: td.Params.Mapping}
	case core.TransformConcatenate:
		if len(td.Params.Fields) == 0 {
			return core.TransformationRule{}, errors.New("concatenate needs fields")
		}
		op = core.Concatenate{Fields: td.Params.Fields, Separator: td.Params.Separator}
	default:
		return core.TransformationRule{}, fmt.Errorf("unknown transformation type %q", td.Type)
	}

	return core.TransformationRule{Field: td.Field, Op: op}, nil
}
