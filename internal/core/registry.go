package core

import (
	"regexp"
	"strings"
)

// RuleRegistry holds the processing rules grouped by department.
// It is populated once by NewRuleRegistry and read-only afterwards, so it is
// safe for concurrent use without locking.
type RuleRegistry struct {
	departments []string                    // insertion order
	rules       map[string][]ProcessingRule // department -> rules in insertion order
}

// NewRuleRegistry groups rules by department, keeping first-seen department
// order and rule order within each department.
func NewRuleRegistry(rules []ProcessingRule) *RuleRegistry {
	r := &RuleRegistry{
		rules: make(map[string][]ProcessingRule),
	}
	for _, rule := range rules {
		if _, exists := r.rules[rule.Department]; !exists {
			r.departments = append(r.departments, rule.Department)
		}
		r.rules[rule.Department] = append(r.rules[rule.Department], rule)
	}
	return r
}

// FindRule resolves the rule for a file within a department.
//
// Returns false only when the department is unknown. Otherwise the first
// rule whose pattern matches filename wins, and when none match the
// department's first rule is returned anyway.
func (r *RuleRegistry) FindRule(filename, department string) (ProcessingRule, bool) {
	rules, ok := r.rules[department]
	if !ok || len(rules) == 0 {
		return ProcessingRule{}, false
	}

	for _, rule := range rules {
		if rule.FilePattern != nil && rule.FilePattern.Matches(filename) {
			return rule, true
		}
	}
	return rules[0], true
}

// Rules returns the rules of a department, or every rule when department
// is empty (department order, then rule order).
func (r *RuleRegistry) Rules(department string) []ProcessingRule {
	if department != "" {
		rules := r.rules[department]
		out := make([]ProcessingRule, len(rules))
		copy(out, rules)
		return out
	}

	var out []ProcessingRule
	for _, d := range r.departments {
		out = append(out, r.rules[d]...)
	}
	if out == nil {
		out = []ProcessingRule{}
	}
	return out
}

// Departments returns department names in registration order.
func (r *RuleRegistry) Departments() []string {
	out := make([]string, len(r.departments))
	copy(out, r.departments)
	return out
}

// RuleCount returns the number of registered rules.
func (r *RuleRegistry) RuleCount() int {
	n := 0
	for _, rules := range r.rules {
		n += len(rules)
	}
	return n
}

// PatternRegexp matches filenames against a case-insensitive expression.
type PatternRegexp struct {
	re *regexp.Regexp
}

// MustPattern compiles expr as a case-insensitive filename pattern.
// Panics on an invalid expression; use for static rule tables.
func MustPattern(expr string) PatternRegexp {
	return PatternRegexp{re: regexp.MustCompile("(?i)" + expr)}
}

// CompilePattern compiles expr as a case-insensitive filename pattern.
func CompilePattern(expr string) (PatternRegexp, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return PatternRegexp{}, err
	}
	return PatternRegexp{re: re}, nil
}

func (p PatternRegexp) Matches(filename string) bool {
	return p.re != nil && p.re.MatchString(filename)
}

func (p PatternRegexp) String() string {
	if p.re == nil {
		return ""
	}
	return strings.TrimPrefix(p.re.String(), "(?i)")
}

// PatternKeywords matches when the filename contains any keyword,
// ignoring case.
type PatternKeywords []string

func (p PatternKeywords) Matches(filename string) bool {
	name := strings.ToLower(filename)
	for _, k := range p {
		if k != "" && strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func (p PatternKeywords) String() string {
	return strings.Join(p, "|")
}

// categoryPattern is one entry of the filename category heuristic.
type categoryPattern struct {
	pattern    *regexp.Regexp
	category   string
	confidence float64
}

// categoryPatterns are checked in order against the lowercased filename.
var categoryPatterns = []categoryPattern{
	{regexp.MustCompile(`passenger|ridership|boarding`), "Passenger Data", 0.9},
	{regexp.MustCompile(`maintenance|repair|service`), "Maintenance Records", 0.9},
	{regexp.MustCompile(`financial|revenue|income`), "Financial Data", 0.9},
	{regexp.MustCompile(`employee|staff|hr`), "HR Data", 0.9},
	{regexp.MustCompile(`safety|incident|accident`), "Safety Reports", 0.9},
	{regexp.MustCompile(`schedule|timetable`), "Schedule Data", 0.8},
	{regexp.MustCompile(`inventory|asset`), "Asset Management", 0.8},
	{regexp.MustCompile(`customer|feedback`), "Customer Data", 0.8},
}

// CategorizeFile guesses a file's category from its name alone,
// independent of any department or rule.
func CategorizeFile(filename string) Categorization {
	name := strings.ToLower(filename)
	for _, p := range categoryPatterns {
		if p.pattern.MatchString(name) {
			return Categorization{Category: p.category, Confidence: p.confidence}
		}
	}
	return Categorization{Category: "General Data", Confidence: 0.5}
}
