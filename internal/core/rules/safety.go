package rules

import "github.com/JonMunkholm/deptdata/internal/core"

func safetyIncidents() core.ProcessingRule {
	return core.ProcessingRule{
		ID:          "safety-incidents",
		Name:        "Safety Incident Reports",
		Department:  "Safety",
		Category:    "Safety Reports",
		FilePattern: core.MustPattern(`safety|incident|accident|emergency`),
		Columns:     []string{"date", "location", "severity", "description", "actions_taken"},
		Validations: []core.ValidationRule{
			date("date", "Invalid incident date"),
			required("location", "Incident location is required"),
			required("severity", "Severity level is required"),
			required("description", "Incident description is required"),
		},
		Transformations: []core.TransformationRule{
			{Field: "severity", Op: core.UppercaseFormat{}},
			// Template formulas are not evaluated; incident_id stays as uploaded
			// and is added without a value when the file has no such column.
			{Field: "incident_id", Op: core.Calculate{Formula: "SAFETY-{date}-{sequence}"}},
		},
	}
}
