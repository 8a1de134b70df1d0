package rules

import "github.com/JonMunkholm/deptdata/internal/core"

func financialRevenue() core.ProcessingRule {
	return core.ProcessingRule{
		ID:          "financial-revenue",
		Name:        "Financial Revenue Data",
		Department:  "Finance",
		Category:    "Financial Data",
		FilePattern: core.MustPattern(`financial|revenue|income|earning`),
		Columns:     []string{"date", "source", "amount", "currency", "category"},
		Validations: []core.ValidationRule{
			date("date", "Invalid transaction date"),
			numeric("amount", "Amount must be numeric"),
			required("currency", "Currency is required"),
			{Field: "amount", Message: "Amount cannot be negative", Check: core.Range{Min: core.Float(0)}},
		},
		Transformations: []core.TransformationRule{
			{Field: "amount", Op: core.DecimalFormat{Places: 2}},
			{Field: "currency", Op: core.UppercaseFormat{}},
		},
	}
}
