package rules

import "github.com/JonMunkholm/deptdata/internal/core"

func maintenanceLogs() core.ProcessingRule {
	return core.ProcessingRule{
		ID:          "maintenance-logs",
		Name:        "Maintenance Log Data",
		Department:  "Maintenance",
		Category:    "Maintenance Records",
		FilePattern: core.MustPattern(`maintenance|repair|service`),
		Columns:     []string{"date", "train_id", "type", "description", "cost", "technician"},
		Validations: []core.ValidationRule{
			date("date", "Invalid maintenance date"),
			required("train_id", "Train ID is required"),
			numeric("cost", "Cost must be numeric"),
			required("type", "Maintenance type is required"),
		},
		Transformations: []core.TransformationRule{
			// The time part of the layout is not rendered; dates come out as YYYY-MM-DD.
			{Field: "date", Op: core.DateFormat{Layout: "YYYY-MM-DD HH:mm:ss"}},
			{Field: "train_id", Op: core.PrefixFormat{Prefix: "KMRL-"}},
		},
	}
}
