package rules

import "github.com/JonMunkholm/deptdata/internal/core"

func passengerRidership() core.ProcessingRule {
	return core.ProcessingRule{
		ID:          "passenger-ridership",
		Name:        "Passenger Ridership Data",
		Department:  "Operations",
		Category:    "Passenger Data",
		FilePattern: core.MustPattern(`passenger|ridership|boarding`),
		Columns:     []string{"date", "station", "entry_count", "exit_count", "line"},
		Validations: []core.ValidationRule{
			date("date", "Invalid date format"),
			numeric("entry_count", "Entry count must be numeric"),
			numeric("exit_count", "Exit count must be numeric"),
			required("station", "Station name is required"),
		},
		Transformations: []core.TransformationRule{
			{Field: "date", Op: core.DateFormat{Layout: "YYYY-MM-DD"}},
			{Field: "total_passengers", Op: core.Calculate{Formula: "entry_count + exit_count"}},
		},
	}
}
