package rules

import "github.com/JonMunkholm/deptdata/internal/core"

func employeeData() core.ProcessingRule {
	return core.ProcessingRule{
		ID:          "employee-data",
		Name:        "Employee Data",
		Department:  "HR",
		Category:    "HR Data",
		FilePattern: core.MustPattern(`employee|staff|personnel|hr`),
		Columns:     []string{"emp_id", "name", "department", "position", "salary", "join_date"},
		Validations: []core.ValidationRule{
			required("emp_id", "Employee ID is required"),
			required("name", "Employee name is required"),
			numeric("salary", "Salary must be numeric"),
			date("join_date", "Invalid join date"),
		},
		Transformations: []core.TransformationRule{
			{Field: "emp_id", Op: core.PrefixFormat{Prefix: "KMRL-EMP-"}},
			{Field: "name", Op: core.TitleCaseFormat{}},
		},
	}
}
