// Package rules holds the built-in departmental rule catalog and a loader for
// catalogs kept in YAML.
//
// Each department has its own file. Defaults returns every built-in rule in
// a fixed order: Operations, Maintenance, Finance, HR, Safety.
package rules

import "github.com/JonMunkholm/deptdata/internal/core"

// Defaults returns the built-in processing rules.
func Defaults() []core.ProcessingRule {
	return []core.ProcessingRule{
		passengerRidership(),
		maintenanceLogs(),
		financialRevenue(),
		employeeData(),
		safetyIncidents(),
	}
}

// required, numeric and date shorten the rule tables below.
func required(field, message string) core.ValidationRule {
	return core.ValidationRule{Field: field, Message: message, Check: core.Required{}}
}

func numeric(field, message string) core.ValidationRule {
	return core.ValidationRule{Field: field, Message: message, Check: core.Numeric{}}
}

func date(field, message string) core.ValidationRule {
	return core.ValidationRule{Field: field, Message: message, Check: core.Date{}}
}

// Load returns the catalog at path, or the built-in rules when path is empty.
func Load(path string) ([]core.ProcessingRule, error) {
	if path == "" {
		return Defaults(), nil
	}
	return LoadFile(path)
}
