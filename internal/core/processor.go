package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordMeta carries the per-file attributes stamped on every record.
type RecordMeta struct {
	Department string
	Project    string
	Source     string // Originating filename
}

// ProcessRecord validates and transforms one row under rule.
//
// Validation failures and transformation errors are recorded on the
// returned record; they never escape as errors. A transformation error
// downgrades the status to warning unless the row is already invalid.
func ProcessRecord(row *Fields, rule ProcessingRule, meta RecordMeta, now time.Time) DataRecord {
	if row == nil {
		row = NewFields()
	}

	validation := ValidateRow(row, rule.Validations)
	status := validation.Status
	errs := make([]string, 0, len(validation.Errors))
	for _, e := range validation.Errors {
		errs = append(errs, e.Error())
	}

	processed, transformErrs := TransformRow(row, rule.Transformations)
	if len(transformErrs) > 0 {
		errs = append(errs, transformErrs...)
		if status != StatusInvalid {
			status = StatusWarning
		}
	}

	return DataRecord{
		ID:               NewRecordID(meta.Department, now),
		OriginalData:     row,
		ProcessedData:    processed,
		Department:       meta.Department,
		Project:          meta.Project,
		Category:         rule.Category,
		Timestamp:        now.UTC(),
		Source:           meta.Source,
		ValidationStatus: status,
		ValidationErrors: errs,
	}
}

// NewRecordID returns "{department}-{unix millis}-{9 random chars}".
func NewRecordID(department string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", department, now.UnixMilli(), suffix)
}
