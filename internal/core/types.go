// Package core provides the business logic for departmental data ingestion.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"io"
	"time"
)

// ValidationStatus is the tri-state outcome of processing one row.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusInvalid ValidationStatus = "invalid"
	StatusWarning ValidationStatus = "warning"
)

// FilePattern selects a rule among several rules of the same department.
type FilePattern interface {
	Matches(filename string) bool
	String() string
}

// ProcessingRule describes how to handle one category of departmental file.
// Rules are built once when the registry is constructed and never mutated.
type ProcessingRule struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Department      string               `json:"department"`
	Category        string               `json:"category"`
	FilePattern     FilePattern          `json:"-"`
	Columns         []string             `json:"columns"` // Advisory only, not enforced against rows
	Validations     []ValidationRule     `json:"validations"`
	Transformations []TransformationRule `json:"transformations"`
}

// MarshalJSON renders the file pattern as its source expression.
func (r ProcessingRule) MarshalJSON() ([]byte, error) {
	type plain ProcessingRule
	pattern := ""
	if r.FilePattern != nil {
		pattern = r.FilePattern.String()
	}
	return json.Marshal(struct {
		plain
		FilePattern string `json:"filePattern"`
	}{plain(r), pattern})
}

// DataRecord is the unit of processed output, one per parsed row.
type DataRecord struct {
	ID               string           `json:"id"`
	OriginalData     *Fields          `json:"originalData"`
	ProcessedData    *Fields          `json:"processedData"`
	Department       string           `json:"department"`
	Project          string           `json:"project"`
	Category         string           `json:"category"`
	Timestamp        time.Time        `json:"timestamp"` // Processing time, not record time
	Source           string           `json:"source"`
	ValidationStatus ValidationStatus `json:"validationStatus"`
	ValidationErrors []string         `json:"validationErrors"`
}

// ProcessingStats summarizes a single ProcessFile run.
type ProcessingStats struct {
	TotalRecords     int   `json:"totalRecords"`
	ValidRecords     int   `json:"validRecords"`
	InvalidRecords   int   `json:"invalidRecords"`
	WarningRecords   int   `json:"warningRecords"`
	ProcessingTimeMs int64 `json:"processingTime"`
}

// StoreStats aggregates every stored record, optionally for one department.
type StoreStats struct {
	TotalRecords   int            `json:"totalRecords"`
	ValidRecords   int            `json:"validRecords"`
	InvalidRecords int            `json:"invalidRecords"`
	WarningRecords int            `json:"warningRecords"`
	Categories     map[string]int `json:"categories"`
}

// Categorization is the result of the filename category heuristic.
type Categorization struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Upload is a file handed to the pipeline.
type Upload struct {
	Name        string    // Original filename, used for rule matching and as record source
	ContentType string    // Declared MIME type; resolved from Name when empty
	Body        io.Reader // File content
}

// ProgressFunc receives the processing progress as a percentage (0-100).
// It is invoked inline before each row and must return quickly.
type ProgressFunc func(percent int)

// ExportFormat selects the serialization used by ExportProcessedData.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)
