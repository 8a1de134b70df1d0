package core

import (
	"context"
	"encoding/json"
	"time"
)

// Sample limits
const (
	maxRowSamples       = 10
	maxErrorSamples     = 20
	maxDuplicateSamples = 10
)

// PreviewSummary counts the outcome a file would have if processed.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	ValidRows       int `json:"validRows"`
	WarningRows     int `json:"warningRows"`
	InvalidRows     int `json:"invalidRows"`
	DuplicateInFile int `json:"duplicateInFile"` // Extra copies of identical rows
}

// RowPreview is one processed row. Row numbers are 1-based data rows; the
// CSV header is not counted.
type RowPreview struct {
	Row       int     `json:"row"`
	Processed *Fields `json:"processed"`
}

// ErrorPreview is a row that failed at least one check.
type ErrorPreview struct {
	Row    int              `json:"row"`
	Values *Fields          `json:"values"`
	Status ValidationStatus `json:"status"`
	Errors []string         `json:"errors"`
}

// DuplicatePreview lists rows whose original values are identical.
type DuplicatePreview struct {
	Rows []int `json:"rows"`
}

// PreviewResponse is the dry-run analysis of one file.
type PreviewResponse struct {
	RuleID           string             `json:"ruleId"`
	Category         string             `json:"category"`
	Summary          PreviewSummary     `json:"summary"`
	RowSamples       []RowPreview       `json:"rowSamples"`
	ErrorSamples     []ErrorPreview     `json:"errorSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// PreviewFile runs the selected rule over every row without storing
// anything, so a department can check a file before committing it.
// It fails the same way ProcessFile does and shares its processing slots.
func (s *Service) PreviewFile(ctx context.Context, upload Upload, department string) (*PreviewResponse, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	logger := loggerFrom(ctx).With("file", upload.Name, "department", department)

	rule, rows, err := s.prepare(logger, upload, department, true)
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		RuleID:           rule.ID,
		Category:         rule.Category,
		Summary:          PreviewSummary{TotalRows: len(rows)},
		RowSamples:       []RowPreview{},
		ErrorSamples:     []ErrorPreview{},
		DuplicateSamples: []DuplicatePreview{},
	}

	meta := RecordMeta{Department: department, Source: upload.Name}
	seen := make(map[string][]int) // original row JSON -> row numbers
	var order []string

	for i, row := range rows {
		rowNum := i + 1

		if key, err := json.Marshal(row); err == nil {
			k := string(key)
			if _, ok := seen[k]; !ok {
				order = append(order, k)
			}
			seen[k] = append(seen[k], rowNum)
		}

		rec, err := s.safeProcessRecord(row, rule, meta)
		if err != nil {
			resp.Summary.InvalidRows++
			appendErrorSample(resp, ErrorPreview{
				Row: rowNum, Values: row, Status: StatusInvalid, Errors: []string{err.Error()},
			})
			continue
		}

		switch rec.ValidationStatus {
		case StatusValid:
			resp.Summary.ValidRows++
		case StatusWarning:
			resp.Summary.WarningRows++
		case StatusInvalid:
			resp.Summary.InvalidRows++
		}

		if len(rec.ValidationErrors) > 0 {
			appendErrorSample(resp, ErrorPreview{
				Row: rowNum, Values: rec.OriginalData, Status: rec.ValidationStatus, Errors: rec.ValidationErrors,
			})
		}
		if len(resp.RowSamples) < maxRowSamples {
			resp.RowSamples = append(resp.RowSamples, RowPreview{Row: rowNum, Processed: rec.ProcessedData})
		}
	}

	for _, k := range order {
		lines := seen[k]
		if len(lines) < 2 {
			continue
		}
		resp.Summary.DuplicateInFile += len(lines) - 1
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{Rows: lines})
		}
	}

	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	logger.Debug("file previewed",
		"rule", rule.ID,
		"total", resp.Summary.TotalRows,
		"invalid", resp.Summary.InvalidRows,
		"duplicates", resp.Summary.DuplicateInFile,
	)

	return resp, nil
}

func appendErrorSample(resp *PreviewResponse, e ErrorPreview) {
	if len(resp.ErrorSamples) < maxErrorSamples {
		resp.ErrorSamples = append(resp.ErrorSamples, e)
	}
}
