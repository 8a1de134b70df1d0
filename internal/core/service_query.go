package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StoredData returns stored records filtered by department and/or project,
// newest first.
func (s *Service) StoredData(department, project string) []DataRecord {
	return s.store.Records(department, project)
}

// ProcessingSummary aggregates stored records for a department, or for all
// departments when department is empty.
func (s *Service) ProcessingSummary(department string) StoreStats {
	return s.store.Stats(department)
}

// ExportProcessedData serializes the filtered records.
func (s *Service) ExportProcessedData(department, project string, format ExportFormat) (string, error) {
	return ExportRecords(s.store.Records(department, project), format)
}

// ExportRecords renders records as pretty-printed JSON or as CSV.
//
// The CSV header is the processedData keys of the first record; later
// records with other shapes are not reconciled (missing keys give empty
// cells, extra keys are dropped). Each cell is a JSON string literal.
func ExportRecords(records []DataRecord, format ExportFormat) (string, error) {
	switch format {
	case ExportJSON, "":
		if records == nil {
			records = []DataRecord{}
		}
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode records: %w", err)
		}
		return string(b), nil

	case ExportCSV:
		if len(records) == 0 {
			return "", nil
		}

		headers := records[0].ProcessedData.Keys()
		lines := make([]string, 0, len(records)+1)
		lines = append(lines, strings.Join(headers, ","))

		for _, rec := range records {
			cells := make([]string, len(headers))
			for i, h := range headers {
				v, _ := rec.ProcessedData.Get(h)
				cells[i] = csvCell(v)
			}
			lines = append(lines, strings.Join(cells, ","))
		}
		return strings.Join(lines, "\n"), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, format)
	}
}

// csvCell encodes a value for the CSV export. Falsy values (missing, "",
// 0, false) become "" and everything else keeps its JSON encoding.
func csvCell(v any) string {
	if isFalsy(v) {
		v = ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(toText(v))
	}
	return string(b)
}

// isFalsy reports whether v is missing, empty, zero or false.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0 || x != x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}
