package core

// parse.go turns file text into flat rows.
//
// The declared content type selects the parser:
//   - contains "csv": CSV
//   - contains "json": JSON array of objects
//   - contains "excel" or "spreadsheet": CSV (binary workbooks are not
//     decoded; a real .xlsx yields garbage rows)
//   - anything else: ErrUnsupportedFileType
//
// The CSV reader is a plain line/comma split. It has no quoting support: a
// comma inside quotes still splits the field, and every '"' is removed.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseFileContent parses text according to contentType.
func ParseFileContent(text, contentType string) ([]*Fields, error) {
	t := strings.ToLower(contentType)

	switch {
	case strings.Contains(t, "csv"):
		return parseCSV(text), nil
	case strings.Contains(t, "json"):
		return parseJSON(text)
	case strings.Contains(t, "excel"), strings.Contains(t, "spreadsheet"):
		return parseCSV(text), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}
}

// parseCSV splits text into lines and lines into comma-separated cells.
// The first line is the header. Missing trailing cells become "".
func parseCSV(text string) []*Fields {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	headers := splitCSVLine(lines[0])
	rows := make([]*Fields, 0, len(lines)-1)

	for _, line := range lines[1:] {
		values := splitCSVLine(line)
		row := NewFields()
		for i, h := range headers {
			v := ""
			if i < len(values) {
				v = values[i]
			}
			row.Set(h, v)
		}
		rows = append(rows, row)
	}

	return rows
}

// splitCSVLine splits on commas, trims each cell and drops double quotes.
func splitCSVLine(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(strings.TrimSpace(c), `"`, "")
	}
	return cells
}

// parseJSON decodes a top-level array of row objects.
func parseJSON(text string) ([]*Fields, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: expected an array of objects", ErrMalformedJSON)
	}

	var rows []*Fields
	for dec.More() {
		row, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedJSON, len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after array", ErrMalformedJSON)
	}

	return rows, nil
}
