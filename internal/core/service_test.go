package core_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/deptdata/internal/core"
	"github.com/JonMunkholm/deptdata/internal/core/rules"
)

const passengerCSV = "date,station,entry_count,exit_count\n2024-01-01,Aluva,120,80\n2024-01-02,,150,abc"

func newService(t *testing.T) *core.Service {
	t.Helper()
	return core.NewService(core.NewRuleRegistry(rules.Defaults()), core.ServiceConfig{})
}

func csvUpload(name, body string) core.Upload {
	return core.Upload{Name: name, ContentType: "text/csv", Body: strings.NewReader(body)}
}

func TestProcessFile_PassengerData(t *testing.T) {
	svc := newService(t)

	stats, err := svc.ProcessFile(context.Background(), csvUpload("passenger_data.csv", passengerCSV), "Operations", "metro", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 1, stats.ValidRecords)
	assert.Equal(t, 1, stats.InvalidRecords)
	assert.Equal(t, 0, stats.WarningRecords)

	stored := svc.StoredData("Operations", "metro")
	require.Len(t, stored, 2)

	byDate := map[string]core.DataRecord{}
	for _, rec := range stored {
		d, _ := rec.OriginalData.Get("date")
		byDate[d.(string)] = rec
	}

	first := byDate["2024-01-01"]
	assert.Equal(t, core.StatusValid, first.ValidationStatus)
	assert.Empty(t, first.ValidationErrors)
	assert.Equal(t, "Passenger Data", first.Category)
	assert.Equal(t, "passenger_data.csv", first.Source)
	total, _ := first.ProcessedData.Get("total_passengers")
	assert.Equal(t, 200.0, total)
	date, _ := first.ProcessedData.Get("date")
	assert.Equal(t, "2024-01-01", date)

	second := byDate["2024-01-02"]
	assert.Equal(t, core.StatusInvalid, second.ValidationStatus)
	assert.Equal(t, []string{
		"exit_count: Exit count must be numeric",
		"station: Station name is required",
	}, second.ValidationErrors)
}

func TestProcessFile_StatsAddUp(t *testing.T) {
	svc := newService(t)

	var b strings.Builder
	b.WriteString("date,station,entry_count,exit_count\n")
	for i := 1; i <= 10; i++ {
		date := fmt.Sprintf("2024-01-%02d", i)
		if i == 5 {
			date = "not-a-date"
		}
		fmt.Fprintf(&b, "%s,Station %d,%d,%d\n", date, i, i*10, i)
	}

	stats, err := svc.ProcessFile(context.Background(), csvUpload("ridership.csv", b.String()), "Operations", "", nil)
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalRecords)
	assert.Equal(t, 9, stats.ValidRecords)
	assert.Equal(t, 1, stats.WarningRecords)
	assert.Equal(t, stats.TotalRecords, stats.ValidRecords+stats.InvalidRecords+stats.WarningRecords)
	assert.Len(t, svc.StoredData("Operations", ""), 10)
}

// explodingOp panics on the value "boom".
type explodingOp struct{}

func (explodingOp) Kind() core.TransformKind { return core.TransformFormat }

func (explodingOp) Apply(current any, _ *core.Fields) (any, error) {
	if current == "boom" {
		panic("exploded")
	}
	return current, nil
}

func TestProcessFile_PanickingRowIsContained(t *testing.T) {
	rule := core.ProcessingRule{
		ID:              "custom",
		Department:      "Operations",
		Category:        "Custom",
		Transformations: []core.TransformationRule{{Field: "x", Op: explodingOp{}}},
	}
	svc := core.NewService(core.NewRuleRegistry([]core.ProcessingRule{rule}), core.ServiceConfig{})

	var b strings.Builder
	b.WriteString("x\n")
	for i := 1; i <= 10; i++ {
		if i == 5 {
			b.WriteString("boom\n")
			continue
		}
		fmt.Fprintf(&b, "v%d\n", i)
	}

	stats, err := svc.ProcessFile(context.Background(), csvUpload("anything.csv", b.String()), "Operations", "p", nil)
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalRecords)
	assert.Equal(t, 9, stats.ValidRecords)
	assert.Equal(t, 1, stats.InvalidRecords)
	assert.Len(t, svc.StoredData("Operations", "p"), 9, "the failed row is not stored")
}

func TestProcessFile_FatalErrors(t *testing.T) {
	tests := []struct {
		name       string
		upload     core.Upload
		department string
		want       error
	}{
		{"unknown department", csvUpload("passenger.csv", passengerCSV), "Marketing", core.ErrNoProcessingRule},
		{"malformed json", core.Upload{Name: "incidents.json", Body: strings.NewReader(`{"not":"array"}`)}, "Safety", core.ErrMalformedJSON},
		{"unsupported type", core.Upload{Name: "photo.png", Body: strings.NewReader("x")}, "Safety", core.ErrUnsupportedFileType},
		{"missing body", core.Upload{Name: "x.csv"}, "Safety", core.ErrFileRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t)

			_, err := svc.ProcessFile(context.Background(), tt.upload, tt.department, "p", nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, svc.StoredData("", ""), "nothing stored on fatal errors")
		})
	}
}

func TestProcessFile_NoRuleMessage(t *testing.T) {
	svc := newService(t)

	_, err := svc.ProcessFile(context.Background(), csvUpload("passenger.csv", passengerCSV), "Marketing", "", nil)
	require.Error(t, err)
	assert.Equal(t, "no processing rule found for file passenger.csv in department Marketing", err.Error())
}

func TestProcessFile_FileTooLarge(t *testing.T) {
	svc := core.NewService(core.NewRuleRegistry(rules.Defaults()), core.ServiceConfig{MaxFileSize: 16})

	_, err := svc.ProcessFile(context.Background(), csvUpload("passenger.csv", passengerCSV), "Operations", "", nil)
	assert.ErrorIs(t, err, core.ErrFileTooLarge)
}

func TestProcessFile_Progress(t *testing.T) {
	svc := newService(t)
	body := "date,station,entry_count,exit_count\n" +
		"2024-01-01,A,1,1\n2024-01-02,B,1,1\n2024-01-03,C,1,1\n2024-01-04,D,1,1"

	var got []int
	_, err := svc.ProcessFile(context.Background(), csvUpload("passenger.csv", body), "Operations", "", func(p int) {
		got = append(got, p)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 25, 50, 75}, got)
}

func TestProcessFile_JSONUpload(t *testing.T) {
	svc := newService(t)
	body := `[{"emp_id":"42","name":"ada lovelace","salary":52000,"join_date":"2020-03-01"}]`

	stats, err := svc.ProcessFile(context.Background(), core.Upload{Name: "employees.json", Body: strings.NewReader(body)}, "HR", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ValidRecords)

	stored := svc.StoredData("HR", "")
	require.Len(t, stored, 1)
	assert.Equal(t, "HR Data", stored[0].Category)
	id, _ := stored[0].ProcessedData.Get("emp_id")
	assert.Equal(t, "KMRL-EMP-42", id)
	name, _ := stored[0].ProcessedData.Get("name")
	assert.Equal(t, "Ada Lovelace", name)
	salary, _ := stored[0].ProcessedData.Get("salary")
	assert.Equal(t, json.Number("52000"), salary)
}

func TestExportProcessedData_RoundTrip(t *testing.T) {
	svc := newService(t)
	_, err := svc.ProcessFile(context.Background(), csvUpload("passenger.csv", passengerCSV), "Operations", "metro", nil)
	require.NoError(t, err)

	exported, err := svc.ExportProcessedData("Operations", "metro", core.ExportJSON)
	require.NoError(t, err)

	want, err := json.Marshal(svc.StoredData("Operations", "metro"))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), exported)

	csv, err := svc.ExportProcessedData("Operations", "metro", core.ExportCSV)
	require.NoError(t, err)
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,station,entry_count,exit_count,total_passengers", lines[0])

	_, err = svc.ExportProcessedData("", "", core.ExportFormat("xml"))
	assert.ErrorIs(t, err, core.ErrUnsupportedExportFormat)
}

func TestExportProcessedData_UnevaluatedColumn(t *testing.T) {
	svc := newService(t)
	body := "date,location,severity,description\n2024-02-10,Aluva,high,Slip on platform"
	_, err := svc.ProcessFile(context.Background(), csvUpload("safety_incidents.csv", body), "Safety", "", nil)
	require.NoError(t, err)

	csv, err := svc.ExportProcessedData("Safety", "", core.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t,
		"date,location,severity,description,incident_id\n"+
			`"2024-02-10","Aluva","HIGH","Slip on platform",""`,
		csv)

	exported, err := svc.ExportProcessedData("Safety", "", core.ExportJSON)
	require.NoError(t, err)
	var records []struct {
		ProcessedData map[string]any `json:"processedData"`
	}
	require.NoError(t, json.Unmarshal([]byte(exported), &records))
	require.Len(t, records, 1)
	assert.NotContains(t, records[0].ProcessedData, "incident_id")
	assert.Equal(t, "HIGH", records[0].ProcessedData["severity"])
}

func TestProcessingSummary(t *testing.T) {
	svc := newService(t)
	_, err := svc.ProcessFile(context.Background(), csvUpload("passenger.csv", passengerCSV), "Operations", "metro", nil)
	require.NoError(t, err)

	summary := svc.ProcessingSummary("Operations")
	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 1, summary.ValidRecords)
	assert.Equal(t, 1, summary.InvalidRecords)
	assert.Equal(t, map[string]int{"Passenger Data": 2}, summary.Categories)

	assert.Equal(t, 0, svc.ProcessingSummary("Finance").TotalRecords)
}

func TestProcessFile_Concurrent(t *testing.T) {
	svc := core.NewService(core.NewRuleRegistry(rules.Defaults()), core.ServiceConfig{MaxConcurrent: 2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			project := fmt.Sprintf("p%d", i%2)
			_, err := svc.ProcessFile(context.Background(), csvUpload("passenger.csv", passengerCSV), "Operations", project, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, svc.StoredData("Operations", ""), 16)
	assert.Len(t, svc.StoredData("Operations", "p0"), 8)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
}

func TestService_Catalog(t *testing.T) {
	svc := newService(t)

	assert.Equal(t, []string{"Operations", "Maintenance", "Finance", "HR", "Safety"}, svc.Departments())
	assert.Len(t, svc.ProcessingRules(""), 5)
	require.Len(t, svc.ProcessingRules("Operations"), 1)
	assert.Equal(t, "passenger-ridership", svc.ProcessingRules("Operations")[0].ID)
	assert.Equal(t, "Passenger Data", svc.CategorizeFile("boarding.csv").Category)
}
