package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/deptdata/internal/core"
)

// handleHealth reports liveness and the rule catalog size.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rules":  s.service.Registry().RuleCount(),
	})
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"departments": s.service.Departments(),
	})
}

// handleListRules lists every rule, or one department's rules when
// ?department= is set.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules := s.service.ProcessingRules(r.URL.Query().Get("department"))
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.CategorizeFile(r.URL.Query().Get("filename")))
}

// handleListRecords returns stored records, newest first. Both filters are
// optional.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records := s.service.StoredData(q.Get("department"), q.Get("project"))
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ProcessingSummary(r.URL.Query().Get("department")))
}

// handleExport streams stored records as a JSON or CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	department := q.Get("department")
	format := core.ExportFormat(strings.ToLower(q.Get("format")))
	if format == "" {
		format = core.ExportJSON
	}

	body, err := s.service.ExportProcessedData(department, q.Get("project"), format)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	contentType := "application/json"
	if format == core.ExportCSV {
		contentType = "text/csv; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(department, format, time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// exportFilename builds e.g. "operations-20240101-150405.csv".
func exportFilename(department string, format core.ExportFormat, at time.Time) string {
	name := "all"
	if department != "" {
		name = strings.ToLower(strings.Join(strings.Fields(department), "-"))
	}
	return fmt.Sprintf("%s-%s.%s", name, at.UTC().Format("20060102-150405"), format)
}

// handleQueueStatus reports processing slot usage.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Limiter().Status())
}
