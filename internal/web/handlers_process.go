package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/JonMunkholm/deptdata/internal/core"
	"github.com/JonMunkholm/deptdata/internal/logging"
)

// multipartOverhead allows room for form fields around the file part.
const multipartOverhead = 1 << 20

// uploadForm is the parsed multipart body shared by /process and /jobs.
type uploadForm struct {
	upload     core.Upload
	department string
	project    string
	file       multipart.File
}

func (f *uploadForm) Close() {
	if f.file != nil {
		f.file.Close()
	}
}

// parseUploadForm reads the "file", "department" and "project" fields.
// The body is capped at the configured file size.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, core.ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, err
	}

	department := strings.TrimSpace(r.FormValue("department"))
	if department == "" {
		return nil, errDepartmentRequired
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}

	return &uploadForm{
		upload: core.Upload{
			Name:        header.Filename,
			ContentType: declaredType(header.Header.Get("Content-Type")),
			Body:        file,
		},
		department: department,
		project:    strings.TrimSpace(r.FormValue("project")),
		file:       file,
	}, nil
}

// declaredType drops MIME types that say nothing about the format so the
// pipeline falls back to the file extension.
func declaredType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	ct = strings.TrimSpace(strings.ToLower(ct))
	switch ct {
	case "", "application/octet-stream", "application/vnd.ms-excel":
		return ""
	}
	return ct
}

// handleProcess processes the upload synchronously and returns its stats.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseUploadForm(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer form.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	stats, err := s.service.ProcessFile(ctx, form.upload, form.department, form.project, nil)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file":       form.upload.Name,
		"department": form.department,
		"project":    form.project,
		"stats":      stats,
	})
}

// handlePreview runs the rule over the upload without storing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseUploadForm(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer form.Close()

	preview, err := s.service.PreviewFile(WithRequestMetadata(r.Context(), r), form.upload, form.department)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleStartJob queues the upload for background processing.
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseUploadForm(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer form.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	jobID, err := s.service.StartProcessing(ctx, form.upload, form.department, form.project)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	logging.WithFields(r.Context(), "job_id", jobID, "file", form.upload.Name).
		Info("processing job queued", "department", form.department, "project", form.project)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   jobID,
		"progress": "/api/jobs/" + jobID + "/progress",
		"result":   "/api/jobs/" + jobID,
	})
}
