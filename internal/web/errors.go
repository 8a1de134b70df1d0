package web

// errors.go turns pipeline errors into JSON responses.
//
// The technical error is logged with the request id; the client gets the
// catalogued message from core.MapError so support can correlate the two by
// code and request id.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/deptdata/internal/core"
	"github.com/JonMunkholm/deptdata/internal/logging"
)

var (
	errRateLimited        = errors.New("rate limit exceeded")
	errNoFile             = errors.New("no file provided")
	errDepartmentRequired = errors.New("department is required")
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form. A status of 0
// derives the status from the error.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	userErr := core.NewUserError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "code", userErr.User.Code, "error", userErr.Technical)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "code", userErr.User.Code, "error", userErr.Technical)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   userErr.Error(),
		Message: userErr.User.Message,
		Action:  userErr.User.Action,
		Code:    userErr.User.Code,
	})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrMalformedJSON),
		errors.Is(err, core.ErrNoProcessingRule),
		errors.Is(err, core.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrFileRead),
		errors.Is(err, core.ErrUnsupportedExportFormat),
		errors.Is(err, errNoFile),
		errors.Is(err, errDepartmentRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
