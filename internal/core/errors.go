package core

import "errors"

// Fatal, file-level errors. Any of these aborts ProcessFile and nothing is
// stored for the attempt. Match with errors.Is.
var (
	ErrFileRead                = errors.New("failed to read file")
	ErrFileTooLarge            = errors.New("file too large")
	ErrEmptyFile               = errors.New("empty file")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrMalformedJSON           = errors.New("malformed json payload")
	ErrNoProcessingRule        = errors.New("no processing rule found")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
	ErrJobNotFound             = errors.New("job not found")
)
