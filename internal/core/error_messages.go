package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. When users quote a
// code, support staff can find the cause here without the server logs.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: file exceeds the upload size limit
//	          Action: Split the file into smaller files
//	          Matches: ErrFileTooLarge, "file too large"
//
//	FILE002 - Malformed JSON: JSON upload is not an array of objects
//	          Action: Upload a JSON array of flat objects
//	          Matches: ErrMalformedJSON
//
//	FILE003 - Unreadable file: the file could not be read
//	          Action: Re-export the file as UTF-8 and upload again
//	          Matches: ErrFileRead, "encoding error"
//
//	FILE004 - No file: no file was attached to the request
//	          Action: Select a file to upload
//	          Matches: "no file provided"
//
//	FILE005 - Empty file: the file has no data rows
//	          Action: Upload a file with a header row and data rows
//	          Matches: "empty file"
//
//	FILE006 - Unsupported type: not CSV, JSON or a spreadsheet export
//	          Action: Upload a .csv or .json file
//	          Matches: ErrUnsupportedFileType
//
// # Rule Errors (RULE001-RULE099)
//
//	RULE001 - No rule: the department has no processing rules
//	          Action: Pick one of the configured departments
//	          Matches: ErrNoProcessingRule
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unsupported export format
//	         Action: Use json or csv
//	         Matches: ErrUnsupportedExportFormat
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Job not found: the job id is unknown or has expired
//	UPL002 - System busy: every processing slot is taken (ErrTooManyUploads)
//	UPL003 - Missing department: the request did not name a department
//	UPL004 - Request cancelled: context.Canceled
//	UPL005 - Request timeout: context.DeadlineExceeded
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from this client
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server logs for the technical
// error, which is always logged with the request id.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps a sentinel error and/or a text fragment to a message.
type errorPattern struct {
	target  error  // matched with errors.Is when set
	pattern string // matched case-insensitively when set
	msg     UserMessage
}

// errorPatterns is checked in order; the first match wins.
var errorPatterns = []errorPattern{
	// File errors
	{
		target:  ErrFileTooLarge,
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		target: ErrMalformedJSON,
		msg: UserMessage{
			Message: "The JSON file is not a list of records",
			Action:  "Upload a JSON array of flat objects",
			Code:    "FILE002",
		},
	},
	{
		target:  ErrFileRead,
		pattern: "encoding error",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Re-export the file as UTF-8 and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		target:  ErrEmptyFile,
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		target: ErrUnsupportedFileType,
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv or .json file",
			Code:    "FILE006",
		},
	},

	// Rule and export errors
	{
		target: ErrNoProcessingRule,
		msg: UserMessage{
			Message: "No processing rule is configured for this department",
			Action:  "Pick one of the configured departments",
			Code:    "RULE001",
		},
	},
	{
		target: ErrUnsupportedExportFormat,
		msg: UserMessage{
			Message: "Unsupported export format",
			Action:  "Use json or csv",
			Code:    "EXP001",
		},
	},

	// Upload errors
	{
		target: ErrJobNotFound,
		msg: UserMessage{
			Message: "Processing job not found",
			Action:  "The job may have expired. Please upload the file again",
			Code:    "UPL001",
		},
	},
	{
		target:  ErrTooManyUploads,
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "department is required",
		msg: UserMessage{
			Message: "No department was selected",
			Action:  "Select the department that owns this file",
			Code:    "UPL003",
		},
	},
	{
		target:  context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		target:  context.DeadlineExceeded,
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinel matches are tried before text matches within each entry.
// Returns a zero UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if ep.target != nil && errors.Is(err, ep.target) {
			return ep.msg
		}
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
