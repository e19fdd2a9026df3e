package core

// Error codes reference
//
// Technical errors are mapped to user-facing messages with a code the user can
// quote when asking for help. Codes are grouped by category:
//
//	FILE001 File too large          "file too large"
//	FILE002 Invalid CSV             "invalid csv"
//	FILE003 Encoding error          "encoding error"
//	FILE004 No file                 "no file provided"
//	FILE005 Empty file              "empty file"
//	FILE006 Unsupported file type   "unsupported file type"
//	FILE007 Invalid workbook        "invalid workbook"
//
//	MAP001  Unknown column          "unknown column"
//	FMT001  Unknown format          "unknown format"
//
//	PRE001  Preset not found        "preset not found"
//	PRE002  Preset exists           "preset already exists"
//	PRE003  Preset name missing     "preset name is required"
//
//	UPL002  System busy             "too many uploads"
//	UPL003  Session expired         "session not found"
//	UPL004  Request cancelled       "context canceled"
//	UPL005  Request timeout         "context deadline exceeded"
//
//	RATE001 Rate limited            "rate limit"
//	ERR000  Anything else; check the logs for the technical error.
//
// Patterns match case-insensitively with strings.Contains and the first match
// wins.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the word list into smaller files",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Export the sheet again as comma-separated values",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains characters that could not be decoded",
		Action:  "Save the file as UTF-8 or choose the matching input encoding",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Choose a spreadsheet, CSV or SFM file to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and at least one entry",
		Code:    "FILE005",
	}},
	{"unsupported file type", UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a .xlsx, .xls, .csv or .sfm file",
		Code:    "FILE006",
	}},
	{"invalid workbook", UserMessage{
		Message: "The spreadsheet could not be opened",
		Action:  "Re-save it as .xlsx; old binary .xls files are not always readable",
		Code:    "FILE007",
	}},

	// Mapping and output
	{"unknown column", UserMessage{
		Message: "A mapped column is not in the loaded file",
		Action:  "Check the mapping; the column will be written as empty",
		Code:    "MAP001",
	}},
	{"unknown format", UserMessage{
		Message: "Unknown output format",
		Action:  "Choose SFM, LIFT, Excel or CSV",
		Code:    "FMT001",
	}},

	// Presets
	{"preset not found", UserMessage{
		Message: "Mapping preset not found",
		Action:  "It may have been deleted. Pick another preset",
		Code:    "PRE001",
	}},
	{"preset already exists", UserMessage{
		Message: "A preset with this name already exists",
		Action:  "Choose a different name",
		Code:    "PRE002",
	}},
	{"preset name is required", UserMessage{
		Message: "The preset needs a name",
		Action:  "Enter a name and save again",
		Code:    "PRE003",
	}},

	// Uploads and sessions
	{"too many uploads", UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{"session not found", UserMessage{
		Message: "No file is loaded",
		Action:  "The session may have expired. Please upload the file again",
		Code:    "UPL003",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or report the problem",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
//
// Example:
//
//	msg := MapError(fmt.Errorf("read csv: %w", textio.ErrTooLarge))
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
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

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
