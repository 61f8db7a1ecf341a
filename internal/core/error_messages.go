// Error codes reference.
//
// Technical errors are mapped to user-facing messages with a code users can
// quote to support staff.
//
// # File Content Errors (NEM001-NEM099)
//
//	NEM001 - Structure: File is missing its 100 header or 900 footer record
//	         Patterns: "missing valid start (100) or end (900)"
//	NEM002 - Unknown format: File type is not supported
//	         Patterns: "unknown format"
//	NEM003 - Line too long: A line is longer than NEM12_MAX_LINE_BYTES
//	         Patterns: "token too long"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key              Patterns: "duplicate key"
//	DB002 - Unique constraint          Patterns: "unique constraint"
//	DB003 - Foreign key                Patterns: "foreign key constraint"
//	DB004 - Connection refused         Patterns: "connection refused"
//	DB005 - Connection reset           Patterns: "connection reset"
//	DB006 - Timeout                    Patterns: "timeout"
//	DB007 - Deadlock                   Patterns: "deadlock"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large           Patterns: "file too large", "request body too large"
//	FILE002 - File not found           Patterns: "no such file"
//	FILE003 - Unreadable file          Patterns: "permission denied"
//	FILE004 - No file                  Patterns: "no file provided"
//	FILE005 - Empty file               Patterns: "empty file"
//
// # Ingest Errors (ING001-ING099)
//
//	ING001 - Cancelled                 Patterns: "context canceled"
//	ING002 - System busy               Patterns: "too many ingests"
//	ING003 - Run not found             Patterns: "not found"
//	ING004 - Timed out                 Patterns: "context deadline exceeded"
//	ING005 - Bad run id                Patterns: "invalid run id"
//	ING006 - Bad paging                Patterns: "must be a non-negative integer"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones. "no such file"
// must precede "not found", and "timeout" must precede the context errors.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Content Errors (NEM001-NEM003)
	// These errors stop a parse before an audit record is produced.
	// =========================================================================
	{
		pattern: "missing valid start (100) or end (900)",
		msg: UserMessage{
			Message: "File is missing its 100 header or 900 footer record",
			Action:  "Check the file was not truncated and re-export it from the source system",
			Code:    "NEM001",
		},
	},
	{
		pattern: "unknown format",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a NEM12 file with a .csv or .nem12 extension",
			Code:    "NEM002",
		},
	},
	{
		pattern: "token too long",
		msg: UserMessage{
			Message: "A line in the file is longer than allowed",
			Action:  "Check the delimiter setting or raise NEM12_MAX_LINE_BYTES",
			Code:    "NEM003",
		},
	},

	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// These errors occur when data violates database constraints.
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check whether the file was already ingested",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Run database migrations and try again",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
	// These errors occur when database connectivity is disrupted.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// These errors occur when receiving or opening files.
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the path and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "File could not be read",
			Action:  "Check the file permissions",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a NEM12 file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with 100, 200, 300 and 900 records",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Ingest Errors (ING001-ING004)
	// These errors occur around the ingest process itself.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Ingest was cancelled",
			Action:  "Start a new ingest when ready",
			Code:    "ING001",
		},
	},
	{
		pattern: "too many ingests",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "ING002",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "Ingest run not found",
			Action:  "Check the run id",
			Code:    "ING003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Ingest timed out",
			Action:  "Try a smaller file or raise INGEST_TIMEOUT",
			Code:    "ING004",
		},
	},
	{
		pattern: "invalid run id",
		msg: UserMessage{
			Message: "Run id is not valid",
			Action:  "Use the run_id returned by the ingest",
			Code:    "ING005",
		},
	},
	{
		pattern: "must be a non-negative integer",
		msg: UserMessage{
			Message: "Paging parameters are not valid",
			Action:  "Pass limit and offset as whole numbers",
			Code:    "ING006",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("duplicate key violation")
//	msg := MapError(err)
//	// msg.Code == "DB001"
//	// msg.Message == "A record with this ID already exists"
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "A record with this ID already exists (Code: DB001). Download failed rows to review duplicates"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// WrapWithUserMessage wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
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

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(dbErr)
//	log.Error(ue.Technical)          // Log original error
//	fmt.Println(ue.Error())           // Show "A record with this ID already exists"
//	fmt.Println(ue.User.Code)         // Show "DB001"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
