package core

// errors.go defines the structural failures of an export run and maps them
// to user-facing messages with codes for support reference.
//
// Only structural failures surface as errors. Data-shape problems (missing
// columns, unknown codes, non-numeric measurements) are absorbed where they
// occur and never reach this file.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Cannot connect: database unreachable or credentials rejected
//	DB002 - Access denied: the database rejected the user or password
//	DB003 - Unknown database: the named database does not exist
//	DB004 - Query failed: a table query could not be executed
//	DB005 - Missing table: a source table does not exist
//	DB006 - Unknown column: an included column does not exist
//	DB007 - Timeout: the database did not answer in time
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Export failed: the workbook could not be written
//	FILE002 - Permission denied: the output directory is not writable
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run in progress: another export is already running
//	RUN002 - Cancelled: the run was cancelled before it finished

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrConnection wraps failures to open or ping the database.
	ErrConnection = errors.New("database connection failed")

	// ErrQuery wraps failures to run or read a table query.
	ErrQuery = errors.New("query failed")

	// ErrExport wraps failures to write the workbook.
	ErrExport = errors.New("export failed")

	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("an export run is already in progress")
)

// UserMessage is a user-friendly rendering of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are checked in order against the lowercased error text.
// Specific driver messages come before the generic sentinel fallbacks.
var errorPatterns = []errorPattern{
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "The database rejected the user or password",
			Action:  "Check --user and --password (DB_USER, DB_PASSWORD)",
			Code:    "DB002",
		},
	},
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "The database rejected the user or password",
			Action:  "Check --user and --password (DB_USER, DB_PASSWORD)",
			Code:    "DB002",
		},
	},
	{
		pattern: "unknown database",
		msg: UserMessage{
			Message: "The database does not exist",
			Action:  "Check --database (DB_NAME)",
			Code:    "DB003",
		},
	},
	{
		pattern: "doesn't exist",
		msg: UserMessage{
			Message: "A source table does not exist",
			Action:  "Verify the schema version matches the sheet registry",
			Code:    "DB005",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "A source table or column does not exist",
			Action:  "Verify the schema version matches the sheet registry",
			Code:    "DB005",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "An included column does not exist in its table",
			Action:  "Remove the column from the sheet registry",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The database did not answer in time",
			Action:  "Check the database host and try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The output directory is not writable",
			Action:  "Choose another --output directory or fix its permissions",
			Code:    "FILE002",
		},
	},
}

// MapError converts an error into a user-facing message.
// Returns a zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}

	switch {
	case errors.Is(err, ErrRunInProgress):
		return UserMessage{
			Message: "Another export is already running",
			Action:  "Wait for it to finish and try again",
			Code:    "RUN001",
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return UserMessage{
			Message: "The export was cancelled before it finished",
			Action:  "Start the export again",
			Code:    "RUN002",
		}
	case errors.Is(err, ErrConnection):
		return UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Check --host, --port and that the database is running",
			Code:    "DB001",
		}
	case errors.Is(err, ErrQuery):
		return UserMessage{
			Message: "A table query failed",
			Action:  "See the log for the failing table",
			Code:    "DB004",
		}
	case errors.Is(err, ErrExport):
		return UserMessage{
			Message: "The workbook could not be written",
			Action:  "Check free disk space and the output directory",
			Code:    "FILE001",
		}
	}

	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "See the log for details",
		Code:    "ERR000",
	}
}

// FormatUserMessage renders a message on one line for terminals and logs.
func FormatUserMessage(m UserMessage) string {
	var b strings.Builder
	b.WriteString(m.Message)
	if m.Action != "" {
		b.WriteString(". ")
		b.WriteString(m.Action)
	}
	if m.Code != "" {
		b.WriteString(" (")
		b.WriteString(m.Code)
		b.WriteString(")")
	}
	return b.String()
}
