package core

// # Error Codes Reference
//
// User facing errors carry a code that support staff can look up.
// Typed errors from the pipeline are classified first; anything else falls
// back to case-insensitive pattern matching on the error text.
//
//	FMT001 - The file could not be read in the chosen format
//	TGT001 - The target database type is not supported
//	CFG001 - The target is missing connection settings
//	CFG002 - The target rejected the configured credentials
//	SNK001 - The target reported an error while writing
//	DB001  - Duplicate key
//	DB004  - Target unreachable
//	DB006  - Target timed out
//	FILE001 - File too large
//	FILE004 - No file provided
//	FILE005 - Empty file
//	UPL002 - Too many ingests in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//	RATE001 - Rate limited
//	ERR000 - Unknown error; check the logs for the technical error
//
// Sink errors are matched against the DB and CFG patterns before falling
// back to SNK001, so a duplicate key inside a relational insert still reads
// as DB001.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/dbroute/internal/normalize"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicate = UserMessage{
		Message: "A record with this key already exists",
		Action:  "Remove duplicate rows or use a new table name",
		Code:    "DB001",
	}
	msgUnreachable = UserMessage{
		Message: "Unable to connect to the target database",
		Action:  "Check the endpoint settings and try again in a few moments",
		Code:    "DB004",
	}
	msgTargetTimeout = UserMessage{
		Message: "The target database timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}
	msgCredentials = UserMessage{
		Message: "The target database rejected the configured credentials",
		Action:  "Ask an administrator to check the target credentials",
		Code:    "CFG002",
	}
	msgTooMany = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "duplicate entry", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "e11000", msg: msgDuplicate},

	{pattern: "access denied", msg: msgCredentials},
	{pattern: "accessdenied", msg: msgCredentials},
	{pattern: "authentication failed", msg: msgCredentials},
	{pattern: "unrecognizedclientexception", msg: msgCredentials},

	{pattern: "connection refused", msg: msgUnreachable},
	{pattern: "no such host", msg: msgUnreachable},
	{pattern: "server selection", msg: msgUnreachable},

	{pattern: "i/o timeout", msg: msgTargetTimeout},
	{pattern: "timeout", msg: msgTargetTimeout},

	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
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
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		fe  *normalize.FormatError
		ute *sink.UnsupportedTargetError
		ce  *sink.ConfigError
		se  *sink.SinkError
	)

	switch {
	case errors.Is(err, ErrTooManyUploads):
		return msgTooMany
	case errors.As(err, &fe):
		action := "Use a .csv, .txt, .json or .xml file"
		if fe.Kind != "" {
			action = "Check that the file is valid " + strings.ToUpper(string(fe.Kind)) + " or pick the matching format"
		}
		return UserMessage{
			Message: "Could not read the file: " + fe.Reason,
			Action:  action,
			Code:    "FMT001",
		}
	case errors.As(err, &ute):
		return UserMessage{
			Message: fmt.Sprintf("Unsupported database type %q", ute.Target),
			Action:  "Choose one of: mysql, dynamodb, documentdb, neptune",
			Code:    "TGT001",
		}
	case errors.As(err, &ce):
		return UserMessage{
			Message: fmt.Sprintf("The %s target is not configured", ce.Kind.Label()),
			Action:  "Provide: " + strings.Join(ce.Fields, ", "),
			Code:    "CFG001",
		}
	case errors.As(err, &se):
		if msg, ok := matchPattern(se.Err); ok {
			return msg
		}
		if errors.Is(se.Err, context.DeadlineExceeded) {
			return msgTargetTimeout
		}
		return UserMessage{
			Message: fmt.Sprintf("The %s target failed during %s", se.Kind.Label(), se.Op),
			Action:  "Check the data and the target, then try again",
			Code:    "SNK001",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, context.Canceled):
		return msgCancelled
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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
