package core

// error_messages.go defines the error kinds of the package and the user-friendly
// messages shown for them. Users can quote the code to support.
//
//	FILE001 - File too large        (ErrFileTooLarge)
//	FILE002 - Unsupported format    (ErrUnsupportedFormat)
//	FILE003 - Read failure          (ErrReadFailure)
//	FILE004 - No file               ("no file provided")
//	MATCH001 - Nothing to match     (ErrNothingToMatch)
//	UPL002 - System busy            (ErrTooManyReads)
//	UPL004 - Request cancelled      (context.Canceled)
//	UPL005 - Request timeout        (context.DeadlineExceeded)
//	SES001 - Session expired        (ErrSessionNotFound)
//	RATE001 - Rate limited          ("rate limit")
//	ERR000 - Unknown error
//
// Sentinel errors are matched with errors.Is first. Errors that only carry text
// (from the HTTP layer) fall back to case-insensitive pattern matching.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when no reader handles the file extension
	// for the requested category.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrReadFailure wraps I/O failures and malformed file contents.
	ErrReadFailure = errors.New("file read failed")

	// ErrNothingToMatch is returned by Check when either list is empty.
	ErrNothingToMatch = errors.New("both lists must be loaded before checking")

	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "The file is larger than the upload limit",
		Action:  "Remove unrelated sheets or split the file",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: "This file type is not supported here",
		Action:  "Use a CSV or Excel file for your bonds, or a text, CSV or Excel file for the draw",
		Code:    "FILE002",
	}
	msgReadFailure = UserMessage{
		Message: "Error reading file",
		Action:  "Make sure it is a valid text, Excel or CSV file",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a file to upload",
		Code:    "FILE004",
	}
	msgNothingToMatch = UserMessage{
		Message: "Please upload both files first",
		Action:  "Load your bonds and the winning numbers, then check again",
		Code:    "MATCH001",
	}
	msgBusy = UserMessage{
		Message: "System is busy reading other files",
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
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgSessionExpired = UserMessage{
		Message: "Your session has expired",
		Action:  "Reload the page and upload your files again",
		Code:    "SES001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// sentinelMessages is checked in order with errors.Is.
// ErrUnsupportedFormat comes before ErrReadFailure since a wrapped error may carry both.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrUnsupportedFormat, msgUnsupported},
	{ErrNothingToMatch, msgNothingToMatch},
	{ErrTooManyReads, msgBusy},
	{ErrSessionNotFound, msgSessionExpired},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
	{ErrReadFailure, msgReadFailure},
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"request body too large", msgFileTooLarge},
	{"file too large", msgFileTooLarge},
	{"unsupported file format", msgUnsupported},
	{"no file provided", msgNoFile},
	{"rate limit", msgRateLimited},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// MessageForCode returns the user message registered under code.
// Used to render an error again after a redirect.
func MessageForCode(code string) (UserMessage, bool) {
	for _, sm := range sentinelMessages {
		if sm.msg.Code == code {
			return sm.msg, true
		}
	}
	for _, ep := range errorPatterns {
		if ep.msg.Code == code {
			return ep.msg, true
		}
	}
	if code == defaultMessage.Code {
		return defaultMessage, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a display string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// UserError pairs a technical error with the message shown to users.
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
