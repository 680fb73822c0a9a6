package core

// error_messages.go maps unfold failures to user-facing messages with codes
// for support reference. The CLI prints them; the web layer returns them.
//
// # Argument Errors (ARG001-ARG099)
//
//	ARG001 - Invalid argument: A parameter of the request is malformed
//	         Action: Name the pivot and payload columns; column names must not be empty
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: A named column is not in the table header
//	         Action: Check the spelling against the first line of the file
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Row/header mismatch: A data row does not fit the header
//	         Action: Make sure every row has no more fields than the header
//
// # Consistency Errors (CON001-CON099)
//
//	CON001 - Inconsistent constant column: A constant column changes within a pivot group
//	         Action: Fix the source data or stop declaring the column constant
//
// # I/O Errors (IO001-IO099)
//
//	IO001 - I/O failure: The table could not be read or the result written
//	        Action: Check that the file exists, is readable, and is valid CSV
//
// # Service Errors (SVC001-SVC099)
//
//	SVC001 - System busy: Too many unfold jobs in progress
//	SVC002 - Request cancelled
//	SVC003 - Request timed out
//
// # Default Error (ERR000)
//
// Typed errors are classified with errors.Is; anything else falls back to
// ERR000 and should be looked up in the logs.

import (
	"context"
	"errors"
	"fmt"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorClass ties a sentinel to its user message. The first match wins.
type errorClass struct {
	target error
	msg    UserMessage
}

var errorClasses = []errorClass{
	{
		target: ErrInvalidArgument,
		msg: UserMessage{
			Message: "A request parameter is invalid",
			Action:  "Name the pivot and payload columns; column names must not be empty",
			Code:    "ARG001",
		},
	},
	{
		target: ErrUnknownColumn,
		msg: UserMessage{
			Message: "A named column is not in the table header",
			Action:  "Check the spelling against the first line of the file",
			Code:    "COL001",
		},
	},
	{
		target: ErrRowHeaderMismatch,
		msg: UserMessage{
			Message: "A data row does not fit the table header",
			Action:  "Make sure every row has no more fields than the header",
			Code:    "ROW001",
		},
	},
	{
		target: ErrInconsistentConstant,
		msg: UserMessage{
			Message: "A constant column changes value within one pivot group",
			Action:  "Fix the source data or stop declaring the column constant",
			Code:    "CON001",
		},
	},
	{
		target: ErrIO,
		msg: UserMessage{
			Message: "The table could not be read or the result could not be written",
			Action:  "Check that the file exists, is readable, and is valid CSV",
			Code:    "IO001",
		},
	},
	{
		target: ErrTooManyJobs,
		msg: UserMessage{
			Message: "System is busy processing other unfold jobs",
			Action:  "Please wait a moment and try again",
			Code:    "SVC001",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SVC002",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller table or try again later",
			Code:    "SVC003",
		},
	},
}

// defaultMessage is returned when no class matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action: detail" where detail
// is the technical error text, which names the offending columns and values.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s: %v", msg.Message, msg.Code, msg.Action, err)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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
