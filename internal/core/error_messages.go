package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference. Users quote the code; logs carry the raw
// error keyed by the same request ID.
//
// Code groups:
//
//	PAGE001-PAGE099  page operations
//	TBL001-TBL099    table operations
//	FILE001-FILE099  import file handling
//	STORE001-STORE099 persistence
//	AI001-AI099      cell generation
//	REQ001-REQ099    request lifecycle

import (
	"fmt"
	"strings"
)

// UserMessage is a user-facing rendering of an error.
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

// errorPatterns maps technical error substrings (case-insensitive) to user
// messages. First match wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	{"page not found", UserMessage{
		Message: "That page no longer exists",
		Action:  "Refresh the page list and try again",
		Code:    "PAGE001",
	}},
	{"table not found", UserMessage{
		Message: "That table no longer exists",
		Action:  "Refresh the page and try again",
		Code:    "TBL001",
	}},
	{"page has too many tables", UserMessage{
		Message: "This page has reached its table limit",
		Action:  "Delete unused tables or import into another page",
		Code:    "TBL002",
	}},
	{"file too large", UserMessage{
		Message: "The file exceeds the maximum import size",
		Action:  "Split the file into smaller exports and import them separately",
		Code:    "FILE001",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Choose a CSV file to import",
		Code:    "FILE002",
	}},
	{"import produced no tables", UserMessage{
		Message: "The file contained no table data",
		Action:  "Check that the file is a CSV export with at least a header row",
		Code:    "FILE003",
	}},
	{"cell generation is not configured", UserMessage{
		Message: "AI cell generation is not enabled on this server",
		Action:  "Set an AI API key in the server configuration",
		Code:    "AI001",
	}},
	{"generation failed", UserMessage{
		Message: "The AI provider could not generate cell values",
		Action:  "Try again, or simplify the instruction",
		Code:    "AI002",
	}},
	{"connection refused", UserMessage{
		Message: "The storage backend is unreachable",
		Action:  "Please try again in a few moments",
		Code:    "STORE001",
	}},
	{"workspace state corrupt", UserMessage{
		Message: "Saved workspace data could not be read",
		Action:  "A fresh workspace was created; contact support to recover the old one",
		Code:    "STORE002",
	}},
	{"invalid request body", UserMessage{
		Message: "The request could not be understood",
		Action:  "Check the request format and try again",
		Code:    "REQ003",
	}},
	{"context canceled", UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "The request timed out",
		Action:  "Try again, or import a smaller file",
		Code:    "REQ002",
	}},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again; contact support if the problem persists",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
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

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern (not the
// generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
