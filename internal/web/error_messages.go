package web

// # Error Codes Reference
//
// Every JSON error carries a code that users can quote to support.
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Catalog not loaded (503)
//	         Action: Try again once the catalog has been ingested
//	CAT002 - Recipe not found (404)
//	         Action: The catalog may have been reloaded; search again
//	CAT003 - Catalog payload too large (502)
//	         Action: Raise CATALOG_MAX_BYTES or trim the source file
//	CAT004 - Catalog source unreachable (502)
//	         Action: Check the catalog source configuration
//	         Patterns: "connection refused", "no such host"
//
// # Recommendation Errors (REC001-REC099)
//
//	REC001 - Recommendation service unavailable (503)
//	         Action: Please try again in a few moments
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid JSON body (400)
//	REQ002 - Validation failed (400); the message lists each problem
//	REQ003 - Invalid recipe ID (400)
//	REQ004 - Request body too large (413)
//	REQ005 - Request cancelled (503)
//	         Patterns: "context canceled"
//	REQ006 - Request timed out (504)
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Authentication Errors (AUTH001-AUTH099)
//
// Written by the middleware package: AUTH001 no token, AUTH002 invalid
// token, AUTH003 missing API key, AUTH004 invalid API key.
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests (429)
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred (500)
//	         Check the logs for the request_id of the failed request.
//
// Sentinel errors are matched first with errors.Is/errors.As, so wrapping
// never hides them. Remaining errors are matched case-insensitively against
// the message patterns; the first match wins.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/catalog/source"
	"github.com/JonMunkholm/recipebox/internal/feedback"
	"github.com/JonMunkholm/recipebox/internal/recommend"
	"github.com/JonMunkholm/recipebox/internal/validation"
)

var (
	errInvalidJSON = errors.New("invalid JSON body")
	errInvalidID   = errors.New("invalid recipe id")
	errRateLimited = errors.New("rate limit exceeded")
)

// UserMessage is the client-facing description of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
	Status  int    // HTTP status
}

var (
	msgNoCatalog = UserMessage{
		Message: "The recipe catalog is not loaded yet",
		Action:  "Please try again in a few moments",
		Code:    "CAT001",
		Status:  http.StatusServiceUnavailable,
	}
	msgNotFound = UserMessage{
		Message: "Recipe not found",
		Action:  "The catalog may have been reloaded; search again",
		Code:    "CAT002",
		Status:  http.StatusNotFound,
	}
	msgTooLarge = UserMessage{
		Message: "The catalog source is larger than the configured limit",
		Action:  "Raise CATALOG_MAX_BYTES or trim the source file",
		Code:    "CAT003",
		Status:  http.StatusBadGateway,
	}
	msgSourceDown = UserMessage{
		Message: "The catalog source could not be reached",
		Action:  "Check the catalog source configuration",
		Code:    "CAT004",
		Status:  http.StatusBadGateway,
	}
	msgRecommenderDown = UserMessage{
		Message: "The recommendation service is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "REC001",
		Status:  http.StatusServiceUnavailable,
	}
	msgInvalidJSON = UserMessage{
		Message: "Request body is not valid JSON",
		Action:  "Send a JSON object with Content-Type: application/json",
		Code:    "REQ001",
		Status:  http.StatusBadRequest,
	}
	msgInvalidID = UserMessage{
		Message: "Recipe ID must be a positive integer",
		Action:  "Use the id field from a recipe listing",
		Code:    "REQ003",
		Status:  http.StatusBadRequest,
	}
	msgBodyTooLarge = UserMessage{
		Message: "Request body is too large",
		Action:  "Send fewer search terms or profile entries",
		Code:    "REQ004",
		Status:  http.StatusRequestEntityTooLarge,
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ005",
		Status:  http.StatusServiceUnavailable,
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Please try again later",
		Code:    "REQ006",
		Status:  http.StatusGatewayTimeout,
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
		Status:  http.StatusTooManyRequests,
	}
)

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{catalog.ErrNoCatalog, msgNoCatalog},
	{catalog.ErrNotFound, msgNotFound},
	{feedback.ErrUnknownRecipe, msgNotFound},
	{source.ErrTooLarge, msgTooLarge},
	{source.ErrUnexpectedStatus, msgSourceDown},
	{recommend.ErrUnavailable, msgRecommenderDown},
	{errInvalidJSON, msgInvalidJSON},
	{errInvalidID, msgInvalidID},
	{errRateLimited, msgRateLimited},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that arrive without a sentinel, typically
// from the network stack. Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"connection refused", msgSourceDown},
	{"no such host", msgSourceDown},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"context canceled", msgCancelled},
}

// MapError converts err to the message shown to clients.
//
//	msg := MapError(fmt.Errorf("load: %w", catalog.ErrNoCatalog))
//	// msg.Code == "CAT001", msg.Status == 503
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		return UserMessage{
			Message: ve.Error(),
			Action:  "Fix the listed fields and resend the request",
			Code:    "REQ002",
			Status:  http.StatusBadRequest,
		}
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return msgBodyTooLarge
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
