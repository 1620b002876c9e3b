package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrCancelled request was superseded or its caller went away
var ErrCancelled = errors.New("request cancelled")

// InvalidReceiptCode structured code for a rejected receipt number
const InvalidReceiptCode = "INVALID_RECEIPT"

const invalidReceiptText = "Invalid receipt number"

// GenericErrorMessage shown when the server gave no message
const GenericErrorMessage = "Something went wrong. Please try again."

// APIError non-2xx (or success=false) response from the backend
type APIError struct {
	Status  int
	Message string
	Code    string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// ValidationError client-side validation failure; the request was never sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrorKind one of the three error surfaces of the console
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindCancelled
	KindValidation
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCancelled:
		return "cancelled"
	case KindValidation:
		return "validation"
	default:
		return "server"
	}
}

// Classify maps any error onto cancelled, validation or server
func Classify(err error) ErrorKind {
	var verr *ValidationError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.As(err, &verr):
		return KindValidation
	default:
		return KindServer
	}
}

// IsInvalidReceipt structured code first, then the legacy message text
func IsInvalidReceipt(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if strings.EqualFold(apiErr.Code, InvalidReceiptCode) {
		return true
	}
	if strings.Contains(apiErr.Message, invalidReceiptText) {
		return true
	}
	for _, msgs := range apiErr.Fields {
		for _, m := range msgs {
			if strings.Contains(m, invalidReceiptText) {
				return true
			}
		}
	}
	return false
}

// UserMessage server message when present, otherwise fallback
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	if fallback == "" {
		return GenericErrorMessage
	}
	return fallback
}

// IsNotFound backend answered 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
