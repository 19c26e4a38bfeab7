package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents an input validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// UserError represents an error caused by user input or configuration.
// Suggestion can provide a concrete fix for the user.
type UserError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a UserError with a message and optional suggestion.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion}
}

// WrapUserError wraps an underlying error with a user-facing message and suggestion.
func WrapUserError(err error, message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion, Err: err}
}

// ParseError reports a response body that is not usable JSON.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid JSON response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid JSON response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FetchError covers every way loading the source endpoint can fail: network
// failure, a non-2xx status, or a body that does not parse.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("error fetching data: HTTP error! Status: %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("error fetching data: %v", e.Err)
	}
	return "error fetching data"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExportError reports a failed call to the export service.
type ExportError struct {
	Format     string
	StatusCode int
	Err        error
}

func (e *ExportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("error exporting data as %s: HTTP error! Status: %d", e.Format, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("error exporting data as %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("error exporting data as %s", e.Format)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Type checkers
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

func IsFetchError(err error) bool {
	var e *FetchError
	return errors.As(err, &e)
}

func IsExportError(err error) bool {
	var e *ExportError
	return errors.As(err, &e)
}

// StatusCode returns the upstream HTTP status carried by a fetch, export, or
// contextual error, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode > 0 {
		return fe.StatusCode
	}
	var ee *ExportError
	if errors.As(err, &ee) && ee.StatusCode > 0 {
		return ee.StatusCode
	}
	var ce *ContextualError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// UserSuggestion returns a suggestion string if err is a UserError.
func UserSuggestion(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Suggestion
	}
	if IsParseError(err) {
		return "Check that the endpoint returns a JSON object or array"
	}
	return ""
}

// ContextualError wraps an error with HTTP request context for debugging.
type ContextualError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

// WrapContext wraps an error with HTTP request context.
// StatusCode can be 0 if the request never completed.
// Returns nil if err is nil.
func WrapContext(method, url string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &ContextualError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

func (e *ContextualError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s (%d): %s", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err)
}

func (e *ContextualError) Unwrap() error {
	return e.Err
}

// IsContextualError checks if an error is a ContextualError.
func IsContextualError(err error) bool {
	var ce *ContextualError
	return errors.As(err, &ce)
}

// UnknownColumnError reports column flags that name a field the dataset does not have.
func UnknownColumnError(names, available []string) error {
	suggestion := "The dataset has no columns"
	if len(available) > 0 {
		suggestion = fmt.Sprintf("Available columns:\n%s", formatSuggestionList(available))
	}
	return NewUserError(
		fmt.Sprintf("unknown column(s): %s", strings.Join(names, ", ")),
		suggestion,
	)
}

// formatSuggestionList formats a list of suggestions as a bulleted list.
func formatSuggestionList(items []string) string {
	var result string
	for _, item := range items {
		result += fmt.Sprintf("  • %s\n", item)
	}
	return result
}
