package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Digital-Shane/title-fetch/internal/episode"
)

// Provider fetches the episode list of a show and returns it grouped by season.
type Provider interface {
	Kind() Kind
	Name() string
	Description() string
	RequiresAPIKey() bool
	Fetch(ctx context.Context, query episode.Query) (*episode.Result, error)
}

// Error codes carried by ProviderError.
const (
	CodeAuthFailed      = "AUTH_FAILED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNotFound        = "NOT_FOUND"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeUnknown         = "UNKNOWN"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
}

func (e *ProviderError) Error() string {
	return e.Message
}

// ValidationError is returned before any network traffic when a query cannot
// be sent to the selected provider.
type ValidationError struct {
	Provider string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ValidateQuery checks the query against the requirements of the provider.
func ValidateQuery(p Provider, query episode.Query) error {
	if p.RequiresAPIKey() && strings.TrimSpace(query.APIKey) == "" {
		return &ValidationError{Provider: p.Name(), Field: "api_key", Message: "API key required"}
	}
	if query.IsEmpty() {
		return &ValidationError{Provider: p.Name(), Field: "query", Message: "You must provide either a show ID or a show name."}
	}
	if query.AnimeID < 0 {
		return &ValidationError{Provider: p.Name(), Field: "anime_id", Message: "show ID must be positive"}
	}
	if query.Year < 0 {
		return &ValidationError{Provider: p.Name(), Field: "year", Message: "year must be positive"}
	}
	return nil
}

// NotFound builds a NOT_FOUND ProviderError.
func NotFound(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Code: CodeNotFound, Message: message}
}

// InvalidResponse wraps a decoding failure.
func InvalidResponse(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: CodeInvalidResponse, Message: fmt.Sprintf("%s returned an unreadable response: %v", provider, err)}
}

// MapError classifies a transport or API error message into a ProviderError.
// Context cancellation is passed through unchanged.
func MapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "apikey"):
		return &ProviderError{Provider: provider, Code: CodeAuthFailed, Message: provider + " authentication failed: " + msg}
	case strings.Contains(lower, "429"), strings.Contains(lower, "too many"):
		return &ProviderError{Provider: provider, Code: CodeRateLimited, Message: msg, Retry: true, RetryAfter: 5}
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"):
		return &ProviderError{Provider: provider, Code: CodeNotFound, Message: msg}
	case strings.Contains(lower, "503"), strings.Contains(lower, "unavailable"):
		return &ProviderError{Provider: provider, Code: CodeUnavailable, Message: msg, Retry: true, RetryAfter: 30}
	default:
		return &ProviderError{Provider: provider, Code: CodeUnknown, Message: msg}
	}
}
