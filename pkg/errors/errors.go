package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is raised when the search collaborator reports a rate
	// limit. It is the only collaborator failure that must propagate to the
	// caller instead of degrading to an empty result.
	ErrQuotaExceeded = errors.New("search quota exceeded")

	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrStoreCorrupted  = errors.New("reference store corrupted")
	ErrBrowserNotReady = errors.New("browser session not ready")
	ErrRestartBudget   = errors.New("browser restart budget exhausted")
)

// ProviderError wraps a transient failure from an external collaborator
// (search, vision, blocklist). Call sites catch it and degrade to an
// empty or negative result.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

// NavigationError wraps a page-load or script failure inside a browser
// branch. The orchestrator catches it at the branch boundary and falls
// through to the next rule with a negative default.
type NavigationError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *NavigationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("navigation to %s timed out: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

func NewNavigationError(url string, timeout bool, err error) *NavigationError {
	return &NavigationError{URL: url, Timeout: timeout, Err: err}
}

// IsTimeout reports whether err is a navigation timeout.
func IsTimeout(err error) bool {
	var nav *NavigationError
	return errors.As(err, &nav) && nav.Timeout
}

type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
