package types

import (
	"fmt"
)

// Error codes surfaced to callers.
const (
	ErrCodeProviderUnavailable    = "PROVIDER_UNAVAILABLE"
	ErrCodeNoRoute                = "NO_ROUTE"
	ErrCodeAmountExceedsMax       = "AMOUNT_EXCEEDS_MAX"
	ErrCodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	ErrCodeUnsupportedScheme      = "UNSUPPORTED_SCHEME"
	ErrCodeFacilitatorError       = "FACILITATOR_ERROR"
	ErrCodeInvalidSignature       = "INVALID_SIGNATURE"
	ErrCodeTimeout                = "TIMEOUT"
	ErrCodeInvalidParams          = "INVALID_PARAMS"
	ErrCodeInvalidPaymentRequired = "INVALID_PAYMENT_REQUIRED"
	ErrCodeNotConfigured          = "NOT_CONFIGURED"
	ErrCodeUnknownProvider        = "UNKNOWN_PROVIDER"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrProviderUnavailable    = &Error{Code: ErrCodeProviderUnavailable}
	ErrNoRoute                = &Error{Code: ErrCodeNoRoute}
	ErrAmountExceedsMax       = &Error{Code: ErrCodeAmountExceedsMax}
	ErrInsufficientBalance    = &Error{Code: ErrCodeInsufficientBalance}
	ErrUnsupportedScheme      = &Error{Code: ErrCodeUnsupportedScheme}
	ErrFacilitator            = &Error{Code: ErrCodeFacilitatorError}
	ErrInvalidSignature       = &Error{Code: ErrCodeInvalidSignature}
	ErrTimeout                = &Error{Code: ErrCodeTimeout}
	ErrInvalidParams          = &Error{Code: ErrCodeInvalidParams}
	ErrInvalidPaymentRequired = &Error{Code: ErrCodeInvalidPaymentRequired}
	ErrNotConfigured          = &Error{Code: ErrCodeNotConfigured}
	ErrUnknownProvider        = &Error{Code: ErrCodeUnknownProvider}
)

// Error is the typed error returned across the module.
type Error struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Provider ProviderName   `json:"provider,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Cause    error          `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on the error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError builds an Error with a formatted message.
func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewProviderUnavailable reports a provider that failed, timed out or answered garbage.
func NewProviderUnavailable(provider ProviderName, message string, cause error) *Error {
	return &Error{
		Code:     ErrCodeProviderUnavailable,
		Message:  message,
		Provider: provider,
		Cause:    cause,
	}
}

// NewAmountExceedsMax reports a payment above the configured ceiling.
func NewAmountExceedsMax(required, max string) *Error {
	return &Error{
		Code:    ErrCodeAmountExceedsMax,
		Message: fmt.Sprintf("payment amount %s exceeds per-request maximum %s", required, max),
		Data:    map[string]any{"required": required, "max": max},
	}
}

// NewInsufficientBalance reports a wallet that cannot cover a payment.
func NewInsufficientBalance(required, available string) *Error {
	return &Error{
		Code:    ErrCodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient balance: required %s, available %s", required, available),
		Data:    map[string]any{"required": required, "available": available},
	}
}

// NewTimeout reports exhausted polling.
func NewTimeout(attempts int) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("no terminal status after %d attempts", attempts),
		Data:    map[string]any{"attempts": attempts},
	}
}

// NewUnknownProvider reports a provider tag that is not registered.
func NewUnknownProvider(provider ProviderName) *Error {
	return &Error{
		Code:     ErrCodeUnknownProvider,
		Message:  "provider is not registered",
		Provider: provider,
	}
}

// NewNotConfigured reports a missing optional collaborator.
func NewNotConfigured(what string) *Error {
	return &Error{
		Code:    ErrCodeNotConfigured,
		Message: fmt.Sprintf("%s not configured", what),
	}
}
