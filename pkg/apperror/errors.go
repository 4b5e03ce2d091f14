package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Error codes used across the swap core.
const (
	CodeValidation        = "VAL_001"
	CodeQuoteRejected     = "QUOTE_001"
	CodeInsufficientFunds = "FUND_001"
	CodeExchange          = "EXCH_001"
	CodeTransferFailure   = "XFER_001"
	CodeTransferUnknown   = "XFER_002"
	CodeWallet            = "WALL_001"
	CodePollingDegraded   = "POLL_001"
	CodeRateUnavailable   = "RATE_001"
	CodeStorage           = "STOR_001"
	CodeOrderNotFound     = "NOTF_001"
)

// AppError is a structured error carrying a stable code and a user-facing message.
type AppError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // internal cause, never shown to users

	// QuoteCodes holds the exchange error codes for QUOTE_001.
	QuoteCodes []string `json:"quote_codes,omitempty"`

	// Funds details for FUND_001.
	Shortfall decimal.Decimal `json:"shortfall,omitempty"`
	Balance   decimal.Decimal `json:"balance,omitempty"`
	Required  decimal.Decimal `json:"required,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}

// As extracts the AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// ---- Input ----

func ErrValidation(message string) *AppError {
	return New(CodeValidation, message)
}

// ---- Exchange ----

// ErrQuoteRejected reports a quote that came back with one or more error codes.
func ErrQuoteRejected(codes []string) *AppError {
	e := New(CodeQuoteRejected, "Quote rejected: "+strings.Join(codes, ", "))
	e.QuoteCodes = append([]string(nil), codes...)
	return e
}

// ErrExchange carries the remote message verbatim.
func ErrExchange(message string, err error) *AppError {
	return Wrap(CodeExchange, message, err)
}

func ErrOrderNotFound(orderID string) *AppError {
	return New(CodeOrderNotFound, fmt.Sprintf("order %s not found", orderID))
}

// ---- Funds ----

// ErrInsufficientFunds reports that balance does not cover required.
func ErrInsufficientFunds(balance, required decimal.Decimal) *AppError {
	shortfall := required.Sub(balance)
	e := New(CodeInsufficientFunds, fmt.Sprintf("Insufficient balance: short by %s", shortfall.String()))
	e.Shortfall = shortfall
	e.Balance = balance
	e.Required = required
	return e
}

// ---- Transfer ----

func ErrTransferFailure(err error) *AppError {
	return Wrap(CodeTransferFailure, "Transfer submission failed", err)
}

// ErrTransferUnknown is returned when a transaction was broadcast but its outcome
// could not be observed. It must not be retried automatically.
func ErrTransferUnknown(txID string, err error) *AppError {
	return Wrap(CodeTransferUnknown, fmt.Sprintf("Transfer %s outcome unknown", txID), err)
}

// ErrWallet reports a custody wallet that could not be loaded or read.
func ErrWallet(err error) *AppError {
	return Wrap(CodeWallet, "Wallet unavailable", err)
}

// ---- Polling ----

func ErrPollingDegraded(err error) *AppError {
	return Wrap(CodePollingDegraded, "Order status temporarily unavailable", err)
}

// ---- Rates ----

func ErrRateUnavailable(source string, err error) *AppError {
	return Wrap(CodeRateUnavailable, fmt.Sprintf("Rate unavailable from %s", source), err)
}

// ---- System ----

func ErrStorage(err error) *AppError {
	return Wrap(CodeStorage, "Internal storage error", err)
}
