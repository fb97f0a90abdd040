package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("record not found")
	ErrInsufficientFunds  = errors.New("insufficient wallet funds")
	ErrInvalidLoanState   = errors.New("loan is not active")
	ErrTransactionAborted = errors.New("transaction aborted")
	ErrWalletInactive     = errors.New("wallet is inactive")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidLoanState   = "INVALID_LOAN_STATE"
	ErrCodeTransactionAborted = "TRANSACTION_ABORTED"
	ErrCodeWalletInactive     = "WALLET_INACTIVE"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
)

// Wrap common errors with business context

// WrapValidation flags inconsistent or malformed input. Mismatched split
// totals and the like are always rejected, never silently adjusted.
func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

// WrapNotFound covers both genuinely missing records and records owned by
// another tenant, so existence never leaks across tenants.
func WrapNotFound(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s with ID %s not found", entity, id),
		ErrNotFound,
	)
}

func WrapInsufficientFunds(walletName string, shortfall int64) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientFunds,
		fmt.Sprintf("wallet %s is short %d minor units", walletName, shortfall),
		ErrInsufficientFunds,
	)
}

func WrapInvalidLoanState(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanState,
		fmt.Sprintf("loan %s is %s, not active", loanID, status),
		ErrInvalidLoanState,
	)
}

// WrapTransactionAborted marks a commit-time conflict. This is the only
// error class callers should blindly retry.
func WrapTransactionAborted(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionAborted,
		"atomic commit failed due to a concurrent conflict, retry the operation",
		errors.Join(ErrTransactionAborted, err),
	)
}

func WrapWalletInactive(walletName string) *BusinessError {
	return NewBusinessError(
		ErrCodeWalletInactive,
		fmt.Sprintf("wallet %s is deactivated", walletName),
		ErrWalletInactive,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}

// CodeOf extracts the business error code, or the empty string for
// anything that is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
