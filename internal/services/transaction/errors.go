package transaction

import "errors"

// Validation errors, surfaced to the caller with their message preserved.
var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrSameCard             = errors.New("cannot transfer to the same card")
	ErrCardNotActive        = errors.New("Card status is not ACTIVE")
	ErrInsufficientBalance  = errors.New("insufficient card balance")
	ErrNoLimitConfigured    = errors.New("card has no limit configured")
	ErrDailyLimitExceeded   = errors.New("Daily spent limit exceeded")
	ErrMonthlyLimitExceeded = errors.New("Monthly limit exceeded")
)

// IsValidation reports whether err is one of the transaction validation
// failures (as opposed to a lookup failure or an internal fault).
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrSameCard,
		ErrCardNotActive,
		ErrInsufficientBalance,
		ErrNoLimitConfigured,
		ErrDailyLimitExceeded,
		ErrMonthlyLimitExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
