package repositories

import "errors"

// Lookup errors shared by every backend implementation.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrLimitNotFound       = errors.New("card limit not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)
