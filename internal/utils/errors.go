package utils

import "errors"

// Common application errors used across services.
var (
	ErrProductNotFound = errors.New("PRODUCT_NOT_FOUND")
	ErrInvalidBatch    = errors.New("INVALID_BATCH")
	ErrConfirmRequired = errors.New("CONFIRM_REQUIRED")
)
