package errors

var (
	ErrInsufficientBalance = &DomainError{
		Kind:    KindInsufficientFunds,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrWalletNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrMissingIdempotencyKey = &DomainError{
		Kind:    KindValidation,
		Code:    "MISSING_IDEMPOTENCY_KEY",
		Message: "ledger delta requires an idempotency key",
	}
	ErrInvalidReason = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_REASON",
		Message: "unknown ledger reason",
	}
	// ErrIdempotencyMismatch means a key was reused for a different delta.
	ErrIdempotencyMismatch = &DomainError{
		Kind:    KindStateConflict,
		Code:    "IDEMPOTENCY_KEY_REUSED",
		Message: "idempotency key already used for a different delta",
	}
	ErrEntryNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ENTRY_NOT_FOUND",
		Message: "ledger entry not found",
	}
)
