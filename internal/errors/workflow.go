package errors

// Order errors
var (
	ErrOrderNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ORDER_NOT_FOUND",
		Message: "order not found",
	}
	ErrInvalidOrder = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_ORDER",
		Message: "invalid order",
	}
	ErrNotCompleted = &DomainError{
		Kind:    KindStateConflict,
		Code:    "NOT_COMPLETED",
		Message: "order has not completed its cycle",
	}
	ErrAlreadyClaimed = &DomainError{
		Kind:             KindStateConflict,
		Code:             "ALREADY_CLAIMED",
		Message:          "order earnings already claimed",
		AlreadyProcessed: true,
	}
)

// Withdrawal errors
var (
	ErrWithdrawalNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "WITHDRAWAL_NOT_FOUND",
		Message: "withdrawal not found",
	}
	ErrDuplicatePending = &DomainError{
		Kind:    KindStateConflict,
		Code:    "DUPLICATE_PENDING",
		Message: "a pending withdrawal already exists",
	}
	ErrInvalidPhone = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_PHONE",
		Message: "invalid phone number",
	}
	ErrMissingReason = &DomainError{
		Kind:    KindValidation,
		Code:    "MISSING_REASON",
		Message: "a rejection reason is required",
	}
	ErrInvalidRejectionCode = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_REJECTION_CODE",
		Message: "unknown rejection code",
	}
	ErrWithdrawalAlreadyCompleted = &DomainError{
		Kind:             KindStateConflict,
		Code:             "ALREADY_COMPLETED",
		Message:          "withdrawal already completed",
		AlreadyProcessed: true,
	}
	ErrWithdrawalAlreadyRejected = &DomainError{
		Kind:             KindStateConflict,
		Code:             "ALREADY_REJECTED",
		Message:          "withdrawal already rejected",
		AlreadyProcessed: true,
	}
	ErrWithdrawalAlreadyCanceled = &DomainError{
		Kind:             KindStateConflict,
		Code:             "ALREADY_CANCELED",
		Message:          "withdrawal already canceled",
		AlreadyProcessed: true,
	}
	// ErrWithdrawalClosed is returned when the requested transition conflicts
	// with a different terminal state (approving a rejected request).
	ErrWithdrawalClosed = &DomainError{
		Kind:    KindStateConflict,
		Code:    "WITHDRAWAL_CLOSED",
		Message: "withdrawal is no longer pending",
	}
)

// Deposit errors
var (
	ErrDepositNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "DEPOSIT_NOT_FOUND",
		Message: "deposit not found",
	}
	ErrInvalidDepositCode = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_CODE",
		Message: "payment reference code is required",
	}
	ErrDuplicateDepositCode = &DomainError{
		Kind:    KindStateConflict,
		Code:    "DUPLICATE_CODE",
		Message: "payment reference already submitted",
	}
	ErrDepositAlreadyCompleted = &DomainError{
		Kind:             KindStateConflict,
		Code:             "ALREADY_COMPLETED",
		Message:          "deposit already approved",
		AlreadyProcessed: true,
	}
	ErrProofUpload = &DomainError{
		Kind:    KindTransient,
		Code:    "PROOF_UPLOAD_FAILED",
		Message: "failed to store deposit proof",
	}
)

// Referral errors
var (
	ErrReferralNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "REFERRAL_NOT_FOUND",
		Message: "referral bonus not found",
	}
	ErrAccountBonusNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "BONUS_NOT_FOUND",
		Message: "account bonus not found",
	}
	ErrNotPending = &DomainError{
		Kind:    KindStateConflict,
		Code:    "NOT_PENDING",
		Message: "bonus is not pending",
	}
	ErrBonusAlreadyClaimed = &DomainError{
		Kind:             KindStateConflict,
		Code:             "ALREADY_CLAIMED",
		Message:          "bonus already claimed",
		AlreadyProcessed: true,
	}
	ErrDuplicateReferral = &DomainError{
		Kind:    KindStateConflict,
		Code:    "DUPLICATE_REFERRAL",
		Message: "referral already registered",
	}
	ErrSelfReferral = &DomainError{
		Kind:    KindValidation,
		Code:    "SELF_REFERRAL",
		Message: "a user cannot refer themselves",
	}
)

// Verification errors
var (
	ErrVerificationFailed = &DomainError{
		Kind:    KindValidation,
		Code:    "VERIFICATION_FAILED",
		Message: "verification failed",
	}
	ErrVerificationRequired = &DomainError{
		Kind:    KindForbidden,
		Code:    "VERIFICATION_REQUIRED",
		Message: "this action requires verification",
	}
	ErrCapabilityUnavailable = &DomainError{
		Kind:    KindValidation,
		Code:    "CAPABILITY_UNAVAILABLE",
		Message: "verification method not available for this account",
	}
)
