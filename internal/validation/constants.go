package validation

const (
	// String lengths
	MaxRequestIDLength = 64
	MaxAdminInfoLength = 500
	MaxDepositCode     = 64
	MinDepositCode     = 6

	// Order limits
	MaxItemQuantity = 1000
	MaxCycleDays    = 3650
)
