package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrUserNotFound indicates that no ledger data exists for the given user ID.
	ErrUserNotFound = errors.New("user not found")
)

// Accounting errors are raised by the engine while matching lots or converting currencies.
var (
	// ErrInsufficientQuantity indicates that a sell transaction exceeds the open quantity
	// tracked for the instrument at that point in the ledger.
	ErrInsufficientQuantity = errors.New("insufficient quantity for sale")

	// ErrRateNotFound indicates that no exchange rate exists for a currency pair, not even
	// a configured default.
	ErrRateNotFound = errors.New("exchange rate not found")

	// ErrNonPositiveRate indicates that a rate lookup produced a zero, negative or non-finite value.
	ErrNonPositiveRate = errors.New("exchange rate must be positive")

	// ErrUnsupportedCurrencyPair indicates that no rate table links the two currencies.
	ErrUnsupportedCurrencyPair = errors.New("unsupported currency pair")

	// ErrNoSolution indicates that the XIRR solver could not find a root.
	// This is a normal outcome for positions that are not yet closed.
	ErrNoSolution = errors.New("no computable rate of return")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidRecord indicates that a ledger record failed boundary validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidQuantity indicates a zero or negative quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidDate indicates a missing (zero) date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidCurrency indicates a currency code that is not a known ISO 4217 code.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrMissingReferenceCurrency indicates the engine was invoked without a reference currency.
	ErrMissingReferenceCurrency = errors.New("reference currency is required")
)

// Operation failure errors represent system-level failures when retrieving data.
var (
	ErrFailedToRetrieveStatistics = errors.New("failed to retrieve statistics")
	ErrFailedToRetrievePositions  = errors.New("failed to retrieve positions")
	ErrFailedToRetrieveUpcoming   = errors.New("failed to retrieve upcoming payments")
	ErrFailedToGetVersionInfo     = errors.New("failed to get version information")
)
