package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/logging"
	"github.com/ndewijer/portfolio-engine/internal/repository"
	"github.com/ndewijer/portfolio-engine/internal/service"
)

// NewTestDataLoaderService creates a DataLoaderService wired to the test database.
func NewTestDataLoaderService(t *testing.T, db *sql.DB) *service.DataLoaderService {
	t.Helper()
	return service.NewDataLoaderService(
		repository.NewUserRepository(db),
		repository.NewInstrumentRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewCashflowRepository(db),
		repository.NewExchangeRateRepository(db),
		repository.NewPriceRepository(db),
	)
}

// NewTestStatisticsService creates a StatisticsService with a silent logger.
// referenceCurrency selects the currency every figure is reported in.
func NewTestStatisticsService(t *testing.T, db *sql.DB, referenceCurrency string) *service.StatisticsService {
	t.Helper()
	return service.NewStatisticsService(
		NewTestDataLoaderService(t, db),
		service.DefaultOptions(referenceCurrency),
		0,
		logging.NewSilent(),
	)
}

// NewTestCachedStatisticsService is NewTestStatisticsService with result caching enabled.
func NewTestCachedStatisticsService(t *testing.T, db *sql.DB, referenceCurrency string, ttl time.Duration) *service.StatisticsService {
	t.Helper()
	return service.NewStatisticsService(
		NewTestDataLoaderService(t, db),
		service.DefaultOptions(referenceCurrency),
		ttl,
		logging.NewSilent(),
	)
}

// NewTestSystemService creates a SystemService for the test database.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a unique ticker for testing.
//
// Example usage:
//
//	ticker := testutil.MakeTicker("AL")
//	// Returns: "AL7Q2X"
func MakeTicker(base string) string {
	if base == "" {
		base = "TST"
	}
	return base + randomAlphanumeric(4)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
