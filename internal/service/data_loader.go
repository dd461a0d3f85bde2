package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ndewijer/portfolio-engine/internal/model"
	"github.com/ndewijer/portfolio-engine/internal/repository"
)

// DataLoaderService centralizes the loading of everything one aggregation needs.
// It batches the repository reads for a user into an immutable Snapshot so the
// accounting core never touches the database.
type DataLoaderService struct {
	userRepo         *repository.UserRepository
	instrumentRepo   *repository.InstrumentRepository
	transactionRepo  *repository.TransactionRepository
	cashflowRepo     *repository.CashflowRepository
	exchangeRateRepo *repository.ExchangeRateRepository
	priceRepo        *repository.PriceRepository
}

// NewDataLoaderService creates a new DataLoaderService with the provided dependencies.
func NewDataLoaderService(
	userRepo *repository.UserRepository,
	instrumentRepo *repository.InstrumentRepository,
	transactionRepo *repository.TransactionRepository,
	cashflowRepo *repository.CashflowRepository,
	exchangeRateRepo *repository.ExchangeRateRepository,
	priceRepo *repository.PriceRepository,
) *DataLoaderService {
	return &DataLoaderService{
		userRepo:         userRepo,
		instrumentRepo:   instrumentRepo,
		transactionRepo:  transactionRepo,
		cashflowRepo:     cashflowRepo,
		exchangeRateRepo: exchangeRateRepo,
		priceRepo:        priceRepo,
	}
}

// LoadSnapshot reads the ledger of a user as it stood on asOf.
//
// Transactions, prices and rates dated after asOf are not loaded. Cashflows are
// loaded in full because future projected payments feed the pending buckets,
// the yields and the upcoming list.
//
// Returns apperrors.ErrUserNotFound when the user does not exist.
func (s *DataLoaderService) LoadSnapshot(ctx context.Context, userID string, asOf time.Time) (Snapshot, error) {
	if _, err := s.userRepo.GetUser(ctx, userID); err != nil {
		return Snapshot{}, err
	}

	transactions, err := s.transactionRepo.GetTransactions(ctx, userID, asOf)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	cashflows, err := s.cashflowRepo.GetCashflows(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load cashflows: %w", err)
	}

	instrumentIDs := collectInstrumentIDs(transactions, cashflows)

	instruments, err := s.instrumentRepo.GetInstruments(ctx, instrumentIDs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load instruments: %w", err)
	}

	prices, err := s.priceRepo.GetLatestPrices(ctx, instrumentIDs, asOf)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load prices: %w", err)
	}

	rates, err := s.exchangeRateRepo.GetExchangeRates(ctx, asOf)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	return Snapshot{
		UserID:       userID,
		AsOf:         asOf,
		Instruments:  instruments,
		Transactions: transactions,
		Cashflows:    cashflows,
		Rates:        rates,
		Prices:       prices,
	}, nil
}

// collectInstrumentIDs returns the sorted, distinct instrument IDs referenced by the ledger.
func collectInstrumentIDs(transactions []model.Transaction, cashflows []model.Cashflow) []string {
	seen := make(map[string]struct{})
	for _, t := range transactions {
		seen[t.InstrumentID] = struct{}{}
	}
	for _, c := range cashflows {
		seen[c.InstrumentID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
