package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/model"
)

// StatisticsService computes portfolio statistics for a user.
// It loads a snapshot through the DataLoaderService and runs Aggregate over it.
// Results are kept for a short time, keyed by user, as-of instant and upcoming limit.
type StatisticsService struct {
	loader *DataLoaderService
	opts   Options
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewStatisticsService creates a new StatisticsService with the provided dependencies.
// A cacheTTL of zero disables result caching.
func NewStatisticsService(loader *DataLoaderService, opts Options, cacheTTL time.Duration, logger zerolog.Logger) *StatisticsService {
	s := &StatisticsService{
		loader: loader,
		opts:   opts,
		logger: logger.With().Str("component", "statistics").Logger(),
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// FlushCache drops every cached result, e.g. after the ledger was modified.
func (s *StatisticsService) FlushCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// GetStatistics computes the full statistics of a user as of the given date.
//
// Parameters:
//   - ctx: request context
//   - userID: owner of the ledger
//   - asOf: the instant figures are computed for; later transactions are ignored
//
// Returns:
//   - model.Statistics: aggregate figures in the configured reference currency
//   - error: apperrors.ErrUserNotFound for unknown users, otherwise wraps
//     apperrors.ErrFailedToRetrieveStatistics
func (s *StatisticsService) GetStatistics(ctx context.Context, userID string, asOf time.Time) (model.Statistics, error) {
	return s.compute(ctx, userID, asOf, s.opts, apperrors.ErrFailedToRetrieveStatistics)
}

// GetPositions returns the enriched per-instrument positions of a user.
// Excluded instruments are not part of the result.
func (s *StatisticsService) GetPositions(ctx context.Context, userID string, asOf time.Time) ([]model.Position, error) {
	stats, err := s.compute(ctx, userID, asOf, s.opts, apperrors.ErrFailedToRetrievePositions)
	if err != nil {
		return nil, err
	}
	if stats.Positions == nil {
		return []model.Position{}, nil
	}
	return stats.Positions, nil
}

// GetUpcoming returns projected payments due after asOf, soonest first.
// A limit of zero or less uses the configured limit.
func (s *StatisticsService) GetUpcoming(ctx context.Context, userID string, asOf time.Time, limit int) ([]model.UpcomingPayment, error) {
	opts := s.opts
	if limit > 0 {
		opts.UpcomingLimit = limit
	}

	stats, err := s.compute(ctx, userID, asOf, opts, apperrors.ErrFailedToRetrieveUpcoming)
	if err != nil {
		return nil, err
	}
	if stats.Upcoming == nil {
		return []model.UpcomingPayment{}, nil
	}
	return stats.Upcoming, nil
}

func (s *StatisticsService) compute(ctx context.Context, userID string, asOf time.Time, opts Options, failure error) (model.Statistics, error) {
	key := cacheKey(userID, asOf, opts.UpcomingLimit)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			s.logger.Debug().Str("user_id", userID).Time("as_of", asOf).Msg("statistics served from cache")
			return cached.(model.Statistics), nil
		}
	}

	snap, err := s.loader.LoadSnapshot(ctx, userID, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return model.Statistics{}, err
		}
		return model.Statistics{}, fmt.Errorf("%w: %w", failure, err)
	}

	start := time.Now()
	stats, err := Aggregate(snap, opts)
	if err != nil {
		return model.Statistics{}, fmt.Errorf("%w: %w", failure, err)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, stats)
	}

	s.logIssues(stats)
	s.logger.Debug().
		Str("user_id", userID).
		Time("as_of", asOf).
		Int("instruments", len(stats.Positions)+len(stats.ExcludedInstruments)).
		Dur("elapsed", time.Since(start)).
		Msg("statistics computed")

	return stats, nil
}

func cacheKey(userID string, asOf time.Time, upcomingLimit int) string {
	return userID + "|" + asOf.UTC().Format(time.RFC3339Nano) + "|" + strconv.Itoa(upcomingLimit)
}

func (s *StatisticsService) logIssues(stats model.Statistics) {
	for _, issue := range stats.Issues {
		var event *zerolog.Event
		switch {
		case issue.Excluded:
			event = s.logger.Warn().Bool("excluded", true)
		case issue.Kind == model.IssueDefaultRate, issue.Kind == model.IssueYield:
			event = s.logger.Warn()
		default:
			event = s.logger.Info()
		}
		event.
			Str("user_id", stats.UserID).
			Str("instrument_id", issue.InstrumentID).
			Str("kind", string(issue.Kind)).
			Msg(issue.Message)
	}

	for _, rec := range stats.RecordIssues {
		s.logger.Warn().
			Str("user_id", stats.UserID).
			Str("record_id", rec.RecordID).
			Str("kind", string(rec.Kind)).
			Msg("record rejected: " + rec.Message)
	}
}
