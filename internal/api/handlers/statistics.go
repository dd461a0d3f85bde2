package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ndewijer/portfolio-engine/internal/api/request"
	"github.com/ndewijer/portfolio-engine/internal/api/response"
	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/service"
)

// StatisticsHandler serves the portfolio statistics of a user.
type StatisticsHandler struct {
	statisticsService *service.StatisticsService
	now               func() time.Time
}

// NewStatisticsHandler creates a new StatisticsHandler
func NewStatisticsHandler(statisticsService *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		now:               time.Now,
	}
}

// Statistics handles GET requests for the aggregate statistics of a user.
//
// Endpoint: GET /api/users/{uuid}/statistics?as_of=YYYY-MM-DD
// Response: 200 OK with StatisticsResponse
// Error: 400 for a malformed as_of, 404 for an unknown user, 500 otherwise
func (h *StatisticsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetStatistics(r.Context(), chi.URLParam(r, "uuid"), asOf)
	if err != nil {
		respondServiceError(w, r, err, "failed to retrieve statistics")
		return
	}

	response.RespondJSON(w, http.StatusOK, newStatisticsResponse(stats))
}

// Positions handles GET requests for the enriched positions of a user.
//
// Endpoint: GET /api/users/{uuid}/positions?as_of=YYYY-MM-DD
// Response: 200 OK with []PositionResponse
func (h *StatisticsHandler) Positions(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}

	positions, err := h.statisticsService.GetPositions(r.Context(), chi.URLParam(r, "uuid"), asOf)
	if err != nil {
		respondServiceError(w, r, err, "failed to retrieve positions")
		return
	}

	response.RespondJSON(w, http.StatusOK, newPositionsResponse(positions))
}

// Upcoming handles GET requests for the projected payments of a user.
//
// Endpoint: GET /api/users/{uuid}/upcoming?as_of=YYYY-MM-DD&limit=N
// Response: 200 OK with []UpcomingPaymentResponse, soonest first
func (h *StatisticsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}

	limit, err := request.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	payments, err := h.statisticsService.GetUpcoming(r.Context(), chi.URLParam(r, "uuid"), asOf, limit)
	if err != nil {
		respondServiceError(w, r, err, "failed to retrieve upcoming payments")
		return
	}

	response.RespondJSON(w, http.StatusOK, newUpcomingResponse(payments))
}

func (h *StatisticsHandler) parseAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	asOf, err := request.ParseAsOf(r.URL.Query().Get("as_of"), h.now())
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid as_of date", err.Error())
		return time.Time{}, false
	}
	return asOf, true
}

// respondServiceError maps service errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrUserNotFound.Error(), "")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
