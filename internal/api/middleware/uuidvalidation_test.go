package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ndewijer/portfolio-engine/internal/api/middleware"
)

func TestValidateUUIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		wantCalled bool
		wantStatus int
	}{
		{name: "passes through valid UUID", userID: "550e8400-e29b-41d4-a716-446655440000", wantCalled: true, wantStatus: http.StatusOK},
		{name: "returns 400 for invalid UUID", userID: "invalid-id", wantStatus: http.StatusBadRequest},
		{name: "returns 400 for empty UUID", userID: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/users/x/statistics", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uuid", tt.userID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			middleware.ValidateUUIDMiddleware(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCalled, handlerCalled)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
