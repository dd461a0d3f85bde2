package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// NewRequestWithURLParams creates an HTTP request with chi URL parameters.
// This helper simplifies testing chi handlers that use chi.URLParam() to extract path parameters.
//
// Example:
//
//	req := testutil.NewRequestWithURLParams(
//	    http.MethodGet,
//	    "/api/users/"+user.ID+"/statistics",
//	    map[string]string{"uuid": user.ID},
//	)
func NewRequestWithURLParams(method, path string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range params {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req
}

// NewUserRequest creates a GET request for a per-user endpoint with both the
// chi uuid parameter and the given query parameters set.
//
// Example:
//
//	req := testutil.NewUserRequest(user.ID, "upcoming", map[string]string{
//	    "as_of": "2024-06-30",
//	    "limit": "5",
//	})
func NewUserRequest(userID, endpoint string, queryParams map[string]string) *http.Request {
	req := NewRequestWithURLParams(http.MethodGet, "/api/users/"+userID+"/"+endpoint, map[string]string{"uuid": userID})

	if len(queryParams) > 0 {
		q := req.URL.Query()
		for key, value := range queryParams {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req
}
