package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cglreviews/internal/models"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// whoami answers with the signed-in user's id, or "anonymous".
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if user := UserFromContext(r.Context()); user != nil {
		w.Write([]byte(user.ID))
		return
	}
	w.Write([]byte("anonymous"))
})

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.NotFoundHandler(), mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestCORS(t *testing.T) {
	h := CORS(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/posts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	// a valid incoming id is kept
	incoming := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	// garbage is replaced
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not an id")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not an id", seen)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RequestID, Logging(logger))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/health"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id"`)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics)
	r.HandleFunc("/api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts/{id}", routeTemplate(r))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/abcd", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "unmatched", routeTemplate(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(req))
}

func TestSession(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Authenticate", mock.Anything, "good").Return(&models.User{ID: "u1"}, nil)
	auth.On("Authenticate", mock.Anything, "stale").Return(nil, nil)
	auth.On("Authenticate", mock.Anything, "broken").Return(nil, errors.New("db down"))

	h := Session(auth, discardLogger())(whoami)

	cases := []struct {
		header string
		want   string
	}{
		{"", "anonymous"},
		{"Bearer good", "u1"},
		{"Bearer stale", "anonymous"},
		{"Bearer broken", "anonymous"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, tc.header)
		assert.Equal(t, tc.want, rec.Body.String(), tc.header)
	}
	auth.AssertExpectations(t)
}

func TestRequireUserAndAdmin(t *testing.T) {
	request := func(h http.Handler, user *models.User) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != nil {
			req = req.WithContext(WithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	member := &models.User{ID: "u1"}
	admin := &models.User{ID: "a1", Admin: true}

	assert.Equal(t, http.StatusUnauthorized, request(RequireUser(whoami), nil))
	assert.Equal(t, http.StatusOK, request(RequireUser(whoami), member))

	assert.Equal(t, http.StatusUnauthorized, request(RequireAdmin(whoami), nil))
	assert.Equal(t, http.StatusForbidden, request(RequireAdmin(whoami), member))
	assert.Equal(t, http.StatusOK, request(RequireAdmin(whoami), admin))
}
