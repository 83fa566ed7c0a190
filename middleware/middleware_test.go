package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/metrics"
	"amplify_server/models"
)

type fakeAuthenticator struct {
	users map[string]*models.User
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, apperrors.NewUnauthorizedError("Please authenticate")
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if u := UserFromContext(r.Context()); u != nil {
		_, _ = w.Write([]byte(u.ID))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func newTestAuth(t *testing.T) (*Auth, *fakeAuthenticator) {
	fa := &fakeAuthenticator{users: map[string]*models.User{"good": {ID: "u1"}}}
	return NewAuth(fa, logger.NewTestLogger(t)), fa
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "bearer  tok ")
	assert.Equal(t, "tok", BearerToken(req))
}

func TestAuth_Require(t *testing.T) {
	auth, fa := newTestAuth(t)
	h := auth.RequireFunc(whoami)

	rec := serve(h, "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	rec = serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Please authenticate"}`, rec.Body.String())

	rec = serve(h, "bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	fa.err = apperrors.NewStorageError("Failed to fetch user", errors.New("dynamo down"))
	rec = serve(h, "good")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch user"}`, rec.Body.String())
}

func TestAuth_Optional(t *testing.T) {
	auth, _ := newTestAuth(t)
	h := auth.OptionalFunc(whoami)

	assert.Equal(t, "u1", serve(h, "good").Body.String())
	assert.Equal(t, "anonymous", serve(h, "").Body.String())

	rec := serve(h, "bad")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAccessLog(t *testing.T) {
	h := AccessLog(logger.NewTestLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics)
	r.HandleFunc("/api/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues("/api/things/{id}", http.MethodGet, "202")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things/"+id, nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
