package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amplify_server/config"
	"amplify_server/controllers"
	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/matching"
	"amplify_server/middleware"
	"amplify_server/models"
)

type stubProfiles struct {
	controllers.ProfileAPI
	fetched []string
}

func (s *stubProfiles) GetProfile(_ context.Context, id string) (*models.PublicProfile, error) {
	s.fetched = append(s.fetched, id)
	return nil, apperrors.NewNotFoundError("User")
}

func (s *stubProfiles) Causes() []matching.CauseID {
	return matching.DefaultTaxonomy().AllCauses()
}

type stubMatches struct{}

func (stubMatches) MatchesFor(_ context.Context, u *models.User) (matching.Response, error) {
	return matching.Response{Matches: []matching.MatchResult{}, Message: "for " + u.ID}, nil
}

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token != "good" {
		return nil, apperrors.NewUnauthorizedError("Please authenticate")
	}
	return &models.User{ID: "u1"}, nil
}

func newTestRouter(t *testing.T, profiles *stubProfiles) *mux.Router {
	log := logger.NewTestLogger(t)
	auth := middleware.NewAuth(stubAuthenticator{}, log)

	r := mux.NewRouter()
	RegisterRoutes(r)
	RegisterUserRoutes(r, profiles, nil, stubMatches{}, auth, log)
	RegisterVideoRoutes(r, nil, auth, config.UploadConfig{}, log)
	return r
}

func TestUserRoutes_FixedPathsBeforeID(t *testing.T) {
	profiles := &stubProfiles{}
	r := newTestRouter(t, profiles)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/causes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Causes []string `json:"causes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Causes, 16)
	assert.Empty(t, profiles.fetched)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/someone", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"someone"}, profiles.fetched)
}

func TestUserRoutes_MatchesRequireAuth(t *testing.T) {
	r := newTestRouter(t, &stubProfiles{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/matches/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users/matches/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "for u1")
}

func TestVideoRoutes_TypesAndAuth(t *testing.T) {
	r := newTestRouter(t, &stubProfiles{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/types", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.EventTypes, body["eventTypes"])
	assert.Equal(t, models.RoundTypes, body["roundTypes"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServiceRoutes(t *testing.T) {
	r := newTestRouter(t, &stubProfiles{})

	for _, path := range []string{"/api/health", "/", "/privacy-policy", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
