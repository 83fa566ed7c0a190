package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/models"
)

func newProfileFixture(t *testing.T) (*ProfileService, *memUsers) {
	t.Helper()
	users := newMemUsers(
		&models.User{ID: "u1", Username: "maya", Email: "maya@example.com", AccountType: models.AccountTypeCompetitor, Bio: "LD debater", PasswordHash: "hash"},
		&models.User{ID: "u2", Username: "leo", AccountType: models.AccountTypeOrganizer},
	)
	videos := newMemVideos(
		&models.Video{ID: "v1", UserID: "u1", Title: "One", IsPublic: true, Views: 10},
		&models.Video{ID: "v2", UserID: "u1", Title: "Two", IsPublic: true, Views: 5},
		&models.Video{ID: "v3", UserID: "u1", Title: "Hidden", IsPublic: false, Views: 7},
		&models.Video{ID: "v4", UserID: "u2", Title: "Other", IsPublic: true, Views: 100},
	)
	return &ProfileService{Users: users, Videos: videos, Log: logger.NewTestLogger(t)}, users
}

func TestProfileService_GetProfile(t *testing.T) {
	svc, _ := newProfileFixture(t)

	p, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "maya", p.Username)
	assert.Equal(t, "LD debater", p.Bio)
	assert.Equal(t, 2, p.VideoCount)
	assert.Equal(t, 22, p.TotalViews)
	assert.NotNil(t, p.Events)

	_, err = svc.GetProfile(context.Background(), "missing")
	assertAPIError(t, err, http.StatusNotFound, "User not found")
}

func TestProfileService_UpdateProfile(t *testing.T) {
	svc, users := newProfileFixture(t)
	ctx := context.Background()
	user := mustUser(t, users, "u1")

	bio := "Policy debater"
	causes := []string{"climate", "education", "climate"}
	updated, err := svc.UpdateProfile(ctx, user, ProfileUpdate{Bio: &bio, Causes: &causes})
	require.NoError(t, err)
	assert.Equal(t, "Policy debater", updated.Bio)
	assert.Equal(t, []string{"climate", "education"}, updated.Causes)
	assert.Equal(t, "maya", updated.Username)
	assert.Equal(t, "hash", updated.PasswordHash)

	stored := mustUser(t, users, "u1")
	assert.Equal(t, "Policy debater", stored.Bio)
}

func TestProfileService_UpdateProfileRejects(t *testing.T) {
	svc, users := newProfileFixture(t)
	ctx := context.Background()
	user := mustUser(t, users, "u1")

	taken := "leo"
	_, err := svc.UpdateProfile(ctx, user, ProfileUpdate{Username: &taken})
	assertAPIError(t, err, http.StatusBadRequest, "Username already taken")

	tooMany := []string{"climate", "education", "poverty", "democracy"}
	_, err = svc.UpdateProfile(ctx, user, ProfileUpdate{Causes: &tooMany})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))

	unknown := []string{"astrology"}
	_, err = svc.UpdateProfile(ctx, user, ProfileUpdate{Causes: &unknown})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))

	site := "not a url"
	_, err = svc.UpdateProfile(ctx, user, ProfileUpdate{Website: &site})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}

func TestProfileService_UpdateProfileNoop(t *testing.T) {
	svc, users := newProfileFixture(t)
	user := mustUser(t, users, "u1")

	same := "maya"
	updated, err := svc.UpdateProfile(context.Background(), user, ProfileUpdate{Username: &same})
	require.NoError(t, err)
	assert.Same(t, user, updated)
}

func TestProfileService_Causes(t *testing.T) {
	svc, _ := newProfileFixture(t)
	causes := svc.Causes()
	assert.Len(t, causes, 16)
	assert.Equal(t, "climate", string(causes[0]))
}
