package controllers

import (
	"context"

	"amplify_server/matching"
	"amplify_server/models"
	"amplify_server/services"
)

// AuthAPI is the account surface used by AuthController.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	ForgotPassword(ctx context.Context, email, baseURL string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, user *models.User, current, next string) error
	UpdateEmail(ctx context.Context, user *models.User, email, password string) (*models.User, error)
	DeleteAccount(ctx context.Context, user *models.User, password string) error
}

// ContentAPI is the video library surface used by VideoController and UserController.
type ContentAPI interface {
	Upload(ctx context.Context, user *models.User, file *services.FileUpload, in services.UploadInput) (*models.VideoWithUser, error)
	SetThumbnail(ctx context.Context, user *models.User, videoID string, file *services.FileUpload) (*models.Video, error)
	ThumbnailURL(ctx context.Context, name string) (string, error)
	List(ctx context.Context, f models.VideoFilter) (*models.VideoPage, error)
	UserVideos(ctx context.Context, userID string, page, limit int) (*models.VideoPage, error)
	Watch(ctx context.Context, videoID string, viewer *models.User) (*models.VideoDetail, error)
	OpenStream(ctx context.Context, videoID, rangeHeader string) (*services.Stream, error)
	ToggleLike(ctx context.Context, user *models.User, videoID string) (*models.LikeResult, error)
	AddComment(ctx context.Context, user *models.User, videoID, content string) (*models.CommentWithUser, error)
	ListComments(ctx context.Context, videoID string) ([]*models.CommentWithUser, error)
	Update(ctx context.Context, user *models.User, videoID string, in services.VideoUpdate) (*models.VideoWithUser, error)
	RequestTranscription(ctx context.Context, user *models.User, videoID string) error
	Delete(ctx context.Context, user *models.User, videoID string) error
}

type ProfileAPI interface {
	GetProfile(ctx context.Context, id string) (*models.PublicProfile, error)
	UpdateProfile(ctx context.Context, user *models.User, in services.ProfileUpdate) (*models.User, error)
	Causes() []matching.CauseID
}

type MatchAPI interface {
	MatchesFor(ctx context.Context, user *models.User) (matching.Response, error)
}
