package services

import (
	"context"
	"io"

	"amplify_server/models"
	"amplify_server/utils"
)

// UserStore is account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	FindOrganizers(ctx context.Context, causes []string) ([]*models.User, error)
}

// VideoStore is video persistence.
type VideoStore interface {
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListPublic(ctx context.Context, f models.VideoFilter) ([]*models.Video, error)
	ListByUser(ctx context.Context, userID string, publicOnly bool) ([]*models.Video, error)
	FindPublicMatching(ctx context.Context, keywords []string, limit int) ([]*models.Video, error)
	UpdateVideo(ctx context.Context, v *models.Video) error
	IncrementViews(ctx context.Context, id string) (int, error)
	AddLikes(ctx context.Context, id string, delta int) (int, error)
	SetTranscriptStatus(ctx context.Context, id, status string) error
	SaveTranscript(ctx context.Context, id, transcript string) error
	DeleteVideo(ctx context.Context, id string) error
}

// CommentStore is comment persistence.
type CommentStore interface {
	AddComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, videoID string) ([]*models.Comment, error)
	DeleteVideoComments(ctx context.Context, videoID string) error
	DeleteUserComments(ctx context.Context, userID string) error
}

// LikeStore is like persistence. Add and Remove report whether the row changed.
type LikeStore interface {
	AddLike(ctx context.Context, videoID, userID string) (bool, error)
	RemoveLike(ctx context.Context, videoID, userID string) (bool, error)
	HasLiked(ctx context.Context, videoID, userID string) (bool, error)
	DeleteVideoLikes(ctx context.Context, videoID string) error
	ListUserLikes(ctx context.Context, userID string) ([]*models.Like, error)
}

// ResetTokens issues and redeems one-time password reset tokens.
type ResetTokens interface {
	Issue(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

// PasswordResetMailer delivers reset links.
type PasswordResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, to, token, baseURL string) error
}

// MediaStore is binary file storage for uploads.
type MediaStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	Open(ctx context.Context, key string, rng *utils.ByteRange) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignRead(ctx context.Context, key string) (string, error)
}

// Transcriber runs background speech-to-text for a stored video.
type Transcriber interface {
	Enqueue(video *models.Video)
}
