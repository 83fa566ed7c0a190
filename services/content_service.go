package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/models"
	"amplify_server/utils"
	"amplify_server/validation"
)

// DefaultPageSize is the listing page size when none is asked for.
const DefaultPageSize = 12

// ThumbnailURLPrefix is where stored thumbnails are served from.
const ThumbnailURLPrefix = "/uploads/thumbnails/"

var (
	videoExtensions = regexp.MustCompile(`^\.(mp4|webm|ogg|mov|avi|mkv|m4v)$`)
	imageExtensions = regexp.MustCompile(`^\.(jpeg|jpg|png|gif|webp)$`)
)

// IsVideoFile accepts a known video extension or a video mime type.
func IsVideoFile(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return videoExtensions.MatchString(ext) ||
		strings.HasPrefix(contentType, "video/") ||
		contentType == "application/octet-stream"
}

// IsImageFile needs both an image extension and an image mime type.
func IsImageFile(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageExtensions.MatchString(ext) && strings.HasPrefix(contentType, "image/")
}

// storedName keeps the upload's extension behind a fresh random name.
func storedName(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// FileUpload is a file received in a multipart request.
type FileUpload struct {
	Body        io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// UploadInput is the form sent with a new video.
type UploadInput struct {
	Title        string   `json:"title" validate:"max=150"`
	Description  string   `json:"description" validate:"max=5000"`
	EventType    string   `json:"eventType"`
	RoundType    string   `json:"roundType"`
	Tournament   string   `json:"tournament" validate:"max=200"`
	Topic        string   `json:"topic" validate:"max=500"`
	Side         string   `json:"side" validate:"max=50"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=50"`
	IsPublic     *bool    `json:"isPublic"`
	Script       string   `json:"script"`
	ScriptTitle  string   `json:"scriptTitle" validate:"max=200"`
	ScriptAuthor string   `json:"scriptAuthor" validate:"max=200"`
}

// VideoUpdate is a partial update; nil fields are unchanged.
type VideoUpdate struct {
	Title        *string   `json:"title" validate:"omitempty,max=150"`
	Description  *string   `json:"description" validate:"omitempty,max=5000"`
	EventType    *string   `json:"eventType"`
	RoundType    *string   `json:"roundType"`
	Tournament   *string   `json:"tournament" validate:"omitempty,max=200"`
	Topic        *string   `json:"topic" validate:"omitempty,max=500"`
	Side         *string   `json:"side" validate:"omitempty,max=50"`
	Tags         *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	IsPublic     *bool     `json:"isPublic"`
	Script       *string   `json:"script"`
	ScriptTitle  *string   `json:"scriptTitle" validate:"omitempty,max=200"`
	ScriptAuthor *string   `json:"scriptAuthor" validate:"omitempty,max=200"`
}

// ContentService is the video library: uploads, playback, likes, comments and cleanup.
type ContentService struct {
	Videos      VideoStore
	Comments    CommentStore
	Likes       LikeStore
	Users       UserStore
	Media       MediaStore
	Transcriber Transcriber
	Log         logger.Logger
}

func eventTypeOrDefault(s string) (string, error) {
	if s == "" {
		return models.DefaultEventType, nil
	}
	if !models.IsEventType(s) {
		return "", apperrors.NewValidationError("Invalid event type")
	}
	return s, nil
}

func roundTypeOrDefault(s string) (string, error) {
	if s == "" {
		return models.DefaultRoundType, nil
	}
	if !models.IsRoundType(s) {
		return "", apperrors.NewValidationError("Invalid round type")
	}
	return s, nil
}

// Upload stores the file and creates the video. Without a script the video is queued for
// transcription.
func (cs *ContentService) Upload(ctx context.Context, user *models.User, file *FileUpload, in UploadInput) (*models.VideoWithUser, error) {
	if !user.CanUpload() {
		return nil, apperrors.NewForbiddenError("Guests cannot upload videos. Upgrade your account to upload.")
	}
	if file == nil {
		return nil, apperrors.NewValidationError("No video file uploaded")
	}
	if !IsVideoFile(file.Filename, file.ContentType) {
		return nil, apperrors.NewValidationError("Only video files are allowed")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperrors.NewValidationError("Title is required")
	}
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, apperrors.NewValidationError(verr.Message())
	}
	eventType, err := eventTypeOrDefault(in.EventType)
	if err != nil {
		return nil, err
	}
	roundType, err := roundTypeOrDefault(in.RoundType)
	if err != nil {
		return nil, err
	}

	name := storedName(file.Filename)
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := cs.Media.Upload(ctx, VideoKey(name), file.Body, file.Size, contentType); err != nil {
		return nil, apperrors.NewStorageError("Failed to upload video", err)
	}

	createdAt := timestamp()
	video := &models.Video{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Title:        in.Title,
		Description:  in.Description,
		Filename:     name,
		ContentType:  contentType,
		Size:         file.Size,
		EventType:    eventType,
		RoundType:    roundType,
		Tournament:   in.Tournament,
		Topic:        in.Topic,
		Tags:         in.Tags,
		Side:         in.Side,
		IsPublic:     in.IsPublic == nil || *in.IsPublic,
		Script:       in.Script,
		ScriptTitle:  in.ScriptTitle,
		ScriptAuthor: in.ScriptAuthor,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if video.HasScript() {
		video.TranscriptStatus = models.TranscriptCompleted
	} else {
		video.TranscriptStatus = models.TranscriptPending
	}

	if err := cs.Videos.CreateVideo(ctx, video); err != nil {
		if derr := cs.Media.Delete(ctx, VideoKey(name)); derr != nil {
			cs.Log.WithError(derr).Warn("failed to remove orphaned upload", map[string]interface{}{"file": name})
		}
		return nil, err
	}

	cs.Log.Info("video uploaded", map[string]interface{}{
		"videoId": video.ID,
		"userId":  user.ID,
		"size":    file.Size,
		"script":  video.HasScript(),
	})
	if !video.HasScript() {
		cs.Transcriber.Enqueue(video)
	}
	return &models.VideoWithUser{Video: video, User: user.Summary()}, nil
}

// owned loads a video and checks user owns it.
func (cs *ContentService) owned(ctx context.Context, user *models.User, videoID string) (*models.Video, error) {
	video, err := cs.Videos.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != user.ID {
		return nil, apperrors.NewForbiddenError("Not authorized")
	}
	return video, nil
}

// SetThumbnail stores an image for the video, replacing any previous one.
func (cs *ContentService) SetThumbnail(ctx context.Context, user *models.User, videoID string, file *FileUpload) (*models.Video, error) {
	video, err := cs.owned(ctx, user, videoID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, apperrors.NewValidationError("No thumbnail file uploaded")
	}
	if !IsImageFile(file.Filename, file.ContentType) {
		return nil, apperrors.NewValidationError("Only image files are allowed for thumbnails")
	}

	name := storedName(file.Filename)
	if err := cs.Media.Upload(ctx, ThumbnailKey(name), file.Body, file.Size, file.ContentType); err != nil {
		return nil, apperrors.NewStorageError("Failed to upload thumbnail", err)
	}

	previous := video.Thumbnail
	video.Thumbnail = ThumbnailURLPrefix + name
	if err := cs.Videos.UpdateVideo(ctx, video); err != nil {
		return nil, err
	}
	if previous != "" {
		cs.removeFile(ctx, ThumbnailKey(strings.TrimPrefix(previous, ThumbnailURLPrefix)))
	}
	return video, nil
}

// ThumbnailURL returns a short-lived URL for a stored thumbnail.
func (cs *ContentService) ThumbnailURL(ctx context.Context, name string) (string, error) {
	key := ThumbnailKey(name)
	if _, err := cs.Media.Stat(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return "", apperrors.NewNotFoundError("Thumbnail")
		}
		return "", apperrors.NewStorageError("Failed to fetch thumbnail", err)
	}
	url, err := cs.Media.PresignRead(ctx, key)
	if err != nil {
		return "", apperrors.NewStorageError("Failed to fetch thumbnail", err)
	}
	return url, nil
}

// List returns one page of public videos with their uploaders.
func (cs *ContentService) List(ctx context.Context, f models.VideoFilter) (*models.VideoPage, error) {
	videos, err := cs.Videos.ListPublic(ctx, f)
	if err != nil {
		return nil, err
	}
	return cs.page(ctx, videos, f.Page, f.Limit)
}

// UserVideos returns one page of a user's public videos.
func (cs *ContentService) UserVideos(ctx context.Context, userID string, page, limit int) (*models.VideoPage, error) {
	videos, err := cs.Videos.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return cs.page(ctx, videos, page, limit)
}

func (cs *ContentService) page(ctx context.Context, videos []*models.Video, page, limit int) (*models.VideoPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	from, to, totalPages := utils.Paginate(len(videos), page, limit)
	slice := videos[from:to]

	ids := make([]string, len(slice))
	for i, v := range slice {
		ids[i] = v.UserID
	}
	users, err := cs.Users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.VideoWithUser, len(slice))
	for i, v := range slice {
		out[i] = &models.VideoWithUser{Video: v, User: users[v.UserID].Summary()}
	}
	return &models.VideoPage{
		Videos:      out,
		TotalPages:  totalPages,
		CurrentPage: page,
		TotalVideos: len(videos),
	}, nil
}

// Watch returns the watch page for a video and counts the view. viewer may be nil.
func (cs *ContentService) Watch(ctx context.Context, videoID string, viewer *models.User) (*models.VideoDetail, error) {
	video, err := cs.Videos.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	views, err := cs.Videos.IncrementViews(ctx, videoID)
	if err != nil {
		return nil, err
	}
	video.Views = views

	users, err := cs.Users.GetUsers(ctx, []string{video.UserID})
	if err != nil {
		return nil, err
	}
	comments, err := cs.ListComments(ctx, videoID)
	if err != nil {
		return nil, err
	}

	liked := false
	if viewer != nil {
		liked, err = cs.Likes.HasLiked(ctx, videoID, viewer.ID)
		if err != nil {
			return nil, err
		}
	}

	return &models.VideoDetail{
		Video:     video,
		User:      users[video.UserID].Summary(),
		Comments:  comments,
		Likes:     video.LikesCount,
		UserLiked: liked,
	}, nil
}

// Stream is an open video body, whole or one byte range of it.
type Stream struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Range       *utils.ByteRange
}

// OpenStream opens the video file for rangeHeader. An unsatisfiable range returns
// utils.ErrUnsatisfiableRange together with the file size.
func (cs *ContentService) OpenStream(ctx context.Context, videoID, rangeHeader string) (*Stream, error) {
	video, err := cs.Videos.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	key := VideoKey(video.Filename)
	info, err := cs.Media.Stat(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, apperrors.NewNotFoundError("Video file")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to stream video", err)
	}

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "video/mp4"
	}
	stream := &Stream{Size: info.Size, ContentType: contentType}

	rng, err := utils.ParseRange(rangeHeader, info.Size)
	if err != nil {
		return stream, err
	}
	stream.Range = rng

	body, err := cs.Media.Open(ctx, key, rng)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to stream video", err)
	}
	stream.Body = body
	return stream, nil
}

// ToggleLike likes the video, or unlikes it if the user already had.
func (cs *ContentService) ToggleLike(ctx context.Context, user *models.User, videoID string) (*models.LikeResult, error) {
	if !user.CanInteract() {
		return nil, apperrors.NewForbiddenError("Guests cannot like videos. Upgrade your account to interact.")
	}
	if _, err := cs.Videos.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	removed, err := cs.Likes.RemoveLike(ctx, videoID, user.ID)
	if err != nil {
		return nil, err
	}
	if removed {
		likes, err := cs.Videos.AddLikes(ctx, videoID, -1)
		if err != nil {
			return nil, err
		}
		return &models.LikeResult{Liked: false, Likes: likes}, nil
	}

	added, err := cs.Likes.AddLike(ctx, videoID, user.ID)
	if err != nil {
		return nil, err
	}
	delta := 0
	if added {
		delta = 1
	}
	likes, err := cs.Videos.AddLikes(ctx, videoID, delta)
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: true, Likes: likes}, nil
}

// AddComment posts content on the video as user.
func (cs *ContentService) AddComment(ctx context.Context, user *models.User, videoID, content string) (*models.CommentWithUser, error) {
	if !user.CanInteract() {
		return nil, apperrors.NewForbiddenError("Guests cannot comment. Upgrade your account to interact.")
	}
	if _, err := cs.Videos.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("Comment content is required")
	}
	if len(content) > 2000 {
		return nil, apperrors.NewValidationError("Comment must be at most 2000 characters")
	}

	comment := &models.Comment{VideoID: videoID, UserID: user.ID, Content: content}
	if err := cs.Comments.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return &models.CommentWithUser{Comment: comment, User: user.Summary()}, nil
}

// ListComments returns the video's comments newest first, with authors.
func (cs *ContentService) ListComments(ctx context.Context, videoID string) ([]*models.CommentWithUser, error) {
	comments, err := cs.Comments.ListComments(ctx, videoID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	users, err := cs.Users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.CommentWithUser, len(comments))
	for i, c := range comments {
		out[i] = &models.CommentWithUser{Comment: c, User: users[c.UserID].Summary()}
	}
	return out, nil
}

// Update applies the set fields of in to the user's video.
func (cs *ContentService) Update(ctx context.Context, user *models.User, videoID string, in VideoUpdate) (*models.VideoWithUser, error) {
	video, err := cs.owned(ctx, user, videoID)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, apperrors.NewValidationError(verr.Message())
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("Title is required")
		}
		video.Title = title
	}
	if in.EventType != nil {
		if video.EventType, err = eventTypeOrDefault(*in.EventType); err != nil {
			return nil, err
		}
	}
	if in.RoundType != nil {
		if video.RoundType, err = roundTypeOrDefault(*in.RoundType); err != nil {
			return nil, err
		}
	}
	setString(&video.Description, in.Description)
	setString(&video.Tournament, in.Tournament)
	setString(&video.Topic, in.Topic)
	setString(&video.Side, in.Side)
	setString(&video.Script, in.Script)
	setString(&video.ScriptTitle, in.ScriptTitle)
	setString(&video.ScriptAuthor, in.ScriptAuthor)
	if in.Tags != nil {
		video.Tags = *in.Tags
	}
	if in.IsPublic != nil {
		video.IsPublic = *in.IsPublic
	}

	if err := cs.Videos.UpdateVideo(ctx, video); err != nil {
		return nil, err
	}
	return &models.VideoWithUser{Video: video, User: user.Summary()}, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// RequestTranscription queues a transcript for a video that has no script.
func (cs *ContentService) RequestTranscription(ctx context.Context, user *models.User, videoID string) error {
	video, err := cs.owned(ctx, user, videoID)
	if err != nil {
		return err
	}
	if video.HasScript() {
		return apperrors.NewValidationError("Video already has a script. Clear the script first to generate a transcript.")
	}
	if video.TranscriptStatus == models.TranscriptProcessing {
		return apperrors.NewValidationError("Transcription already in progress")
	}
	if err := cs.Videos.SetTranscriptStatus(ctx, videoID, models.TranscriptPending); err != nil {
		return err
	}
	cs.Transcriber.Enqueue(video)
	return nil
}

// Delete removes the user's video with its files, comments and likes.
func (cs *ContentService) Delete(ctx context.Context, user *models.User, videoID string) error {
	video, err := cs.owned(ctx, user, videoID)
	if err != nil {
		return err
	}
	return cs.deleteVideo(ctx, video)
}

func (cs *ContentService) deleteVideo(ctx context.Context, video *models.Video) error {
	cs.removeFile(ctx, VideoKey(video.Filename))
	if video.Thumbnail != "" {
		cs.removeFile(ctx, ThumbnailKey(strings.TrimPrefix(video.Thumbnail, ThumbnailURLPrefix)))
	}
	cs.removeFile(ctx, TranscriptKey(video.ID))

	if err := cs.Comments.DeleteVideoComments(ctx, video.ID); err != nil {
		return err
	}
	if err := cs.Likes.DeleteVideoLikes(ctx, video.ID); err != nil {
		return err
	}
	if err := cs.Videos.DeleteVideo(ctx, video.ID); err != nil {
		return err
	}
	cs.Log.Info("video deleted", map[string]interface{}{"videoId": video.ID, "userId": video.UserID})
	return nil
}

// removeFile deletes a stored object, logging rather than failing.
func (cs *ContentService) removeFile(ctx context.Context, key string) {
	if err := cs.Media.Delete(ctx, key); err != nil {
		cs.Log.WithError(err).Warn("failed to delete stored file", map[string]interface{}{"key": key})
	}
}

// DeleteUserContent removes the user's comments, likes and videos.
func (cs *ContentService) DeleteUserContent(ctx context.Context, userID string) error {
	if err := cs.Comments.DeleteUserComments(ctx, userID); err != nil {
		return err
	}

	likes, err := cs.Likes.ListUserLikes(ctx, userID)
	if err != nil {
		return err
	}
	for _, l := range likes {
		removed, err := cs.Likes.RemoveLike(ctx, l.VideoID, userID)
		if err != nil {
			return err
		}
		if !removed {
			continue
		}
		if _, err := cs.Videos.AddLikes(ctx, l.VideoID, -1); err != nil && !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			return err
		}
	}

	videos, err := cs.Videos.ListByUser(ctx, userID, false)
	if err != nil {
		return err
	}
	for _, v := range videos {
		if err := cs.deleteVideo(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
