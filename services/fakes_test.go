package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	apperrors "amplify_server/errors"
	"amplify_server/models"
	"amplify_server/utils"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		u.EnsureLists()
		m.users[u.ID] = u
	}
	return m
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return apperrors.NewConflictError("User already exists")
	}
	u.EnsureLists()
	m.users[u.ID] = copyUser(u)
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("User")
	}
	return copyUser(u), nil
}

func (m *memUsers) GetUsers(_ context.Context, ids []string) (map[string]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*models.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (m *memUsers) find(match func(*models.User) bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return copyUser(u)
		}
	}
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username }), nil
}

// UpdateUser round-trips through the DynamoDB codec so attribute names behave as stored.
func (m *memUsers) UpdateUser(_ context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("User")
	}
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, err
	}
	for name, v := range fields {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, err
		}
		item[name] = av
	}
	var updated models.User
	if err := attributevalue.UnmarshalMap(item, &updated); err != nil {
		return nil, err
	}
	m.users[id] = &updated
	return copyUser(&updated), nil
}

func (m *memUsers) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memUsers) FindOrganizers(_ context.Context, causes []string) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		if u.AccountType != models.AccountTypeOrganizer {
			continue
		}
		for _, c := range u.Causes {
			if containsString(causes, c) {
				out = append(out, copyUser(u))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// memVideos is an in-memory VideoStore.
type memVideos struct {
	mu     sync.Mutex
	videos map[string]*models.Video
}

func newMemVideos(videos ...*models.Video) *memVideos {
	m := &memVideos{videos: make(map[string]*models.Video)}
	for _, v := range videos {
		v.RefreshIndexes()
		m.videos[v.ID] = v
	}
	return m
}

func copyVideo(v *models.Video) *models.Video {
	c := *v
	return &c
}

func (m *memVideos) CreateVideo(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.RefreshIndexes()
	m.videos[v.ID] = copyVideo(v)
	return nil
}

func (m *memVideos) GetVideo(_ context.Context, id string) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Video")
	}
	return copyVideo(v), nil
}

func (m *memVideos) all(keep func(*models.Video) bool) []*models.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Video
	for _, v := range m.videos {
		if keep(v) {
			out = append(out, copyVideo(v))
		}
	}
	return out
}

func (m *memVideos) ListPublic(_ context.Context, f models.VideoFilter) ([]*models.Video, error) {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := m.all(func(v *models.Video) bool {
		return v.IsPublic &&
			(q == "" || strings.Contains(v.SearchText, q)) &&
			(f.UserID == "" || v.UserID == f.UserID) &&
			(f.EventType == "" || v.EventType == f.EventType)
	})
	sortNewestFirst(out)
	return out, nil
}

func (m *memVideos) ListByUser(_ context.Context, userID string, publicOnly bool) ([]*models.Video, error) {
	out := m.all(func(v *models.Video) bool {
		return v.UserID == userID && (!publicOnly || v.IsPublic)
	})
	sortNewestFirst(out)
	return out, nil
}

func (m *memVideos) FindPublicMatching(_ context.Context, keywords []string, limit int) ([]*models.Video, error) {
	out := m.all(func(v *models.Video) bool {
		if !v.IsPublic {
			return false
		}
		for _, k := range keywords {
			if strings.Contains(v.MatchText, k) {
				return true
			}
		}
		return false
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memVideos) UpdateVideo(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.videos[v.ID]
	if !ok {
		return apperrors.NewNotFoundError("Video")
	}
	v.Views, v.LikesCount = stored.Views, stored.LikesCount
	v.Transcript, v.TranscriptStatus = stored.Transcript, stored.TranscriptStatus
	v.RefreshIndexes()
	m.videos[v.ID] = copyVideo(v)
	return nil
}

func (m *memVideos) bump(id string, f func(v *models.Video) int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return 0, apperrors.NewNotFoundError("Video")
	}
	return f(v), nil
}

func (m *memVideos) IncrementViews(_ context.Context, id string) (int, error) {
	return m.bump(id, func(v *models.Video) int { v.Views++; return v.Views })
}

func (m *memVideos) AddLikes(_ context.Context, id string, delta int) (int, error) {
	return m.bump(id, func(v *models.Video) int { v.LikesCount += delta; return v.LikesCount })
}

func (m *memVideos) SetTranscriptStatus(_ context.Context, id, status string) error {
	_, err := m.bump(id, func(v *models.Video) int { v.TranscriptStatus = status; return 0 })
	return err
}

func (m *memVideos) SaveTranscript(_ context.Context, id, transcript string) error {
	_, err := m.bump(id, func(v *models.Video) int {
		v.Transcript = transcript
		v.TranscriptStatus = models.TranscriptCompleted
		v.RefreshIndexes()
		return 0
	})
	return err
}

func (m *memVideos) DeleteVideo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.videos, id)
	return nil
}

func (m *memVideos) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.videos[id]; ok {
		return v.TranscriptStatus
	}
	return ""
}

// memComments is an in-memory CommentStore.
type memComments struct {
	mu       sync.Mutex
	comments []*models.Comment
}

func (m *memComments) AddComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.CreatedAt == "" {
		c.CreatedAt = timestamp()
	}
	if c.CommentID == "" {
		c.CommentID = NewCommentID(c.CreatedAt)
	}
	cc := *c
	m.comments = append(m.comments, &cc)
	return nil
}

func (m *memComments) ListComments(_ context.Context, videoID string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range m.comments {
		if c.VideoID == videoID {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommentID > out[j].CommentID })
	return out, nil
}

func (m *memComments) remove(drop func(*models.Comment) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.comments[:0]
	for _, c := range m.comments {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	m.comments = kept
}

func (m *memComments) DeleteVideoComments(_ context.Context, videoID string) error {
	m.remove(func(c *models.Comment) bool { return c.VideoID == videoID })
	return nil
}

func (m *memComments) DeleteUserComments(_ context.Context, userID string) error {
	m.remove(func(c *models.Comment) bool { return c.UserID == userID })
	return nil
}

// memLikes is an in-memory LikeStore.
type memLikes struct {
	mu    sync.Mutex
	likes map[[2]string]*models.Like
}

func newMemLikes() *memLikes {
	return &memLikes{likes: make(map[[2]string]*models.Like)}
}

func (m *memLikes) AddLike(_ context.Context, videoID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{videoID, userID}
	if _, ok := m.likes[k]; ok {
		return false, nil
	}
	m.likes[k] = &models.Like{VideoID: videoID, UserID: userID, CreatedAt: timestamp()}
	return true, nil
}

func (m *memLikes) RemoveLike(_ context.Context, videoID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{videoID, userID}
	if _, ok := m.likes[k]; !ok {
		return false, nil
	}
	delete(m.likes, k)
	return true, nil
}

func (m *memLikes) HasLiked(_ context.Context, videoID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.likes[[2]string{videoID, userID}]
	return ok, nil
}

func (m *memLikes) DeleteVideoLikes(_ context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.likes {
		if k[0] == videoID {
			delete(m.likes, k)
		}
	}
	return nil
}

func (m *memLikes) ListUserLikes(_ context.Context, userID string) ([]*models.Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Like
	for k, l := range m.likes {
		if k[1] == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

// memMedia is an in-memory MediaStore.
type memMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string
}

func newMemMedia() *memMedia {
	return &memMedia{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memMedia) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memMedia) Stat(_ context.Context, key string) (*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &ObjectInfo{Size: int64(len(data)), ContentType: m.types[key]}, nil
}

func (m *memMedia) Open(_ context.Context, key string, rng *utils.ByteRange) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	if rng != nil {
		data = data[rng.Start : rng.End+1]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memMedia) PresignRead(_ context.Context, key string) (string, error) {
	return "https://bucket.example/" + key + "?sig=1", nil
}

func (m *memMedia) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// recordingTranscriber remembers what was queued.
type recordingTranscriber struct {
	mu     sync.Mutex
	queued []string
}

func (r *recordingTranscriber) Enqueue(v *models.Video) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, v.ID)
}

// recordingMailer remembers reset emails.
type recordingMailer struct {
	to, token, baseURL string
	calls              int
	err                error
}

func (r *recordingMailer) SendPasswordResetEmail(_ context.Context, to, token, baseURL string) error {
	r.calls++
	r.to, r.token, r.baseURL = to, token, baseURL
	return r.err
}
