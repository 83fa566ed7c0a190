package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"amplify_server/config"
	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/middleware"
	"amplify_server/models"
	"amplify_server/services"
	"amplify_server/utils"
)

// multipartOverhead is the slack allowed on top of the file limit for form fields and
// part headers.
const multipartOverhead = 1 << 20

// VideoController handles the video library endpoints.
type VideoController struct {
	Content ContentAPI
	Uploads config.UploadConfig
	Log     logger.Logger
}

func NewVideoController(content ContentAPI, uploads config.UploadConfig, log logger.Logger) *VideoController {
	return &VideoController{Content: content, Uploads: uploads, Log: log}
}

func (vc *VideoController) GetTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"eventTypes": models.EventTypes,
		"roundTypes": models.RoundTypes,
	})
}

// ListVideos returns a page of public videos, optionally searched and filtered.
func (vc *VideoController) ListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := utils.Page(q.Get("page"), q.Get("limit"), services.DefaultPageSize, maxPageSize)
	result, err := vc.Content.List(r.Context(), models.VideoFilter{
		Search:    q.Get("search"),
		UserID:    q.Get("userId"),
		EventType: q.Get("eventType"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondError(w, vc.Log, err, "Failed to fetch videos")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (vc *VideoController) GetVideo(w http.ResponseWriter, r *http.Request) {
	detail, err := vc.Content.Watch(r.Context(), mux.Vars(r)["id"], middleware.UserFromContext(r.Context()))
	if err != nil {
		respondError(w, vc.Log, err, "Failed to fetch video")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// StreamVideo serves the video file, honouring a single-span Range header.
func (vc *VideoController) StreamVideo(w http.ResponseWriter, r *http.Request) {
	stream, err := vc.Content.OpenStream(r.Context(), mux.Vars(r)["id"], r.Header.Get("Range"))
	if errors.Is(err, utils.ErrUnsatisfiableRange) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", stream.Size))
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "Requested range not satisfiable")
		return
	}
	if err != nil {
		respondError(w, vc.Log, err, "Failed to stream video")
		return
	}
	defer stream.Body.Close()

	h := w.Header()
	h.Set("Content-Type", stream.ContentType)
	h.Set("Accept-Ranges", "bytes")
	status := http.StatusOK
	length := stream.Size
	if stream.Range != nil {
		h.Set("Content-Range", stream.Range.ContentRange(stream.Size))
		length = stream.Range.Length()
		status = http.StatusPartialContent
	}
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)

	if _, err := io.Copy(w, stream.Body); err != nil {
		vc.Log.Debug("stream interrupted", map[string]interface{}{"error": err.Error()})
	}
}

// readFile parses a multipart body capped at limit and returns the named file part.
// A request without that part yields a nil upload. The returned cleanup must be called.
func (vc *VideoController) readFile(w http.ResponseWriter, r *http.Request, field string, limit int64) (*services.FileUpload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, noop, apperrors.NewFileTooLargeError()
		case errors.Is(err, http.ErrNotMultipart):
			return nil, noop, nil
		}
		return nil, noop, apperrors.NewValidationError("Invalid upload")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		return nil, cleanup, apperrors.NewValidationError("Invalid upload")
	}
	if header.Size > limit {
		_ = file.Close()
		return nil, cleanup, apperrors.NewFileTooLargeError()
	}
	return &services.FileUpload{
			Body:        file,
			Size:        header.Size,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		}, func() {
			_ = file.Close()
			cleanup()
		}, nil
}

// parseTags accepts a JSON array or a comma-separated list.
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var tags []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &tags) == nil {
		return tags
	}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (vc *VideoController) UploadVideo(w http.ResponseWriter, r *http.Request) {
	file, cleanup, err := vc.readFile(w, r, "video", vc.Uploads.MaxVideoSize)
	defer cleanup()
	if err != nil {
		respondError(w, vc.Log, err, "Failed to upload video")
		return
	}

	in := services.UploadInput{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		EventType:    r.FormValue("eventType"),
		RoundType:    r.FormValue("roundType"),
		Tournament:   r.FormValue("tournament"),
		Topic:        r.FormValue("topic"),
		Side:         r.FormValue("side"),
		Tags:         parseTags(r.FormValue("tags")),
		Script:       r.FormValue("script"),
		ScriptTitle:  r.FormValue("scriptTitle"),
		ScriptAuthor: r.FormValue("scriptAuthor"),
	}
	if v := r.FormValue("isPublic"); v != "" {
		public, perr := strconv.ParseBool(v)
		if perr == nil {
			in.IsPublic = &public
		}
	}

	video, err := vc.Content.Upload(r.Context(), middleware.UserFromContext(r.Context()), file, in)
	if err != nil {
		respondError(w, vc.Log, err, "Failed to upload video")
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (vc *VideoController) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	file, cleanup, err := vc.readFile(w, r, "thumbnail", vc.Uploads.MaxThumbnailSize)
	defer cleanup()
	if err != nil {
		respondError(w, vc.Log, err, "Failed to upload thumbnail")
		return
	}
	video, err := vc.Content.SetThumbnail(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"], file)
	if err != nil {
		respondError(w, vc.Log, err, "Failed to upload thumbnail")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// ServeThumbnail redirects to a short-lived URL for the stored image.
func (vc *VideoController) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	url, err := vc.Content.ThumbnailURL(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, vc.Log, err, "Failed to fetch thumbnail")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (vc *VideoController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	result, err := vc.Content.ToggleLike(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, vc.Log, err, "Failed to like video")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (vc *VideoController) AddComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, vc.Log, err, "Failed to add comment")
		return
	}
	comment, err := vc.Content.AddComment(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"], body.Content)
	if err != nil {
		respondError(w, vc.Log, err, "Failed to add comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (vc *VideoController) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := vc.Content.ListComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, vc.Log, err, "Failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// UpdateVideo applies the fields present in the JSON body.
func (vc *VideoController) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	var in services.VideoUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, vc.Log, err, "Failed to update video")
		return
	}
	video, err := vc.Content.Update(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"], in)
	if err != nil {
		respondError(w, vc.Log, err, "Failed to update video")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (vc *VideoController) Transcribe(w http.ResponseWriter, r *http.Request) {
	if err := vc.Content.RequestTranscription(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		respondError(w, vc.Log, err, "Failed to start transcription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transcription started", "status": models.TranscriptProcessing})
}

func (vc *VideoController) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := vc.Content.Delete(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		respondError(w, vc.Log, err, "Failed to delete video")
		return
	}
	writeMessage(w, "Video deleted successfully")
}
