package models

import (
	"strings"

	"amplify_server/matching"
)

// Video is a stored speech or debate recording.
type Video struct {
	ID               string   `dynamodbav:"id" json:"id"`
	UserID           string   `dynamodbav:"userId" json:"userId"`
	Title            string   `dynamodbav:"title" json:"title"`
	Description      string   `dynamodbav:"description" json:"description"`
	Filename         string   `dynamodbav:"filename" json:"filename"`
	ContentType      string   `dynamodbav:"contentType" json:"-"`
	Size             int64    `dynamodbav:"size" json:"-"`
	Thumbnail        string   `dynamodbav:"thumbnail,omitempty" json:"thumbnail"`
	Duration         int      `dynamodbav:"duration" json:"duration"`
	Views            int      `dynamodbav:"views" json:"views"`
	LikesCount       int      `dynamodbav:"likesCount" json:"likesCount"`
	EventType        string   `dynamodbav:"eventType" json:"eventType"`
	RoundType        string   `dynamodbav:"roundType" json:"roundType"`
	Tournament       string   `dynamodbav:"tournament" json:"tournament"`
	Topic            string   `dynamodbav:"topic" json:"topic"`
	Tags             []string `dynamodbav:"tags" json:"tags"`
	Side             string   `dynamodbav:"side" json:"side"`
	IsPublic         bool     `dynamodbav:"isPublic" json:"isPublic"`
	Script           string   `dynamodbav:"script" json:"script"`
	ScriptTitle      string   `dynamodbav:"scriptTitle" json:"scriptTitle"`
	ScriptAuthor     string   `dynamodbav:"scriptAuthor" json:"scriptAuthor"`
	Transcript       string   `dynamodbav:"transcript" json:"transcript"`
	TranscriptStatus string   `dynamodbav:"transcriptStatus" json:"transcriptStatus"`
	MatchText        string   `dynamodbav:"matchText" json:"-"`
	SearchText       string   `dynamodbav:"searchText" json:"-"`
	CreatedAt        string   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt        string   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// HasScript reports whether a non-blank script was supplied.
func (v *Video) HasScript() bool {
	return strings.TrimSpace(v.Script) != ""
}

// ToContent is the view of v the matching engine works with.
func (v *Video) ToContent(uploader matching.Account) matching.VideoContent {
	return matching.VideoContent{
		ID:         v.ID,
		Title:      v.Title,
		Topic:      v.Topic,
		Transcript: v.Transcript,
		Script:     v.Script,
		Thumbnail:  v.Thumbnail,
		Views:      v.Views,
		Uploader:   uploader,
	}
}

// RefreshIndexes recomputes the lower-cased columns the storage prefilters run against.
// Call it after any change to a text field.
func (v *Video) RefreshIndexes() {
	v.MatchText = matching.Extract(v.ToContent(matching.Account{}))
	v.SearchText = SearchText(v.Title, v.Description, v.Topic, v.Tournament,
		v.Script, v.ScriptTitle, v.ScriptAuthor, v.Transcript)
}

// SearchText joins the searchable fields, lower-cased, with a separator that a user query
// is unlikely to span.
func SearchText(fields ...string) string {
	return strings.ToLower(strings.Join(fields, "\n"))
}

// VideoWithUser is a video plus its uploader.
type VideoWithUser struct {
	*Video
	User *UserSummary `json:"user"`
}

// VideoDetail is the watch-page payload.
type VideoDetail struct {
	*Video
	User      *UserSummary       `json:"user"`
	Comments  []*CommentWithUser `json:"comments"`
	Likes     int                `json:"likes"`
	UserLiked bool               `json:"userLiked"`
}

// VideoPage is one page of a listing.
type VideoPage struct {
	Videos      []*VideoWithUser `json:"videos"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	TotalVideos int              `json:"totalVideos"`
}

// VideoFilter selects public videos for a listing.
type VideoFilter struct {
	Search    string
	UserID    string
	EventType string
	Page      int
	Limit     int
}
