package models

// Comment rows are keyed by video; CommentID sorts chronologically within a video.
type Comment struct {
	VideoID   string `dynamodbav:"videoId" json:"videoId"`
	CommentID string `dynamodbav:"commentId" json:"id"`
	UserID    string `dynamodbav:"userId" json:"userId"`
	Content   string `dynamodbav:"content" json:"content"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

type CommentWithUser struct {
	*Comment
	User *UserSummary `json:"user"`
}

// Like is one user's like of one video.
type Like struct {
	VideoID   string `dynamodbav:"videoId" json:"videoId"`
	UserID    string `dynamodbav:"userId" json:"userId"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// LikeResult answers a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}
