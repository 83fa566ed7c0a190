package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"amplify_server/config"
	apperrors "amplify_server/errors"
	"amplify_server/models"
	"amplify_server/utils"
)

// CommentService stores comments keyed by videoId with a time-ordered commentId.
type CommentService struct {
	Dynamo *DynamoService
	Tables config.TablesConfig
}

func NewCommentService(dynamo *DynamoService, tables config.TablesConfig) *CommentService {
	return &CommentService{Dynamo: dynamo, Tables: tables}
}

// NewCommentID sorts by creation time, then randomly.
func NewCommentID(createdAt string) string {
	return createdAt + "#" + uuid.NewString()
}

func (cs *CommentService) AddComment(ctx context.Context, c *models.Comment) error {
	if c.CreatedAt == "" {
		c.CreatedAt = timestamp()
	}
	if c.CommentID == "" {
		c.CommentID = NewCommentID(c.CreatedAt)
	}
	if err := cs.Dynamo.PutItem(ctx, cs.Tables.Comments, c); err != nil {
		return apperrors.NewStorageError("Failed to add comment", err)
	}
	return nil
}

// ListComments returns a video's comments newest first.
func (cs *CommentService) ListComments(ctx context.Context, videoID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := cs.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(cs.Tables.Comments),
		KeyConditionExpression:    aws.String("#videoId = :vid"),
		ExpressionAttributeNames:  map[string]string{"#videoId": "videoId"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":vid": &types.AttributeValueMemberS{Value: videoID}},
		ScanIndexForward:          aws.Bool(false),
	}, &comments)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch comments", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

func (cs *CommentService) DeleteVideoComments(ctx context.Context, videoID string) error {
	comments, err := cs.ListComments(ctx, videoID)
	if err != nil {
		return err
	}
	return cs.deleteAll(ctx, comments)
}

// DeleteUserComments removes everything userID wrote, on any video.
func (cs *CommentService) DeleteUserComments(ctx context.Context, userID string) error {
	var comments []*models.Comment
	err := cs.Dynamo.ScanWithFilter(ctx, cs.Tables.Comments, "#userId = :uid",
		map[string]string{"#userId": "userId"},
		map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		&comments,
	)
	if err != nil {
		return apperrors.NewStorageError("Failed to delete comments", err)
	}
	return cs.deleteAll(ctx, comments)
}

func (cs *CommentService) deleteAll(ctx context.Context, comments []*models.Comment) error {
	keys := make([]map[string]types.AttributeValue, len(comments))
	for i, c := range comments {
		keys[i] = utils.CompositeKey("videoId", c.VideoID, "commentId", c.CommentID)
	}
	if err := cs.Dynamo.BatchDeleteItems(ctx, cs.Tables.Comments, keys); err != nil {
		return apperrors.NewStorageError("Failed to delete comments", err)
	}
	return nil
}
