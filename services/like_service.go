package services

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"amplify_server/config"
	apperrors "amplify_server/errors"
	"amplify_server/models"
	"amplify_server/utils"
)

// LikeService stores one row per (videoId, userId).
type LikeService struct {
	Dynamo *DynamoService
	Tables config.TablesConfig
}

func NewLikeService(dynamo *DynamoService, tables config.TablesConfig) *LikeService {
	return &LikeService{Dynamo: dynamo, Tables: tables}
}

// AddLike reports false when the user already liked the video.
func (ls *LikeService) AddLike(ctx context.Context, videoID, userID string) (bool, error) {
	like := &models.Like{VideoID: videoID, UserID: userID, CreatedAt: timestamp()}
	err := ls.Dynamo.PutItemIfNotExists(ctx, ls.Tables.Likes, like, "userId")
	if errors.Is(err, ErrConditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStorageError("Failed to like video", err)
	}
	return true, nil
}

// RemoveLike reports false when there was no like to remove.
func (ls *LikeService) RemoveLike(ctx context.Context, videoID, userID string) (bool, error) {
	removed, err := ls.Dynamo.DeleteItemIfExists(ctx, ls.Tables.Likes, utils.CompositeKey("videoId", videoID, "userId", userID))
	if err != nil {
		return false, apperrors.NewStorageError("Failed to unlike video", err)
	}
	return removed, nil
}

func (ls *LikeService) HasLiked(ctx context.Context, videoID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var like models.Like
	err := ls.Dynamo.GetItem(ctx, ls.Tables.Likes, utils.CompositeKey("videoId", videoID, "userId", userID), &like)
	if errors.Is(err, ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStorageError("Failed to fetch likes", err)
	}
	return true, nil
}

func (ls *LikeService) DeleteVideoLikes(ctx context.Context, videoID string) error {
	var likes []*models.Like
	err := ls.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(ls.Tables.Likes),
		KeyConditionExpression:    aws.String("#videoId = :vid"),
		ExpressionAttributeNames:  map[string]string{"#videoId": "videoId"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":vid": &types.AttributeValueMemberS{Value: videoID}},
	}, &likes)
	if err != nil {
		return apperrors.NewStorageError("Failed to delete likes", err)
	}
	return ls.deleteAll(ctx, likes)
}

// ListUserLikes returns every like userID has given.
func (ls *LikeService) ListUserLikes(ctx context.Context, userID string) ([]*models.Like, error) {
	var likes []*models.Like
	err := ls.Dynamo.ScanWithFilter(ctx, ls.Tables.Likes, "#userId = :uid",
		map[string]string{"#userId": "userId"},
		map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		&likes,
	)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch likes", err)
	}
	return likes, nil
}

func (ls *LikeService) deleteAll(ctx context.Context, likes []*models.Like) error {
	keys := make([]map[string]types.AttributeValue, len(likes))
	for i, l := range likes {
		keys[i] = utils.CompositeKey("videoId", l.VideoID, "userId", l.UserID)
	}
	if err := ls.Dynamo.BatchDeleteItems(ctx, ls.Tables.Likes, keys); err != nil {
		return apperrors.NewStorageError("Failed to delete likes", err)
	}
	return nil
}
