package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"amplify_server/config"
	apperrors "amplify_server/errors"
	"amplify_server/models"
	"amplify_server/utils"
)

// VideoService stores video rows. The owner GSI is keyed by userId with createdAt as range key.
type VideoService struct {
	Dynamo *DynamoService
	Tables config.TablesConfig
}

func NewVideoService(dynamo *DynamoService, tables config.TablesConfig) *VideoService {
	return &VideoService{Dynamo: dynamo, Tables: tables}
}

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func timestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

func (vs *VideoService) CreateVideo(ctx context.Context, v *models.Video) error {
	if v.Tags == nil {
		v.Tags = []string{}
	}
	v.RefreshIndexes()
	err := vs.Dynamo.PutItemIfNotExists(ctx, vs.Tables.Videos, v, "id")
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewConflictError("Video already exists")
	}
	if err != nil {
		return apperrors.NewStorageError("Failed to upload video", err)
	}
	return nil
}

func (vs *VideoService) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var v models.Video
	err := vs.Dynamo.GetItem(ctx, vs.Tables.Videos, utils.StringKey("id", id), &v)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("Video")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch video", err)
	}
	return &v, nil
}

// UpdateVideo writes the editable columns of v and refreshes its text indexes. Counters and
// transcription state are left alone.
func (vs *VideoService) UpdateVideo(ctx context.Context, v *models.Video) error {
	if v.Tags == nil {
		v.Tags = []string{}
	}
	v.RefreshIndexes()
	v.UpdatedAt = timestamp()

	fields := map[string]interface{}{
		"title":        v.Title,
		"description":  v.Description,
		"thumbnail":    v.Thumbnail,
		"eventType":    v.EventType,
		"roundType":    v.RoundType,
		"tournament":   v.Tournament,
		"topic":        v.Topic,
		"tags":         v.Tags,
		"side":         v.Side,
		"isPublic":     v.IsPublic,
		"script":       v.Script,
		"scriptTitle":  v.ScriptTitle,
		"scriptAuthor": v.ScriptAuthor,
		"matchText":    v.MatchText,
		"searchText":   v.SearchText,
		"updatedAt":    v.UpdatedAt,
	}
	expr, names, values, err := setExpression(fields)
	if err != nil {
		return err
	}

	var updated models.Video
	err = vs.Dynamo.UpdateItem(ctx, vs.Tables.Videos, utils.StringKey("id", v.ID), expr, names, values, &updated)
	if errors.Is(err, ErrItemNotFound) {
		return apperrors.NewNotFoundError("Video")
	}
	if err != nil {
		return apperrors.NewStorageError("Failed to update video", err)
	}
	*v = updated
	return nil
}

// ListPublic returns every public video matching f, newest first. Paging is the caller's.
func (vs *VideoService) ListPublic(ctx context.Context, f models.VideoFilter) ([]*models.Video, error) {
	names := map[string]string{"#isPublic": "isPublic"}
	values := map[string]types.AttributeValue{":public": &types.AttributeValueMemberBOOL{Value: true}}
	clauses := []string{"#isPublic = :public"}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		names["#searchText"] = "searchText"
		values[":q"] = &types.AttributeValueMemberS{Value: q}
		clauses = append(clauses, "contains(#searchText, :q)")
	}
	if f.UserID != "" {
		names["#userId"] = "userId"
		values[":uid"] = &types.AttributeValueMemberS{Value: f.UserID}
		clauses = append(clauses, "#userId = :uid")
	}
	if f.EventType != "" {
		names["#eventType"] = "eventType"
		values[":et"] = &types.AttributeValueMemberS{Value: f.EventType}
		clauses = append(clauses, "#eventType = :et")
	}

	var videos []*models.Video
	err := vs.Dynamo.ScanWithFilter(ctx, vs.Tables.Videos, strings.Join(clauses, " AND "), names, values, &videos)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch videos", err)
	}
	sortNewestFirst(videos)
	return videos, nil
}

// ListByUser returns the user's videos newest first.
func (vs *VideoService) ListByUser(ctx context.Context, userID string, publicOnly bool) ([]*models.Video, error) {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(vs.Tables.Videos),
		IndexName:                 aws.String(vs.Tables.VideoOwnerIndex),
		KeyConditionExpression:    aws.String("#userId = :uid"),
		ExpressionAttributeNames:  map[string]string{"#userId": "userId"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	}
	if publicOnly {
		in.FilterExpression = aws.String("#isPublic = :public")
		in.ExpressionAttributeNames["#isPublic"] = "isPublic"
		in.ExpressionAttributeValues[":public"] = &types.AttributeValueMemberBOOL{Value: true}
	}

	var videos []*models.Video
	if err := vs.Dynamo.QueryItems(ctx, in, &videos); err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch videos", err)
	}
	sortNewestFirst(videos)
	return videos, nil
}

// FindPublicMatching returns up to limit public videos whose matchText contains any of the
// keywords, most viewed first.
func (vs *VideoService) FindPublicMatching(ctx context.Context, keywords []string, limit int) ([]*models.Video, error) {
	if len(keywords) == 0 {
		return []*models.Video{}, nil
	}

	names := map[string]string{"#isPublic": "isPublic"}
	values := map[string]types.AttributeValue{":public": &types.AttributeValueMemberBOOL{Value: true}}
	filter := "#isPublic = :public AND " + utils.ContainsAny("matchText", "k", keywords, names, values)

	var videos []*models.Video
	if err := vs.Dynamo.ScanWithFilter(ctx, vs.Tables.Videos, filter, names, values, &videos); err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch matches", err)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].Views != videos[j].Views {
			return videos[i].Views > videos[j].Views
		}
		if videos[i].CreatedAt != videos[j].CreatedAt {
			return videos[i].CreatedAt > videos[j].CreatedAt
		}
		return videos[i].ID < videos[j].ID
	})
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// IncrementViews adds one view and returns the new count.
func (vs *VideoService) IncrementViews(ctx context.Context, id string) (int, error) {
	return vs.add(ctx, id, "views", 1)
}

// AddLikes adjusts likesCount by delta and returns the new count.
func (vs *VideoService) AddLikes(ctx context.Context, id string, delta int) (int, error) {
	return vs.add(ctx, id, "likesCount", delta)
}

func (vs *VideoService) add(ctx context.Context, id, attr string, delta int) (int, error) {
	var v models.Video
	err := vs.Dynamo.UpdateItem(ctx, vs.Tables.Videos, utils.StringKey("id", id),
		"ADD #a :d",
		map[string]string{"#a": attr},
		map[string]types.AttributeValue{":d": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)}},
		&v,
	)
	if errors.Is(err, ErrItemNotFound) {
		return 0, apperrors.NewNotFoundError("Video")
	}
	if err != nil {
		return 0, apperrors.NewStorageError("Failed to update video", err)
	}
	if attr == "views" {
		return v.Views, nil
	}
	return v.LikesCount, nil
}

func (vs *VideoService) SetTranscriptStatus(ctx context.Context, id, status string) error {
	err := vs.Dynamo.UpdateItem(ctx, vs.Tables.Videos, utils.StringKey("id", id),
		"SET #s = :s, #u = :u",
		map[string]string{"#s": "transcriptStatus", "#u": "updatedAt"},
		map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: status},
			":u": &types.AttributeValueMemberS{Value: timestamp()},
		},
		nil,
	)
	if errors.Is(err, ErrItemNotFound) {
		return apperrors.NewNotFoundError("Video")
	}
	if err != nil {
		return apperrors.NewStorageError("Failed to update video", err)
	}
	return nil
}

// SaveTranscript stores a finished transcript, marks it completed and refreshes the text
// indexes. Only the text columns are written so concurrent view and like counts survive.
func (vs *VideoService) SaveTranscript(ctx context.Context, id, transcript string) error {
	v, err := vs.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	v.Transcript = transcript
	v.RefreshIndexes()

	err = vs.Dynamo.UpdateItem(ctx, vs.Tables.Videos, utils.StringKey("id", id),
		"SET #t = :t, #s = :s, #m = :m, #q = :q, #u = :u",
		map[string]string{
			"#t": "transcript",
			"#s": "transcriptStatus",
			"#m": "matchText",
			"#q": "searchText",
			"#u": "updatedAt",
		},
		map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: transcript},
			":s": &types.AttributeValueMemberS{Value: models.TranscriptCompleted},
			":m": &types.AttributeValueMemberS{Value: v.MatchText},
			":q": &types.AttributeValueMemberS{Value: v.SearchText},
			":u": &types.AttributeValueMemberS{Value: timestamp()},
		},
		nil,
	)
	if errors.Is(err, ErrItemNotFound) {
		return apperrors.NewNotFoundError("Video")
	}
	if err != nil {
		return apperrors.NewStorageError("Failed to save transcript", err)
	}
	return nil
}

func (vs *VideoService) DeleteVideo(ctx context.Context, id string) error {
	if err := vs.Dynamo.DeleteItem(ctx, vs.Tables.Videos, utils.StringKey("id", id)); err != nil {
		return apperrors.NewStorageError("Failed to delete video", err)
	}
	return nil
}

func sortNewestFirst(videos []*models.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].CreatedAt != videos[j].CreatedAt {
			return videos[i].CreatedAt > videos[j].CreatedAt
		}
		return videos[i].ID < videos[j].ID
	})
}
