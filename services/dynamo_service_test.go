package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amplify_server/config"
	"amplify_server/logger"
	"amplify_server/models"
	"amplify_server/utils"
)

// fakeDynamo answers each call with the matching hook and records the inputs.
type fakeDynamo struct {
	get        func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	put        func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	update     func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	del        func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	query      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	scan       func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	batchGet   func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
	batchWrite func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)

	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	queries []dynamodb.QueryInput
	writes  []int
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.get == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.get(in)
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.put == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return f.put(in)
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.update == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.update(in)
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.del == nil {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	return f.del(in)
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, *in)
	return f.query(in)
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(in)
}

func (f *fakeDynamo) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	return f.batchGet(in)
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	for _, reqs := range in.RequestItems {
		f.writes = append(f.writes, len(reqs))
	}
	if f.batchWrite == nil {
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	return f.batchWrite(in)
}

func newTestDynamo(t *testing.T, client *fakeDynamo) *DynamoService {
	t.Helper()
	return &DynamoService{Client: client, Log: logger.NewTestLogger(t)}
}

func testTables() config.TablesConfig {
	return config.TablesConfig{
		Users:           "users",
		Videos:          "videos",
		Comments:        "comments",
		Likes:           "likes",
		UserEmailIndex:  "email-index",
		UserNameIndex:   "username-index",
		VideoOwnerIndex: "userId-index",
	}
}

func idItem(t *testing.T, id string) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(map[string]string{"id": id})
	require.NoError(t, err)
	return item
}

func TestDynamoService_PutItemIfNotExists(t *testing.T) {
	client := &fakeDynamo{put: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}}
	ds := newTestDynamo(t, client)

	err := ds.PutItemIfNotExists(context.Background(), "users", map[string]string{"id": "u1"}, "id")
	assert.ErrorIs(t, err, ErrConditionFailed)
	require.Len(t, client.puts, 1)
	assert.Equal(t, "attribute_not_exists(id)", aws.ToString(client.puts[0].ConditionExpression))

	client.put = func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) { return nil, errors.New("throttled") }
	err = ds.PutItem(context.Background(), "users", map[string]string{"id": "u1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConditionFailed)
	assert.Nil(t, client.puts[1].ConditionExpression)
}

func TestDynamoService_GetItem(t *testing.T) {
	client := &fakeDynamo{}
	ds := newTestDynamo(t, client)

	var out struct {
		ID string `dynamodbav:"id"`
	}
	err := ds.GetItem(context.Background(), "users", utils.StringKey("id", "u1"), &out)
	assert.ErrorIs(t, err, ErrItemNotFound)

	client.get = func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		return &dynamodb.GetItemOutput{Item: idItem(t, "u1")}, nil
	}
	require.NoError(t, ds.GetItem(context.Background(), "users", utils.StringKey("id", "u1"), &out))
	assert.Equal(t, "u1", out.ID)
}

func TestDynamoService_UpdateItemRequiresRow(t *testing.T) {
	client := &fakeDynamo{update: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{}
	}}
	ds := newTestDynamo(t, client)

	err := ds.UpdateItem(context.Background(), "videos", utils.StringKey("id", "v1"), "ADD #a :d",
		map[string]string{"#a": "views"}, nil, nil)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, "attribute_exists(id)", aws.ToString(client.updates[0].ConditionExpression))
	assert.Nil(t, client.updates[0].ExpressionAttributeValues)

	err = ds.UpdateItem(context.Background(), "videos", nil, "ADD #a :d", nil, nil, nil)
	assert.Error(t, err)
}

func TestDynamoService_DeleteItemIfExists(t *testing.T) {
	client := &fakeDynamo{}
	ds := newTestDynamo(t, client)

	existed, err := ds.DeleteItemIfExists(context.Background(), "likes", utils.StringKey("id", "x"))
	require.NoError(t, err)
	assert.False(t, existed)

	client.del = func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
		assert.Equal(t, types.ReturnValueAllOld, in.ReturnValues)
		return &dynamodb.DeleteItemOutput{Attributes: idItem(t, "x")}, nil
	}
	existed, err = ds.DeleteItemIfExists(context.Background(), "likes", utils.StringKey("id", "x"))
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestDynamoService_QueryItemsFollowsPages(t *testing.T) {
	client := &fakeDynamo{}
	client.query = func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		if in.ExclusiveStartKey == nil {
			return &dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{idItem(t, "a"), idItem(t, "b")},
				LastEvaluatedKey: idItem(t, "b"),
			}, nil
		}
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{idItem(t, "c")}}, nil
	}
	ds := newTestDynamo(t, client)

	var out []struct {
		ID string `dynamodbav:"id"`
	}
	input := &dynamodb.QueryInput{TableName: aws.String("comments")}
	require.NoError(t, ds.QueryItems(context.Background(), input, &out))
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[2].ID)
	assert.Len(t, client.queries, 2)
	assert.Nil(t, input.ExclusiveStartKey)
}

func TestDynamoService_BatchGetRetriesUnprocessed(t *testing.T) {
	calls := 0
	client := &fakeDynamo{batchGet: func(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
		calls++
		keys := in.RequestItems["users"].Keys
		out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{
			"users": {keys[0]},
		}}
		if len(keys) > 1 {
			out.UnprocessedKeys = map[string]types.KeysAndAttributes{"users": {Keys: keys[1:]}}
		}
		return out, nil
	}}
	ds := newTestDynamo(t, client)

	keys := []map[string]types.AttributeValue{idItem(t, "a"), idItem(t, "b"), idItem(t, "c")}
	var out []struct {
		ID string `dynamodbav:"id"`
	}
	require.NoError(t, ds.BatchGetItems(context.Background(), "users", keys, &out))
	assert.Len(t, out, 3)
	assert.Equal(t, 3, calls)

	many := make([]map[string]types.AttributeValue, 10)
	for i := range many {
		many[i] = idItem(t, string(rune('a'+i)))
	}
	err := ds.BatchGetItems(context.Background(), "users", many, &out)
	assert.ErrorContains(t, err, "left unprocessed")
}

func TestDynamoService_BatchDeleteChunks(t *testing.T) {
	client := &fakeDynamo{}
	ds := newTestDynamo(t, client)

	keys := make([]map[string]types.AttributeValue, 60)
	for i := range keys {
		keys[i] = utils.CompositeKey("videoId", "v1", "commentId", string(rune('A'+i)))
	}
	require.NoError(t, ds.BatchDeleteItems(context.Background(), "comments", keys))
	assert.Equal(t, []int{25, 25, 10}, client.writes)

	client.writes = nil
	require.NoError(t, ds.BatchDeleteItems(context.Background(), "comments", nil))
	assert.Empty(t, client.writes)
}

func TestUserService_CreateUserConflict(t *testing.T) {
	client := &fakeDynamo{put: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{}
	}}
	svc := NewUserService(newTestDynamo(t, client), testTables())

	err := svc.CreateUser(context.Background(), &models.User{ID: "u1", Username: "maya"})
	assertAPIError(t, err, http.StatusBadRequest, "User already exists")

	stored := client.puts[0].Item
	assert.IsType(t, &types.AttributeValueMemberL{}, stored["causes"])
}

func TestUserService_UpdateUserBuildsSetExpression(t *testing.T) {
	client := &fakeDynamo{update: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{Attributes: idItem(t, "u1")}, nil
	}}
	svc := NewUserService(newTestDynamo(t, client), testTables())

	u, err := svc.UpdateUser(context.Background(), "u1", map[string]interface{}{"bio": "hi", "causes": []string{"climate"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	in := client.updates[0]
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", aws.ToString(in.UpdateExpression))
	assert.Equal(t, map[string]string{"#f0": "bio", "#f1": "causes", "#f2": "updatedAt"}, in.ExpressionAttributeNames)
}

func TestVideoService_IncrementViews(t *testing.T) {
	client := &fakeDynamo{update: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		item, err := attributevalue.MarshalMap(map[string]interface{}{"id": "v1", "views": 8})
		require.NoError(t, err)
		return &dynamodb.UpdateItemOutput{Attributes: item}, nil
	}}
	svc := NewVideoService(newTestDynamo(t, client), testTables())

	views, err := svc.IncrementViews(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, 8, views)
	assert.Equal(t, "ADD #a :d", aws.ToString(client.updates[0].UpdateExpression))
	assert.Equal(t, map[string]string{"#a": "views"}, client.updates[0].ExpressionAttributeNames)

	client.update = func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	_, err = svc.AddLikes(context.Background(), "gone", 1)
	assertAPIError(t, err, http.StatusNotFound, "Video not found")
}
