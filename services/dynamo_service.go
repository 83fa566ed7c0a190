package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"amplify_server/logger"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrConditionFailed = errors.New("condition check failed")
)

const (
	maxBatchGet    = 100
	maxBatchWrite  = 25
	maxBatchRounds = 5
)

// DynamoAPI is the part of *dynamodb.Client the server uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type DynamoService struct {
	Client DynamoAPI
	Log    logger.Logger
}

// NewDynamoService builds the service over a client made from cfg.
func NewDynamoService(cfg aws.Config, log logger.Logger) *DynamoService {
	return &DynamoService{Client: dynamodb.NewFromConfig(cfg), Log: log}
}

// PutItem marshals item and writes it, replacing any existing row.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	return ds.put(ctx, tableName, item, "")
}

// PutItemIfNotExists writes item only when no row with the same keyAttr exists.
// It returns ErrConditionFailed otherwise.
func (ds *DynamoService) PutItemIfNotExists(ctx context.Context, tableName string, item interface{}, keyAttr string) error {
	return ds.put(ctx, tableName, item, "attribute_not_exists("+keyAttr+")")
}

func (ds *DynamoService) put(ctx context.Context, tableName string, item interface{}, condition string) error {
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	in := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      marshaled,
	}
	if condition != "" {
		in.ConditionExpression = aws.String(condition)
	}

	if _, err := ds.Client.PutItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// GetItem reads the row at key into out. A missing row is ErrItemNotFound.
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue, out interface{}) error {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}
	if output.Item == nil {
		return ErrItemNotFound
	}
	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return nil
}

// UpdateItem applies updateExpression to the row at key and, when out is non-nil,
// unmarshals the updated row into it. The row must already exist.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	updateExpression string,
	expressionAttributeNames map[string]string,
	expressionAttributeValues map[string]types.AttributeValue,
	out interface{},
) error {
	if len(key) == 0 {
		return errors.New("update failed: key cannot be empty")
	}
	if updateExpression == "" {
		return errors.New("update failed: updateExpression cannot be empty")
	}

	condition := ""
	for name := range key {
		condition = "attribute_exists(" + name + ")"
		break
	}

	in := &dynamodb.UpdateItemInput{
		TableName:           aws.String(tableName),
		Key:                 key,
		UpdateExpression:    aws.String(updateExpression),
		ConditionExpression: aws.String(condition),
		ReturnValues:        types.ReturnValueAllNew,
	}
	if len(expressionAttributeNames) > 0 {
		in.ExpressionAttributeNames = expressionAttributeNames
	}
	if len(expressionAttributeValues) > 0 {
		in.ExpressionAttributeValues = expressionAttributeValues
	}

	output, err := ds.Client.UpdateItem(ctx, in)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	if out == nil || output.Attributes == nil {
		return nil
	}
	if err := attributevalue.UnmarshalMap(output.Attributes, out); err != nil {
		return fmt.Errorf("failed to unmarshal updated item: %w", err)
	}
	return nil
}

// DeleteItem removes the row at key. Deleting a missing row is not an error.
func (ds *DynamoService) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	_, err := ds.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
	}
	return nil
}

// DeleteItemIfExists removes the row at key and reports whether there was one.
func (ds *DynamoService) DeleteItemIfExists(ctx context.Context, tableName string, key map[string]types.AttributeValue) (bool, error) {
	output, err := ds.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(tableName),
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
	}
	return len(output.Attributes) > 0, nil
}

// QueryItems runs input across every page and unmarshals the rows into out, a pointer to a slice.
func (ds *DynamoService) QueryItems(ctx context.Context, input *dynamodb.QueryInput, out interface{}) error {
	var items []map[string]types.AttributeValue
	in := *input
	for {
		page, err := ds.Client.Query(ctx, &in)
		if err != nil {
			return fmt.Errorf("failed to query table '%s': %w", aws.ToString(in.TableName), err)
		}
		items = append(items, page.Items...)
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result: %w", err)
	}
	return nil
}

// ScanWithFilter scans the whole table applying filterExpression server-side and
// unmarshals the rows into out, a pointer to a slice.
func (ds *DynamoService) ScanWithFilter(
	ctx context.Context,
	tableName string,
	filterExpression string,
	expressionAttributeNames map[string]string,
	expressionAttributeValues map[string]types.AttributeValue,
	out interface{},
) error {
	in := &dynamodb.ScanInput{TableName: aws.String(tableName)}
	if filterExpression != "" {
		in.FilterExpression = aws.String(filterExpression)
	}
	if len(expressionAttributeNames) > 0 {
		in.ExpressionAttributeNames = expressionAttributeNames
	}
	if len(expressionAttributeValues) > 0 {
		in.ExpressionAttributeValues = expressionAttributeValues
	}

	var items []map[string]types.AttributeValue
	for {
		page, err := ds.Client.Scan(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to scan table '%s': %w", tableName, err)
		}
		items = append(items, page.Items...)
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return nil
}

// BatchGetItems fetches keys in chunks of 100, retrying unprocessed keys a few times.
// Missing rows are simply absent from the result.
func (ds *DynamoService) BatchGetItems(ctx context.Context, tableName string, keys []map[string]types.AttributeValue, out interface{}) error {
	var items []map[string]types.AttributeValue
	for i := 0; i < len(keys); i += maxBatchGet {
		end := i + maxBatchGet
		if end > len(keys) {
			end = len(keys)
		}

		pending := keys[i:end]
		for round := 0; len(pending) > 0; round++ {
			if round == maxBatchRounds {
				return fmt.Errorf("batch get on table '%s': %d keys left unprocessed", tableName, len(pending))
			}
			output, err := ds.Client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					tableName: {Keys: pending},
				},
			})
			if err != nil {
				return fmt.Errorf("failed to batch get items from table '%s': %w", tableName, err)
			}
			items = append(items, output.Responses[tableName]...)
			pending = output.UnprocessedKeys[tableName].Keys
		}
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal batch get result: %w", err)
	}
	return nil
}

// BatchWriteItems writes requests in batches of 25, resubmitting unprocessed items.
func (ds *DynamoService) BatchWriteItems(ctx context.Context, tableName string, writeRequests []types.WriteRequest) error {
	for i := 0; i < len(writeRequests); i += maxBatchWrite {
		end := i + maxBatchWrite
		if end > len(writeRequests) {
			end = len(writeRequests)
		}

		pending := writeRequests[i:end]
		for round := 0; len(pending) > 0; round++ {
			if round == maxBatchRounds {
				return fmt.Errorf("batch write on table '%s': %d requests left unprocessed", tableName, len(pending))
			}
			output, err := ds.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{tableName: pending},
			})
			if err != nil {
				return fmt.Errorf("failed to batch write items to table '%s': %w", tableName, err)
			}
			pending = output.UnprocessedItems[tableName]
		}
	}
	return nil
}

// BatchDeleteItems deletes every key.
func (ds *DynamoService) BatchDeleteItems(ctx context.Context, tableName string, keys []map[string]types.AttributeValue) error {
	if len(keys) == 0 {
		return nil
	}
	reqs := make([]types.WriteRequest, len(keys))
	for i, k := range keys {
		reqs[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}}
	}
	ds.Log.Debug("batch delete", map[string]interface{}{"table": tableName, "count": len(keys)})
	return ds.BatchWriteItems(ctx, tableName, reqs)
}
