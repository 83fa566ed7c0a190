package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"amplify_server/config"
	apperrors "amplify_server/errors"
	"amplify_server/models"
	"amplify_server/utils"
)

// UserService stores accounts in the users table, with GSIs on email and username.
type UserService struct {
	Dynamo *DynamoService
	Tables config.TablesConfig
}

func NewUserService(dynamo *DynamoService, tables config.TablesConfig) *UserService {
	return &UserService{Dynamo: dynamo, Tables: tables}
}

func (us *UserService) CreateUser(ctx context.Context, user *models.User) error {
	user.EnsureLists()
	err := us.Dynamo.PutItemIfNotExists(ctx, us.Tables.Users, user, "id")
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewConflictError("User already exists")
	}
	if err != nil {
		return apperrors.NewStorageError("Failed to create user", err)
	}
	return nil
}

// GetUser returns a not-found error for unknown IDs.
func (us *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := us.Dynamo.GetItem(ctx, us.Tables.Users, utils.StringKey("id", id), &user)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("User")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch user", err)
	}
	return &user, nil
}

// GetUsers loads every known ID; unknown IDs are absent from the map.
func (us *UserService) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, utils.StringKey("id", id))
	}

	out := make(map[string]*models.User, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var users []*models.User
	if err := us.Dynamo.BatchGetItems(ctx, us.Tables.Users, keys, &users); err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetUserByEmail returns (nil, nil) when no account uses email.
func (us *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return us.queryOne(ctx, us.Tables.UserEmailIndex, "email", email)
}

// GetUserByUsername returns (nil, nil) when the name is free.
func (us *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return us.queryOne(ctx, us.Tables.UserNameIndex, "username", username)
}

func (us *UserService) queryOne(ctx context.Context, index, attr, value string) (*models.User, error) {
	var users []*models.User
	err := us.Dynamo.QueryItems(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(us.Tables.Users),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#k = :v"),
		ExpressionAttributeNames:  map[string]string{"#k": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	}, &users)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch user", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	// Index projections may be partial, so reload from the table.
	return us.GetUser(ctx, users[0].ID)
}

// UpdateUser sets the given attributes and updatedAt, returning the new row. It adds
// updatedAt to fields.
func (us *UserService) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	fields["updatedAt"] = timestamp()

	expr, exprNames, exprValues, err := setExpression(fields)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = us.Dynamo.UpdateItem(ctx, us.Tables.Users, utils.StringKey("id", id), expr, exprNames, exprValues, &user)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("User")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to update user", err)
	}
	return &user, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := us.Dynamo.DeleteItem(ctx, us.Tables.Users, utils.StringKey("id", id)); err != nil {
		return apperrors.NewStorageError("Failed to delete user", err)
	}
	return nil
}

// setExpression builds "SET #f0 = :v0, ..." over fields in name order.
func setExpression(fields map[string]interface{}) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	exprNames := make(map[string]string, len(names))
	exprValues := make(map[string]types.AttributeValue, len(names))
	parts := make([]string, len(names))
	for i, name := range names {
		av, err := attributevalue.Marshal(fields[name])
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		parts[i] = n + " = " + v
		exprNames[n] = name
		exprValues[v] = av
	}
	return "SET " + strings.Join(parts, ", "), exprNames, exprValues, nil
}

// FindOrganizers returns organizer accounts that declared at least one of causes.
func (us *UserService) FindOrganizers(ctx context.Context, causes []string) ([]*models.User, error) {
	if len(causes) == 0 {
		return []*models.User{}, nil
	}

	names := map[string]string{"#accountType": "accountType"}
	values := map[string]types.AttributeValue{
		":organizer": &types.AttributeValueMemberS{Value: models.AccountTypeOrganizer},
	}
	filter := "#accountType = :organizer AND " + utils.ContainsAny("causes", "c", causes, names, values)

	var users []*models.User
	if err := us.Dynamo.ScanWithFilter(ctx, us.Tables.Users, filter, names, values, &users); err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch organizers", err)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt < users[j].CreatedAt })
	return users, nil
}
