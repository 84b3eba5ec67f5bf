package dynamo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-flow/internal/domain"
)

// ItemAPI is the subset of *dynamodb.Client the flow repo uses.
type ItemAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// FlowRepo provides typed DynamoDB operations for the auth_flows table.
// PK: session_id.
type FlowRepo struct {
	client    ItemAPI
	tableName string
	now       func() time.Time
}

func NewFlowRepo(client ItemAPI, tableName string) *FlowRepo {
	return &FlowRepo{client: client, tableName: tableName, now: time.Now}
}

func (r *FlowRepo) Put(ctx context.Context, s *domain.FlowSession) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal flow session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Get returns the flow session, or ErrNotFound when missing or past its TTL.
// DynamoDB deletes expired items lazily so the TTL is checked here too.
func (r *FlowRepo) Get(ctx context.Context, sessionID string) (*domain.FlowSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldSessionID, sessionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("flow session not found: %w", domain.ErrNotFound)
	}
	var s domain.FlowSession
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	if s.ExpiresAt > 0 && s.ExpiresAt <= r.now().Unix() {
		return nil, fmt.Errorf("flow session expired: %w", domain.ErrNotFound)
	}
	return &s, nil
}

// Update applies field updates; a nil value removes the attribute.
func (r *FlowRepo) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = r.now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(session_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("flow session not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *FlowRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldSessionID, sessionID),
	})
	return err
}

// TryAcquire marks the session busy for owner until ttl elapses. It fails
// with ErrBusy while another owner holds an unexpired mark.
func (r *FlowRepo) TryAcquire(ctx context.Context, sessionID, owner string, ttl time.Duration) error {
	now := r.now()
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldBusyOwner: owner,
		fieldBusyUntil: now.Add(ttl).Unix(),
	})
	if err != nil {
		return err
	}
	values := maps.Clone(ue.Values)
	values[":now"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(session_id) AND (attribute_not_exists(busy_owner) OR busy_until <= :now)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrBusy)
	}
	return err
}

// Release clears the busy mark if owner still holds it. Losing the mark to
// expiry is not an error.
func (r *FlowRepo) Release(ctx context.Context, sessionID, owner string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldBusyOwner: nil,
		fieldBusyUntil: nil,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldSessionID, sessionID),
		UpdateExpression:         aws.String(ue.Expr),
		ConditionExpression:      aws.String("busy_owner = :owner"),
		ExpressionAttributeNames: ue.Names,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
