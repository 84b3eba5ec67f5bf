package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-flow/internal/config"
)

// TableAPI is the subset of *dynamodb.Client used to provision tables.
type TableAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// Bootstrap creates the flow tables if they don't already exist.
// Safe to call on every startup — skips tables that already exist.
func Bootstrap(ctx context.Context, client TableAPI, tables config.DynamoTables) {
	if createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.AuthFlows),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(fieldSessionID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldSessionID), KeyType: types.KeyTypeHash},
		},
	}) {
		enableTTL(ctx, client, tables.AuthFlows, fieldExpiresAt)
	}
}

// createTable reports whether the table now exists.
func createTable(ctx context.Context, client TableAPI, input *dynamodb.CreateTableInput) bool {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists — that's fine.
		var riue *types.ResourceInUseException
		if errors.As(err, &riue) {
			return true
		}
		slog.Warn("could not create table", "table", *input.TableName, "err", err)
		return false
	}
	slog.Info("created table", "table", *input.TableName)
	return true
}

func enableTTL(ctx context.Context, client TableAPI, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
