package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DynamoDBAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoDBClient keeps the processing status of each file, keyed by
// filename. Without a table every update is a no-op.
type DynamoDBClient struct {
	client    DynamoDBAPI
	tableName string
	now       func() time.Time
}

func NewDynamoDBClient(client DynamoDBAPI, tableName string) *DynamoDBClient {
	return &DynamoDBClient{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

func (d *DynamoDBClient) UpdateJobStatus(ctx context.Context, filename string, status string) error {
	if d.tableName == "" {
		return nil
	}

	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"filename": &types.AttributeValueMemberS{Value: filename},
		},
		UpdateExpression: aws.String("SET #s = :status, updated_at = :uat"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":uat":    &types.AttributeValueMemberS{Value: d.now().UTC().Format(time.RFC3339)},
		},
	})

	if err != nil {
		return fmt.Errorf("failed to update job status in DynamoDB for %s: %w", filename, err)
	}
	return nil
}
