package repository

import (
	"context"
	"fmt"

	"github.com/SeakMengs/AutoSign/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// The subset of the DynamoDB client the store needs.
type dynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	dynamodb.ScanAPIClient
}

// DynamoDB rejects items over 400 KB, counting attribute names and values.
const dynamoDBMaxItemSize = 400 * 1024

type dynamoDBItem struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

// DynamoDBStore keeps entries in a table with a string partition key "key".
type DynamoDBStore struct {
	client    dynamoDBAPI
	tableName string
	logger    *zap.SugaredLogger
}

func NewDynamoDBStore(ctx context.Context, cfg config.DynamoDBConfig, logger *zap.SugaredLogger) (*DynamoDBStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.REGION),
	}
	// A custom endpoint means DynamoDB local, which accepts any credentials
	if cfg.ENDPOINT != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.ENDPOINT != "" {
			o.BaseEndpoint = aws.String(cfg.ENDPOINT)
		}
	})

	return newDynamoDBStore(client, cfg.TABLE, logger), nil
}

func newDynamoDBStore(client dynamoDBAPI, tableName string, logger *zap.SugaredLogger) *DynamoDBStore {
	return &DynamoDBStore{client: client, tableName: tableName, logger: logger}
}

func (ds DynamoDBStore) itemKey(key string) (map[string]types.AttributeValue, error) {
	k, err := attributevalue.MarshalMap(map[string]string{"key": key})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}
	return k, nil
}

func (ds DynamoDBStore) Get(ctx context.Context, key string) (string, error) {
	ds.logger.Debugf("Get dynamodb item by key: %s", key)

	k, err := ds.itemKey(key)
	if err != nil {
		return "", err
	}

	result, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(ds.tableName),
		Key:            k,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return "", ErrNotFound
	}

	var item dynamoDBItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return "", fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item.Value, nil
}

func (ds DynamoDBStore) Put(ctx context.Context, key, value string) error {
	ds.logger.Debugf("Put dynamodb item with key: %s", key)

	if size := itemSize(key, value); size > dynamoDBMaxItemSize {
		return fmt.Errorf("%w: item %s is %d bytes, DynamoDB allows %d", ErrTooLarge, key, size, dynamoDBMaxItemSize)
	}

	av, err := attributevalue.MarshalMap(dynamoDBItem{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return nil
}

func itemSize(key, value string) int {
	return len("key") + len(key) + len("value") + len(value)
}

func (ds DynamoDBStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	ds.logger.Debugf("Scan dynamodb items by prefix: %s", prefix)

	paginator := dynamodb.NewScanPaginator(ds.client, &dynamodb.ScanInput{
		TableName:                aws.String(ds.tableName),
		FilterExpression:         aws.String("begins_with(#k, :prefix)"),
		ExpressionAttributeNames: map[string]string{"#k": "key"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	})

	var entries []Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan DynamoDB table: %w", err)
		}

		var items []dynamoDBItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for _, item := range items {
			entries = append(entries, Entry{Key: item.Key, Value: item.Value})
		}
	}

	return entries, nil
}

func (ds DynamoDBStore) Delete(ctx context.Context, key string) error {
	ds.logger.Debugf("Delete dynamodb item by key: %s", key)

	k, err := ds.itemKey(key)
	if err != nil {
		return err
	}

	_, err = ds.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(ds.tableName),
		Key:       k,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from DynamoDB: %w", err)
	}
	return nil
}

var (
	_ Store = (*DynamoDBStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
