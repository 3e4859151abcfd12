package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessiongate/internal/store"
)

// maxAttempts bounds the throttle retry loop per operation. Anything beyond
// throttling is surfaced on the first attempt.
const maxAttempts = 4

// item is the durable shape of a store.Item in the table.
type item struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	Payload string `dynamodbav:"payload"`
}

// KVStore is a DynamoDB implementation of store.KV. All records live in a
// single table keyed by (PK, SK).
type KVStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewKVStore creates a new DynamoDB key-value store.
func NewKVStore(client *dynamodb.Client, tableName string) *KVStore {
	return &KVStore{
		client:    client,
		tableName: tableName,
	}
}

// Put upserts an item, last-write-wins.
func (s *KVStore) Put(ctx context.Context, it store.Item) error {
	attrs, err := attributevalue.MarshalMap(item{
		PK:      it.PartitionKey,
		SK:      it.SortKey,
		Payload: it.Payload,
	})
	if err != nil {
		return wrapAWSError(err, "failed to marshal item")
	}

	_, err = retryThrottled(ctx, func() (*dynamodb.PutItemOutput, error) {
		out, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      attrs,
		})
		return out, wrapAWSError(err, "failed to put item")
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("partition_key", it.PartitionKey).
		Str("sort_key", it.SortKey).
		Msg("item stored")

	return nil
}

// Get fetches the item at (partitionKey, sortKey).
func (s *KVStore) Get(ctx context.Context, partitionKey, sortKey string) (store.Item, error) {
	result, err := retryThrottled(ctx, func() (*dynamodb.GetItemOutput, error) {
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: partitionKey},
				"SK": &types.AttributeValueMemberS{Value: sortKey},
			},
		})
		return out, wrapAWSError(err, "failed to get item")
	})
	if err != nil {
		return store.Item{}, err
	}

	if result.Item == nil {
		return store.Item{}, store.ErrItemNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return store.Item{}, wrapAWSError(err, "failed to unmarshal item")
	}

	return store.Item{PartitionKey: it.PK, SortKey: it.SK, Payload: it.Payload}, nil
}

// Query returns all items sharing partitionKey, paging through the table as needed.
func (s *KVStore) Query(ctx context.Context, partitionKey string) ([]store.Item, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(partitionKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, wrapAWSError(err, "failed to build query expression")
	}

	var items []store.Item
	var lastKey map[string]types.AttributeValue

	for {
		result, err := retryThrottled(ctx, func() (*dynamodb.QueryOutput, error) {
			out, err := s.client.Query(ctx, &dynamodb.QueryInput{
				TableName:                 aws.String(s.tableName),
				KeyConditionExpression:    expr.KeyCondition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
				ExclusiveStartKey:         lastKey,
			})
			return out, wrapAWSError(err, "failed to query items")
		})
		if err != nil {
			return nil, err
		}

		var page []item
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, wrapAWSError(err, "failed to unmarshal items")
		}
		for _, it := range page {
			items = append(items, store.Item{PartitionKey: it.PK, SortKey: it.SK, Payload: it.Payload})
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	return items, nil
}

// Delete removes the item at (partitionKey, sortKey).
// DynamoDB DeleteItem is a no-op for absent keys, so delete is idempotent.
func (s *KVStore) Delete(ctx context.Context, partitionKey, sortKey string) error {
	_, err := retryThrottled(ctx, func() (*dynamodb.DeleteItemOutput, error) {
		out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: partitionKey},
				"SK": &types.AttributeValueMemberS{Value: sortKey},
			},
		})
		return out, wrapAWSError(err, "failed to delete item")
	})
	return err
}

// retryThrottled retries an operation with exponential backoff while it fails
// with store.ErrThrottled. All other errors stop the loop immediately.
func retryThrottled[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		out, err := op()
		if err != nil && !errors.Is(err, store.ErrThrottled) {
			return out, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxAttempts),
	)
}
