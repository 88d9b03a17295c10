package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB attribute names.
const (
	dynamoAttrKey       = "pk"
	dynamoAttrValue     = "value"
	dynamoAttrExpiresAt = "expires_at"
	dynamoAttrTTL       = "ttl"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore keeps conversation state in a DynamoDB table keyed by "pk".
// The "ttl" attribute (epoch seconds) should be enabled as the table's TTL attribute
// so DynamoDB reaps abandoned sessions; reads still evict at millisecond precision.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	clock     func() time.Time
}

// NewDynamoStore wraps an existing DynamoDB client.
func NewDynamoStore(api dynamodbAPI, opts ...Option) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("store: dynamodb api must not be nil")
	}
	cfg := applyOptions(opts)
	table := strings.TrimSpace(cfg.TableName)
	if table == "" {
		table = DefaultDynamoTable
	}
	slog.Debug("NewDynamoStore created", "table", table)
	return &DynamoStore{api: api, tableName: table, clock: cfg.Clock}, nil
}

// NewDynamoStoreFromEnv builds a DynamoDB client from the default AWS credential chain.
func NewDynamoStoreFromEnv(ctx context.Context, opts ...Option) (*DynamoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}
	return NewDynamoStore(dynamodb.NewFromConfig(awsCfg), opts...)
}

func (s *DynamoStore) keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoAttrKey: &types.AttributeValueMemberS{Value: key},
	}
}

// Put writes the item unconditionally.
func (s *DynamoStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("put %s: %w", key, ErrInvalidTTL)
	}
	expiresAt := s.clock().Add(ttl)
	// DynamoDB TTL works in whole seconds; round up so native reaping never precedes expiry.
	ttlSeconds := expiresAt.Unix()
	if expiresAt.Nanosecond() > 0 {
		ttlSeconds++
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			dynamoAttrKey:       &types.AttributeValueMemberS{Value: key},
			dynamoAttrValue:     &types.AttributeValueMemberB{Value: value},
			dynamoAttrExpiresAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(toMillis(expiresAt), 10)},
			dynamoAttrTTL:       &types.AttributeValueMemberN{Value: strconv.FormatInt(ttlSeconds, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("store: dynamodb put %s: %w", key, err)
	}
	return nil
}

// Get reads the item with strong consistency and evicts it when expired.
func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: dynamodb get %s: %w", key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, false, nil
	}

	expiresAt, err := numberAttr(out.Item, dynamoAttrExpiresAt)
	if err != nil {
		return nil, false, fmt.Errorf("store: dynamodb get %s: %w", key, err)
	}
	now := toMillis(s.clock())
	if expiresAt <= now {
		if err := s.evict(ctx, key, now); err != nil {
			return nil, false, err
		}
		slog.Debug("DynamoStore.Get evicted expired entry", "key", key)
		return nil, false, nil
	}

	v, ok := out.Item[dynamoAttrValue].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, fmt.Errorf("store: dynamodb get %s: attribute %q is not binary", key, dynamoAttrValue)
	}
	return v.Value, true, nil
}

// evict deletes key only if it is still expired, so a concurrent refresh survives.
func (s *DynamoStore) evict(ctx context.Context, key string, nowMillis int64) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 s.keyAttr(key),
		ConditionExpression: aws.String("#exp <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#exp": dynamoAttrExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(nowMillis, 10)},
		},
	})
	var condErr *types.ConditionalCheckFailedException
	if err != nil && !errors.As(err, &condErr) {
		return fmt.Errorf("store: dynamodb evict %s: %w", key, err)
	}
	return nil
}

// Delete removes the item.
func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.keyAttr(key),
	})
	if err != nil {
		return fmt.Errorf("store: dynamodb delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op: expired items are reaped by the table's native TTL.
func (s *DynamoStore) Close() error {
	return nil
}

func numberAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
