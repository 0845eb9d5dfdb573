package sizehistory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var _ SizeHistoryTable = (*DynamoSizeHistoryTable)(nil)

// DynamoAPI is the subset of the DynamoDB client used by the table.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DefaultMaxSizeIndexName is the GSI keyed by (bucket_name, size_bytes).
const DefaultMaxSizeIndexName = "MaxSizeIndex"

type DynamoSizeHistoryTable struct {
	client           DynamoAPI
	tableName        string
	maxSizeIndexName string
}

// NewDynamoSizeHistoryTable creates a table client. When maxSizeIndexName is
// empty, MaxSize falls back to reading every sample of the bucket.
func NewDynamoSizeHistoryTable(client DynamoAPI, tableName string, maxSizeIndexName string) *DynamoSizeHistoryTable {
	return &DynamoSizeHistoryTable{client, tableName, maxSizeIndexName}
}

type sampleRecord struct {
	// Partition key
	BucketName string `dynamodbav:"bucket_name"`

	// Sort key: "UNIX_NANO#UNIQUE_ID", UNIX_NANO zero-padded to 20 digits so
	// that lexicographic order is time order.
	SampleKey string `dynamodbav:"sample_key"`

	Timestamp    string `dynamodbav:"timestamp"`
	UnixNano     int64  `dynamodbav:"unix_nano"`
	SizeBytes    uint64 `dynamodbav:"size_bytes"`
	TotalObjects uint64 `dynamodbav:"total_objects"`
}

func newRecord(sample SizeSample) sampleRecord {
	ts := sample.Timestamp.UTC()
	return sampleRecord{
		BucketName:   sample.BucketName,
		SampleKey:    fmt.Sprintf("%s#%s", keyPrefix(ts), uuid.New()),
		Timestamp:    ts.Format(time.RFC3339Nano),
		UnixNano:     ts.UnixNano(),
		SizeBytes:    sample.TotalSize,
		TotalObjects: sample.TotalObjects,
	}
}

func keyPrefix(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}

// keyUpperBound sorts after every sample key with the given timestamp and
// before every key with a later one.
func keyUpperBound(t time.Time) string {
	return keyPrefix(t) + "$"
}

func (d *DynamoSizeHistoryTable) Append(ctx context.Context, sample SizeSample) error {
	if sample.BucketName == "" {
		return errors.New("sample has no bucket name")
	}

	item, err := attributevalue.MarshalMap(newRecord(sample))
	if err != nil {
		return fmt.Errorf("serializing size sample: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sample_key)"),
	})
	if err != nil {
		return fmt.Errorf("storing size sample: %w", err)
	}

	return nil
}

func (d *DynamoSizeHistoryTable) Range(ctx context.Context, bucket string, from time.Time, to time.Time) ([]SizeSample, error) {
	samples := make([]SizeSample, 0)
	if from.After(to) {
		return samples, nil
	}

	var exclusiveStartKey map[string]types.AttributeValue

	// Keep querying until we get all results (handle pagination)
	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(d.tableName),
			KeyConditionExpression: aws.String("#bucket = :bucket AND #key BETWEEN :from AND :to"),
			ExpressionAttributeNames: map[string]string{
				"#bucket": "bucket_name",
				"#key":    "sample_key",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":bucket": &types.AttributeValueMemberS{Value: bucket},
				":from":   &types.AttributeValueMemberS{Value: keyPrefix(from.UTC())},
				":to":     &types.AttributeValueMemberS{Value: keyUpperBound(to.UTC())},
			},
			ScanIndexForward: aws.Bool(true),
		}

		if exclusiveStartKey != nil {
			input.ExclusiveStartKey = exclusiveStartKey
		}

		result, err := d.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("querying size samples for bucket %s: %w", bucket, err)
		}

		for _, item := range result.Items {
			sample, err := d.unmarshalSample(item)
			if err != nil {
				return nil, err
			}
			samples = append(samples, sample)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		exclusiveStartKey = result.LastEvaluatedKey
	}

	return samples, nil
}

// sizeRecord is what a keys-only projection of the max size index carries
// that we care about.
type sizeRecord struct {
	SizeBytes uint64 `dynamodbav:"size_bytes"`
}

func (d *DynamoSizeHistoryTable) MaxSize(ctx context.Context, bucket string) (uint64, error) {
	if d.maxSizeIndexName == "" {
		return d.scanMaxSize(ctx, bucket)
	}

	result, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		IndexName:              aws.String(d.maxSizeIndexName),
		KeyConditionExpression: aws.String("#bucket = :bucket"),
		ExpressionAttributeNames: map[string]string{
			"#bucket": "bucket_name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bucket": &types.AttributeValueMemberS{Value: bucket},
		},
		// descending on size so the first item is the max
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("querying max size for bucket %s: %w", bucket, err)
	}

	if len(result.Items) == 0 {
		return 0, nil
	}

	var record sizeRecord
	if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
		return 0, fmt.Errorf("unmarshaling max size record: %w", err)
	}

	return record.SizeBytes, nil
}

func (d *DynamoSizeHistoryTable) scanMaxSize(ctx context.Context, bucket string) (uint64, error) {
	var (
		maxSize           uint64
		exclusiveStartKey map[string]types.AttributeValue
	)

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(d.tableName),
			KeyConditionExpression: aws.String("#bucket = :bucket"),
			ExpressionAttributeNames: map[string]string{
				"#bucket": "bucket_name",
				"#size":   "size_bytes",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":bucket": &types.AttributeValueMemberS{Value: bucket},
			},
			ProjectionExpression: aws.String("#size"),
		}

		if exclusiveStartKey != nil {
			input.ExclusiveStartKey = exclusiveStartKey
		}

		result, err := d.client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("reading sizes for bucket %s: %w", bucket, err)
		}

		for _, item := range result.Items {
			var record sizeRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return 0, fmt.Errorf("unmarshaling size record: %w", err)
			}
			maxSize = max(maxSize, record.SizeBytes)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		exclusiveStartKey = result.LastEvaluatedKey
	}

	return maxSize, nil
}

func (d *DynamoSizeHistoryTable) unmarshalSample(item map[string]types.AttributeValue) (SizeSample, error) {
	var record sampleRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return SizeSample{}, fmt.Errorf("unmarshaling size sample record: %w", err)
	}

	if record.BucketName == "" {
		return SizeSample{}, fmt.Errorf("size sample record %q has no bucket name", record.SampleKey)
	}

	prefix, _, ok := strings.Cut(record.SampleKey, "#")
	if !ok {
		return SizeSample{}, fmt.Errorf("malformed sample key %q", record.SampleKey)
	}
	unixNano, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return SizeSample{}, fmt.Errorf("parsing sample key %q: %w", record.SampleKey, err)
	}

	return SizeSample{
		BucketName:   record.BucketName,
		Timestamp:    time.Unix(0, unixNano).UTC(),
		TotalSize:    record.SizeBytes,
		TotalObjects: record.TotalObjects,
	}, nil
}
