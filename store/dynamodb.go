package store

import (
	"context"
	"fmt"

	"profile-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "profile-service/store"

type DynamoDBAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type DynamoStore struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoStore(client DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) TableName() string {
	return s.tableName
}

// Query reads a single page; the table holds at most one record per userId.
func (s *DynamoStore) Query(ctx context.Context, userID string) (profiles []models.Profile, err error) {
	ctx, span := s.startSpan(ctx, "dynamodb.Query")
	defer func() { endSpan(span, err) }()

	keyCond := expression.Key(models.UserIDKey).Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	output, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.tableName, err)
	}

	profiles = make([]models.Profile, 0, len(output.Items))
	for _, item := range output.Items {
		record := map[string]interface{}{}
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		profiles = append(profiles, models.Profile(record))
	}
	span.SetAttributes(attribute.Int("aws.dynamodb.count", len(profiles)))
	return profiles, nil
}

func (s *DynamoStore) Put(ctx context.Context, profile models.Profile) (err error) {
	ctx, span := s.startSpan(ctx, "dynamodb.PutItem")
	defer func() { endSpan(span, err) }()

	item, err := attributevalue.MarshalMap(map[string]interface{}(profile))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put into %s: %w", s.tableName, err)
	}
	return nil
}

func (s *DynamoStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "dynamodb"),
			attribute.StringSlice("aws.dynamodb.table_names", []string{s.tableName}),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
