package db

import (
	"context"
	"fmt"
	"log"

	"profile-service/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var loadDefaultConfig = awsconfig.LoadDefaultConfig

// NewDynamoClient builds a DynamoDB client for the configured region.
// A non-empty endpoint points the client at DynamoDB Local.
func NewDynamoClient(ctx context.Context, cfg config.AWSConfig) (*dynamodb.Client, error) {
	awsCfg, err := loadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	if cfg.DynamoDBEndpoint != "" {
		log.Printf("DynamoDB client region=%s endpoint=%s", cfg.Region, cfg.DynamoDBEndpoint)
	} else {
		log.Printf("DynamoDB client region=%s", cfg.Region)
	}
	return client, nil
}
