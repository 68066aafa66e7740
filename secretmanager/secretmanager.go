package secretmanager

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var (
	loadDefaultConfig       = config.LoadDefaultConfig
	newSecretsManagerClient = func(cfg aws.Config) secretsManagerAPI {
		return secretsmanager.NewFromConfig(cfg)
	}
)

// GetSecret returns the string value of a Secrets Manager secret. The region
// comes from REGION when set, otherwise from the default AWS chain.
func GetSecret(ctx context.Context, secretName string) (string, error) {
	var opts []func(*config.LoadOptions) error
	if region := os.Getenv("REGION"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := loadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to load AWS config: %w", err)
	}

	output, err := newSecretsManagerClient(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", fmt.Errorf("unable to read secret %s: %w", secretName, err)
	}
	return aws.ToString(output.SecretString), nil
}
