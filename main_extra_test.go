package main

import (
	"context"
	"errors"
	"testing"
)

func TestSetEnvFromMapError(t *testing.T) {
	originalSetEnv := setEnv
	defer func() { setEnv = originalSetEnv }()
	setEnv = func(key, value string) error { return errors.New("setenv error") }

	if err := setEnvFromMap(map[string]string{"KEY": "value"}); err == nil {
		t.Fatalf("expected error from setEnv")
	}
}

func TestValidatePostgresSecret(t *testing.T) {
	err := validatePostgresSecret(postgresSecret{})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}

	err = validatePostgresSecret(postgresSecret{
		Username:             "user",
		Password:             "pass",
		Engine:               "postgres",
		Host:                 "host",
		DBInstanceIdentifier: "db",
		Port:                 0,
	})
	if err == nil {
		t.Fatalf("expected error for invalid port")
	}

	err = validatePostgresSecret(postgresSecret{
		Username:             "user",
		Password:             "pass",
		Engine:               "postgres",
		Host:                 "host",
		DBInstanceIdentifier: "db",
		Port:                 5432,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLoadPostgresSecretValidationError(t *testing.T) {
	originalGetSecret := getSecret
	getSecret = func(ctx context.Context, name string) (string, error) {
		return `{"username":"","password":"pass","engine":"postgres","host":"localhost","port":5432,"dbInstanceIdentifier":"db"}`, nil
	}
	defer func() { getSecret = originalGetSecret }()

	if _, err := loadPostgresSecret(context.Background()); err == nil {
		t.Fatalf("expected error for invalid secret")
	}
}

func TestLoadProdSecretsSetEnvFailures(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	originalGetSecret := getSecret
	originalSetEnv := setEnv
	getSecret = func(ctx context.Context, name string) (string, error) {
		switch name {
		case "prod/profile":
			return `{"MOBILE_HUB_DYNAMIC_PREFIX":"app-prod"}`, nil
		case "prod/postgres":
			return `{"username":"user","password":"pass","engine":"postgres","host":"localhost","port":5432,"dbInstanceIdentifier":"db"}`, nil
		default:
			return "", errors.New("unknown")
		}
	}
	defer func() {
		getSecret = originalGetSecret
		setEnv = originalSetEnv
	}()

	failKeys := []string{
		"MOBILE_HUB_DYNAMIC_PREFIX",
		"DB_USERNAME",
		"DB_PASSWORD",
		"DB_ENGINE",
		"DB_HOST",
		"DB_PORT",
		"DB_INSTANCE_IDENTIFIER",
	}

	for _, failKey := range failKeys {
		t.Run(failKey, func(t *testing.T) {
			setEnv = func(key, value string) error {
				if key == failKey {
					return errors.New("setenv error")
				}
				return nil
			}

			if err := loadProdSecrets(context.Background()); err == nil {
				t.Fatalf("expected error for key %s", failKey)
			}
		})
	}
}
