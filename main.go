package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"profile-service/config"
	"profile-service/db"
	"profile-service/handlers"
	"profile-service/middleware"
	"profile-service/routes"
	"profile-service/secretmanager"
	"profile-service/store"
	"profile-service/telemetry"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
)

var (
	loadEnv         = godotenv.Load
	loadConfig      = config.Load
	initTelemetry   = telemetry.Init
	newDynamoClient = db.NewDynamoClient
	connectDB       = db.Connect
	setupRoutes     = routes.SetupRoutes
	listenAndServe  = http.ListenAndServe
	getSecret       = secretmanager.GetSecret
	setEnv          = os.Setenv
	logFatal        = log.Fatal
)

type postgresSecret struct {
	Username             string `json:"username"`
	Password             string `json:"password"`
	Engine               string `json:"engine"`
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	DBInstanceIdentifier string `json:"dbInstanceIdentifier"`
}

func loadSecretMap(ctx context.Context, secretName string) (map[string]string, error) {
	secretJSON, err := getSecret(ctx, secretName)
	if err != nil {
		return nil, err
	}
	secrets := make(map[string]string)
	if err := json.Unmarshal([]byte(secretJSON), &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

func setEnvFromMap(values map[string]string) error {
	for key, value := range values {
		if err := setEnv(key, value); err != nil {
			return fmt.Errorf("error setting %s: %w", key, err)
		}
	}
	return nil
}

func validatePostgresSecret(secret postgresSecret) error {
	if secret.Username == "" || secret.Password == "" || secret.Engine == "" || secret.Host == "" || secret.DBInstanceIdentifier == "" {
		return errors.New("postgres secret is missing required fields")
	}
	if secret.Port <= 0 {
		return fmt.Errorf("invalid postgres port: %d", secret.Port)
	}
	return nil
}

func loadPostgresSecret(ctx context.Context) (postgresSecret, error) {
	raw, err := getSecret(ctx, "prod/postgres")
	if err != nil {
		return postgresSecret{}, fmt.Errorf("error retrieving Postgres secret: %w", err)
	}
	var secret postgresSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return postgresSecret{}, fmt.Errorf("error parsing Postgres secret JSON: %w", err)
	}
	if err := validatePostgresSecret(secret); err != nil {
		return postgresSecret{}, err
	}
	return secret, nil
}

// loadProdSecrets exports the prod/profile secret (table prefix, region) and,
// for the postgres backend, the RDS credentials as environment variables.
func loadProdSecrets(ctx context.Context) error {
	profileSecrets, err := loadSecretMap(ctx, "prod/profile")
	if err != nil {
		return fmt.Errorf("error retrieving profile secret: %w", err)
	}
	if err := setEnvFromMap(profileSecrets); err != nil {
		return err
	}

	if !strings.EqualFold(os.Getenv("STORE_BACKEND"), config.BackendPostgres) {
		return nil
	}

	secret, err := loadPostgresSecret(ctx)
	if err != nil {
		return err
	}
	return setEnvFromMap(map[string]string{
		"DB_USERNAME":            secret.Username,
		"DB_PASSWORD":            secret.Password,
		"DB_ENGINE":              secret.Engine,
		"DB_HOST":                secret.Host,
		"DB_PORT":                fmt.Sprintf("%d", secret.Port),
		"DB_INSTANCE_IDENTIFIER": secret.DBInstanceIdentifier,
	})
}

func newProfileStore(ctx context.Context, cfg config.Config) (store.ProfileStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		conn, err := connectDB(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		pgStore := store.NewPostgresStore(conn, cfg.Store.TableName())
		if err := pgStore.EnsureTable(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return pgStore, func() { closeDB(conn) }, nil
	default:
		client, err := newDynamoClient(ctx, cfg.AWS)
		if err != nil {
			return nil, nil, fmt.Errorf("dynamodb client error: %w", err)
		}
		return store.NewDynamoStore(client, cfg.Store.TableName()), func() {}, nil
	}
}

func closeDB(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		log.Printf("error closing database: %v", err)
	}
}

func main() {
	if err := run(); err != nil {
		logFatal(err)
	}
}

func run() error {
	ctx := context.Background()

	if err := loadEnv(); err != nil {
		log.Println("No .env file found; using system environment variables")
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	log.Println("Environment:", appEnv)

	if appEnv == "prod" {
		if err := loadProdSecrets(ctx); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("telemetry error: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()

	profileStore, closeStore, err := newProfileStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	profileHandler := handlers.NewProfileHandler(profileStore)
	router := setupRoutes(cfg, profileHandler)

	corsOpts := []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", middleware.RequestIDHeader}),
	}
	corsHandler := gorillaHandlers.CORS(corsOpts...)(router)
	handler := telemetry.WrapHandler(middleware.RequestLogger(corsHandler), cfg.Telemetry.ServiceName)

	port := cfg.Port
	if port == "" {
		port = "3000"
	}

	log.Printf("Starting server on port %s in %s environment (backend: %s, table: %s)", port, cfg.AppEnv, cfg.Store.Backend, profileStore.TableName())
	return listenAndServe(":"+port, handler)
}
