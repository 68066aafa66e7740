package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"profile-service/config"

	_ "github.com/lib/pq" // Postgres driver
)

var openDB = sql.Open

// Connect opens the Postgres pool backing the postgres store backend.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Engine != "postgres" {
		return nil, fmt.Errorf("unsupported database engine: %s", cfg.Engine)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode)

	conn, err := openDB("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Printf("Connected to Postgres host=%s db=%s", cfg.Host, cfg.Name)
	return conn, nil
}
