package store

import (
	"context"

	"profile-service/models"
)

// ProfileStore is the key-value table holding profile records.
type ProfileStore interface {
	// Query returns every record whose userId equals userID, in store order.
	Query(ctx context.Context, userID string) ([]models.Profile, error)
	// Put replaces the record keyed by the profile's userId.
	Put(ctx context.Context, profile models.Profile) error
	TableName() string
}
