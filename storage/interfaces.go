package storage

import (
	"context"
	"time"

	"tender-scraper/models"
)

// ListingStore is the authoritative record of accepted listings. The URL
// uniqueness constraint is what makes InsertIfAbsent atomic.
type ListingStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	InsertIfAbsent(ctx context.Context, l *models.Listing) (bool, error)
}

// FavoriteStore backs the browsing layer.
type FavoriteStore interface {
	UpsertUser(ctx context.Context, u models.User) error
	NextForUser(ctx context.Context, userID int64, source models.Source) (*models.Listing, error)
	AddFavorite(ctx context.Context, userID, tenderID int64) error
	RemoveFavorite(ctx context.Context, userID, tenderID int64) error
	Favorites(ctx context.Context, userID int64) ([]models.Favorite, error)
	URLByID(ctx context.Context, id int64) (string, error)
}

// SheetWriter appends rows to a named sheet, creating it with header first.
type SheetWriter interface {
	Append(ctx context.Context, sheet string, header []string, row []any) error
}

// Cooldown temporarily parks a source after repeated failures.
type Cooldown interface {
	Block(source models.Source, d time.Duration) error
	Blocked(source models.Source) (bool, error)
	Clear(source models.Source) error
}
