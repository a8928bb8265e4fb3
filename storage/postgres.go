package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"tender-scraper/models"
	"tender-scraper/utils"
)

const (
	pingAttempts = 10
	pingInterval = 2 * time.Second
)

// PostgresStore persists listings, users and favorites.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if sleepErr := utils.Sleep(ctx, pingInterval); sleepErr != nil {
			err = sleepErr
			break
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := NewPostgresStoreFromDB(db)
	if err := ps.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

// NewPostgresStoreFromDB wraps an existing handle without migrating.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (ps *PostgresStore) Migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenders (
			id          SERIAL PRIMARY KEY,
			source      VARCHAR(50)  NOT NULL,
			title       TEXT         NOT NULL,
			description TEXT         NOT NULL DEFAULT '',
			price       TEXT         NOT NULL DEFAULT '',
			start_date  TEXT         NOT NULL DEFAULT '',
			end_date    TEXT         NOT NULL DEFAULT '',
			url         TEXT         UNIQUE NOT NULL,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_tenders_source ON tenders(source);

		CREATE TABLE IF NOT EXISTS users (
			user_id  BIGINT PRIMARY KEY,
			phone    TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS favorites (
			user_id   BIGINT      NOT NULL,
			tender_id INTEGER     NOT NULL REFERENCES tenders(id) ON DELETE CASCADE,
			saved_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, tender_id)
		);
	`)
	return err
}

// Exists reports whether a listing with this URL was already accepted.
func (ps *PostgresStore) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := ps.db.QueryRowContext(ctx, `SELECT 1 FROM tenders WHERE url = $1`, url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: exists: %w", err)
	}
	return true, nil
}

// InsertIfAbsent stores l unless its URL is already present. It returns true
// only for the call that actually created the row and fills l.ID/CreatedAt.
func (ps *PostgresStore) InsertIfAbsent(ctx context.Context, l *models.Listing) (bool, error) {
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO tenders (source, title, description, price, start_date, end_date, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO NOTHING
		RETURNING id, created_at
	`, string(l.Source), l.Title, l.Description, l.Price, l.StartDate, l.EndDate, l.URL).
		Scan(&l.ID, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: insert: %w", err)
	}
	return true, nil
}

// UpsertUser records or refreshes a chat user.
func (ps *PostgresStore) UpsertUser(ctx context.Context, u models.User) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO users (user_id, phone, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET phone = EXCLUDED.phone, username = EXCLUDED.username
	`, u.ID, u.Phone, u.Username)
	if err != nil {
		return fmt.Errorf("postgres: upsert user: %w", err)
	}
	return nil
}

// NextForUser returns the newest listing of a source the user has not saved,
// or nil when there is none.
func (ps *PostgresStore) NextForUser(ctx context.Context, userID int64, source models.Source) (*models.Listing, error) {
	l := &models.Listing{}
	var src string
	err := ps.db.QueryRowContext(ctx, `
		SELECT id, source, title, description, price, start_date, end_date, url, created_at
		FROM tenders
		WHERE source = $1
		  AND id NOT IN (SELECT tender_id FROM favorites WHERE user_id = $2)
		ORDER BY id DESC
		LIMIT 1
	`, string(source), userID).Scan(
		&l.ID, &src, &l.Title, &l.Description, &l.Price,
		&l.StartDate, &l.EndDate, &l.URL, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: next for user: %w", err)
	}
	l.Source = models.Source(src)
	return l, nil
}

// AddFavorite saves a listing for a user. Saving twice is a no-op.
func (ps *PostgresStore) AddFavorite(ctx context.Context, userID, tenderID int64) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, tender_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, tenderID)
	if err != nil {
		return fmt.Errorf("postgres: add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a saved listing.
func (ps *PostgresStore) RemoveFavorite(ctx context.Context, userID, tenderID int64) error {
	_, err := ps.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND tender_id = $2`, userID, tenderID)
	if err != nil {
		return fmt.Errorf("postgres: remove favorite: %w", err)
	}
	return nil
}

// Favorites lists a user's saved listings, most recently saved first.
func (ps *PostgresStore) Favorites(ctx context.Context, userID int64) ([]models.Favorite, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.price, t.url, t.source, f.saved_at
		FROM favorites f
		JOIN tenders t ON f.tender_id = t.id
		WHERE f.user_id = $1
		ORDER BY f.saved_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: favorites: %w", err)
	}
	defer rows.Close()

	var favs []models.Favorite
	for rows.Next() {
		var f models.Favorite
		var src string
		if err := rows.Scan(&f.TenderID, &f.Title, &f.Price, &f.URL, &src, &f.SavedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan favorite: %w", err)
		}
		f.Source = models.Source(src)
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

// URLByID resolves a listing id to its URL; empty when unknown.
func (ps *PostgresStore) URLByID(ctx context.Context, id int64) (string, error) {
	var url string
	err := ps.db.QueryRowContext(ctx, `SELECT url FROM tenders WHERE id = $1`, id).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("postgres: url by id: %w", err)
	}
	return url, nil
}

// CountBySource returns how many listings each source has contributed.
func (ps *PostgresStore) CountBySource(ctx context.Context) (map[models.Source]int, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM tenders GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Source]int)
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan count: %w", err)
		}
		counts[models.Source(src)] = n
	}
	return counts, rows.Err()
}

// Ping checks the connection.
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
