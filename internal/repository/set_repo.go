package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"flashforge/internal/database"
	"flashforge/internal/models"
)

// SetRepository handles database operations for card sets
type SetRepository struct {
	db database.DBTX
}

// NewSetRepository creates a new set repository
func NewSetRepository(db database.DBTX) *SetRepository {
	return &SetRepository{db: db}
}

// Create inserts a new card set
func (r *SetRepository) Create(ctx context.Context, title, description string) (*models.CardSet, error) {
	return r.CreateAt(ctx, title, description, time.Now().UTC())
}

// CreateAt inserts a new card set with an explicit creation time, as restores need
func (r *SetRepository) CreateAt(ctx context.Context, title, description string, createdAt time.Time) (*models.CardSet, error) {
	query := "INSERT INTO card_sets (title, description, created_at) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, title, description, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create set: %w", err)
	}

	return &models.CardSet{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   createdAt,
	}, nil
}

// GetByID retrieves a card set without its cards. Returns nil if it doesn't exist.
func (r *SetRepository) GetByID(ctx context.Context, setID int64) (*models.CardSet, error) {
	query := `
		SELECT s.id, s.title, s.description, s.created_at,
			(SELECT COUNT(*) FROM cards c WHERE c.set_id = s.id) AS card_count
		FROM card_sets s
		WHERE s.id = ?
	`
	set := &models.CardSet{}
	err := sqlscan.Get(ctx, r.db, set, query, setID)
	if sqlscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get set: %w", err)
	}
	return set, nil
}

// List retrieves every set, newest first, with card counts
func (r *SetRepository) List(ctx context.Context) ([]models.CardSet, error) {
	query := `
		SELECT s.id, s.title, s.description, s.created_at,
			(SELECT COUNT(*) FROM cards c WHERE c.set_id = s.id) AS card_count
		FROM card_sets s
		ORDER BY s.created_at DESC, s.id DESC
	`
	var sets []models.CardSet
	if err := sqlscan.Select(ctx, r.db, &sets, query); err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	return sets, nil
}

// Delete removes a set and, by cascade, its cards. Reports whether a row was deleted.
func (r *SetRepository) Delete(ctx context.Context, setID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM card_sets WHERE id = ?", setID)
	if err != nil {
		return false, fmt.Errorf("failed to delete set: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check deleted set: %w", err)
	}
	return rows > 0, nil
}
