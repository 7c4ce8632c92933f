package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"flashforge/internal/database"
	"flashforge/internal/models"
)

const cardColumns = "id, set_id, question, answer, favorite, created_at"

// CardRepository handles database operations for cards
type CardRepository struct {
	db database.DBTX
}

// NewCardRepository creates a new card repository
func NewCardRepository(db database.DBTX) *CardRepository {
	return &CardRepository{db: db}
}

// Create adds a card to a set
func (r *CardRepository) Create(ctx context.Context, setID int64, question, answer string) (*models.Card, error) {
	return r.CreateAt(ctx, setID, question, answer, false, time.Now().UTC())
}

// CreateAt adds a card with explicit favorite flag and creation time
func (r *CardRepository) CreateAt(ctx context.Context, setID int64, question, answer string, favorite bool, createdAt time.Time) (*models.Card, error) {
	query := "INSERT INTO cards (set_id, question, answer, favorite, created_at) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, setID, question, answer, favorite, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	return &models.Card{
		ID:        id,
		SetID:     setID,
		Question:  question,
		Answer:    answer,
		Favorite:  favorite,
		CreatedAt: createdAt,
	}, nil
}

// GetByID retrieves a card within a set. Returns nil if it doesn't exist.
func (r *CardRepository) GetByID(ctx context.Context, setID, cardID int64) (*models.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards WHERE set_id = ? AND id = ?"
	card := &models.Card{}
	err := sqlscan.Get(ctx, r.db, card, query, setID, cardID)
	if sqlscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// ListBySet retrieves all cards of a set in deck order
func (r *CardRepository) ListBySet(ctx context.Context, setID int64) ([]models.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards WHERE set_id = ? ORDER BY id ASC"
	var cards []models.Card
	if err := sqlscan.Select(ctx, r.db, &cards, query, setID); err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	return cards, nil
}

// PageBySet retrieves one window of a set's cards in deck order
func (r *CardRepository) PageBySet(ctx context.Context, setID int64, limit, offset int) ([]models.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards WHERE set_id = ? ORDER BY id ASC LIMIT ? OFFSET ?"
	var cards []models.Card
	if err := sqlscan.Select(ctx, r.db, &cards, query, setID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to query card page: %w", err)
	}
	return cards, nil
}

// CountBySet returns the number of cards in a set
func (r *CardRepository) CountBySet(ctx context.Context, setID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards WHERE set_id = ?", setID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

// Delete removes a card from a set. Reports whether a row was deleted.
func (r *CardRepository) Delete(ctx context.Context, setID, cardID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cards WHERE set_id = ? AND id = ?", setID, cardID)
	if err != nil {
		return false, fmt.Errorf("failed to delete card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check deleted card: %w", err)
	}
	return rows > 0, nil
}

// FlipFavorite inverts a card's favorite flag. Reports whether the card exists.
// Callers read the new value back inside the same transaction.
func (r *CardRepository) FlipFavorite(ctx context.Context, setID, cardID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE cards SET favorite = NOT favorite WHERE set_id = ? AND id = ?", setID, cardID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check toggled card: %w", err)
	}
	return rows > 0, nil
}

type favoriteRow struct {
	models.Card
	SetTitle string `db:"set_title"`
}

// ListFavorites retrieves every favorite card with its set, grouped by set
func (r *CardRepository) ListFavorites(ctx context.Context) ([]models.FavoriteCard, error) {
	query := `
		SELECT c.id, c.set_id, c.question, c.answer, c.favorite, c.created_at, s.title AS set_title
		FROM cards c
		JOIN card_sets s ON s.id = c.set_id
		WHERE c.favorite = ` + r.db.GetDialect().BoolValue(true) + `
		ORDER BY s.title ASC, c.set_id ASC, c.id ASC
	`
	var rows []favoriteRow
	if err := sqlscan.Select(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}

	favorites := make([]models.FavoriteCard, 0, len(rows))
	for _, row := range rows {
		favorites = append(favorites, models.FavoriteCard{
			Card: row.Card,
			Set:  models.SetRef{ID: row.SetID, Title: row.SetTitle},
		})
	}
	return favorites, nil
}

// CountFavorites returns the number of favorite cards across all sets
func (r *CardRepository) CountFavorites(ctx context.Context) (int, error) {
	query := "SELECT COUNT(*) FROM cards WHERE favorite = " + r.db.GetDialect().BoolValue(true)
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}
