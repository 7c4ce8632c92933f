package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"flashforge/internal/database"
	"flashforge/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the on-disk backup document. The sets array matches the
// flashcards.json data file layout so either can be imported.
type BackupData struct {
	Version    string      `json:"version,omitempty"`
	ExportedAt time.Time   `json:"exported_at,omitempty"`
	Sets       []SetBackup `json:"sets"`
}

// SetBackup represents a card set with its cards
type SetBackup struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedAt   Timestamp    `json:"created_at"`
	Cards       []CardBackup `json:"cards"`
}

// CardBackup represents a single card
type CardBackup struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Favorite  bool      `json:"favorite"`
	CreatedAt Timestamp `json:"created_at"`
}

// Timestamp is a time that also accepts the zone-less ISO 8601 form
// ("2024-01-15T10:30:00.123456") found in older data files.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes every set and card to w as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		Sets:       []SetBackup{},
	}

	sets, err := repository.NewSetRepository(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export sets: %w", err)
	}
	cardRepo := repository.NewCardRepository(s.db)

	// List is newest first; backups keep creation order.
	for i := len(sets) - 1; i >= 0; i-- {
		set := sets[i]
		cards, err := cardRepo.ListBySet(ctx, set.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export cards of set %d: %w", set.ID, err)
		}

		sb := SetBackup{
			ID:          set.ID,
			Title:       set.Title,
			Description: set.Description,
			CreatedAt:   Timestamp{set.CreatedAt},
			Cards:       make([]CardBackup, 0, len(cards)),
		}
		for _, c := range cards {
			sb.Cards = append(sb.Cards, CardBackup{
				ID:        c.ID,
				Question:  c.Question,
				Answer:    c.Answer,
				Favorite:  c.Favorite,
				CreatedAt: Timestamp{c.CreatedAt},
			})
		}
		backup.Sets = append(backup.Sets, sb)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Info().Int("sets", len(backup.Sets)).Int("cards", backup.CardCount()).Msg("database exported")
	return backup, nil
}

// ExportToFile creates outputPath and exports into it
func (s *BackupService) ExportToFile(ctx context.Context, outputPath string) (*BackupData, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return s.Export(ctx, file)
}

// Import reads a backup from r and inserts its sets and cards as new rows.
// Everything is written in one transaction; a failure leaves the store unchanged.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Info().Str("version", backup.Version).Time("exported_at", backup.ExportedAt).Msg("importing backup")

	now := time.Now().UTC()
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		setRepo := repository.NewSetRepository(tx)
		cardRepo := repository.NewCardRepository(tx)

		for _, sb := range backup.Sets {
			set, err := setRepo.CreateAt(ctx, sb.Title, sb.Description, orNow(sb.CreatedAt.Time, now))
			if err != nil {
				return fmt.Errorf("failed to import set %q: %w", sb.Title, err)
			}
			for _, cb := range sb.Cards {
				if _, err := cardRepo.CreateAt(ctx, set.ID, cb.Question, cb.Answer, cb.Favorite, orNow(cb.CreatedAt.Time, now)); err != nil {
					return fmt.Errorf("failed to import card %d of set %q: %w", cb.ID, sb.Title, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("sets", len(backup.Sets)).Int("cards", backup.CardCount()).Msg("database import completed")
	return &backup, nil
}

// ImportFromFile opens inputPath and imports it
func (s *BackupService) ImportFromFile(ctx context.Context, inputPath string) (*BackupData, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.Import(ctx, file)
}

// Clear deletes every card and set
func (s *BackupService) Clear(ctx context.Context) error {
	// Delete in reverse order of dependencies
	tables := []string{"cards", "card_sets"}

	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Info().Str("table", table).Msg("cleared table")
		}
		return nil
	})
}

// CardCount returns the number of cards across all sets in the backup
func (b *BackupData) CardCount() int {
	n := 0
	for _, set := range b.Sets {
		n += len(set.Cards)
	}
	return n
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
