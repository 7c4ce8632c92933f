package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"flashforge/internal/database"
	"flashforge/internal/models"
	"flashforge/internal/repository"
	"flashforge/internal/study"
	"flashforge/internal/validation"
)

var (
	ErrSetNotFound  = errors.New("set not found")
	ErrCardNotFound = errors.New("card not found")
)

// FlashcardService handles card set business logic
type FlashcardService struct {
	db       *database.DB
	setRepo  *repository.SetRepository
	cardRepo *repository.CardRepository
	limits   validation.Limits
}

// NewFlashcardService creates a new flashcard service
func NewFlashcardService(db *database.DB, limits validation.Limits) *FlashcardService {
	return &FlashcardService{
		db:       db,
		setRepo:  repository.NewSetRepository(db),
		cardRepo: repository.NewCardRepository(db),
		limits:   limits,
	}
}

// ListSets returns every set, newest first
func (s *FlashcardService) ListSets(ctx context.Context) ([]models.CardSet, error) {
	return s.setRepo.List(ctx)
}

// GetSet returns a set with all of its cards
func (s *FlashcardService) GetSet(ctx context.Context, setID int64) (*models.CardSet, error) {
	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrSetNotFound
	}

	cards, err := s.cardRepo.ListBySet(ctx, setID)
	if err != nil {
		return nil, err
	}
	set.Cards = cards
	set.CardCount = len(cards)
	return set, nil
}

// CreateSet validates and stores a new set
func (s *FlashcardService) CreateSet(ctx context.Context, title, description string) (*models.CardSet, error) {
	if err := validation.ValidateSet(title, description, s.limits); err != nil {
		return nil, err
	}

	set, err := s.setRepo.Create(ctx, strings.TrimSpace(title), strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}
	log.Info().Int64("set_id", set.ID).Str("title", set.Title).Msg("created set")
	return set, nil
}

// DeleteSet removes a set and all of its cards
func (s *FlashcardService) DeleteSet(ctx context.Context, setID int64) error {
	deleted, err := s.setRepo.Delete(ctx, setID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSetNotFound
	}
	log.Info().Int64("set_id", setID).Msg("deleted set")
	return nil
}

// AddCard validates and appends a card to a set
func (s *FlashcardService) AddCard(ctx context.Context, setID int64, question, answer string) (*models.Card, error) {
	if err := validation.ValidateCard(question, answer, s.limits); err != nil {
		return nil, err
	}

	var card *models.Card
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		set, err := repository.NewSetRepository(tx).GetByID(ctx, setID)
		if err != nil {
			return err
		}
		if set == nil {
			return ErrSetNotFound
		}
		card, err = repository.NewCardRepository(tx).Create(ctx, setID, strings.TrimSpace(question), strings.TrimSpace(answer))
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int64("set_id", setID).Int64("card_id", card.ID).Msg("added card")
	return card, nil
}

// DeleteCard removes one card from a set
func (s *FlashcardService) DeleteCard(ctx context.Context, setID, cardID int64) error {
	deleted, err := s.cardRepo.Delete(ctx, setID, cardID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCardNotFound
	}
	log.Info().Int64("set_id", setID).Int64("card_id", cardID).Msg("deleted card")
	return nil
}

// ToggleFavorite flips a card's favorite flag and returns the new value.
// The flip and the read-back share a transaction so concurrent toggles
// each observe their own result.
func (s *FlashcardService) ToggleFavorite(ctx context.Context, setID, cardID int64) (bool, error) {
	var favorite bool
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		cards := repository.NewCardRepository(tx)
		found, err := cards.FlipFavorite(ctx, setID, cardID)
		if err != nil {
			return err
		}
		if !found {
			return ErrCardNotFound
		}
		card, err := cards.GetByID(ctx, setID, cardID)
		if err != nil {
			return err
		}
		if card == nil {
			return ErrCardNotFound
		}
		favorite = card.Favorite
		return nil
	})
	if err != nil {
		return false, err
	}
	log.Debug().Int64("set_id", setID).Int64("card_id", cardID).Bool("favorite", favorite).Msg("toggled favorite")
	return favorite, nil
}

// FavoriteCards returns every favorite card with the set it belongs to
func (s *FlashcardService) FavoriteCards(ctx context.Context) ([]models.FavoriteCard, error) {
	return s.cardRepo.ListFavorites(ctx)
}

// FavoriteCount returns the number of favorite cards across all sets
func (s *FlashcardService) FavoriteCount(ctx context.Context) (int, error) {
	return s.cardRepo.CountFavorites(ctx)
}

// Deck returns a set's cards in study order
func (s *FlashcardService) Deck(ctx context.Context, setID int64) ([]study.Card, error) {
	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrSetNotFound
	}

	cards, err := s.cardRepo.ListBySet(ctx, setID)
	if err != nil {
		return nil, err
	}
	return ToDeck(cards), nil
}

// CardPage returns one browse page of a set's cards. Out-of-range pages are
// clamped to the nearest valid page.
func (s *FlashcardService) CardPage(ctx context.Context, setID int64, page, perPage int) (models.CardPage, error) {
	if perPage <= 0 {
		return models.CardPage{}, fmt.Errorf("invalid page size %d", perPage)
	}

	total, err := s.cardRepo.CountBySet(ctx, setID)
	if err != nil {
		return models.CardPage{}, err
	}

	result := models.CardPage{Page: page, PerPage: perPage, TotalCards: total}
	if result.Page > result.TotalPages() {
		result.Page = result.TotalPages()
	}
	if result.Page < 1 {
		result.Page = 1
	}

	cards, err := s.cardRepo.PageBySet(ctx, setID, perPage, (result.Page-1)*perPage)
	if err != nil {
		return models.CardPage{}, err
	}
	result.Cards = cards
	return result, nil
}

// ToDeck converts stored cards to study cards, keeping their order
func ToDeck(cards []models.Card) []study.Card {
	deck := make([]study.Card, 0, len(cards))
	for _, c := range cards {
		deck = append(deck, study.Card{
			ID:       c.ID,
			Question: c.Question,
			Answer:   c.Answer,
			Favorite: c.Favorite,
		})
	}
	return deck
}
