package models

import "time"

// CardSet represents a named collection of flashcards
type CardSet struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	CardCount   int       `db:"card_count" json:"-"`
	Cards       []Card    `db:"-" json:"cards"`
}

// Card represents a single question/answer flashcard in a set
type Card struct {
	ID        int64     `db:"id" json:"id"`
	SetID     int64     `db:"set_id" json:"-"`
	Question  string    `db:"question" json:"question"`
	Answer    string    `db:"answer" json:"answer"`
	Favorite  bool      `db:"favorite" json:"favorite"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SetRef is the short form of a set shown next to a favorite card
type SetRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// FavoriteCard pairs a favorited card with the set it belongs to
type FavoriteCard struct {
	Card Card   `json:"card"`
	Set  SetRef `json:"set"`
}

// CardPage is one page of a set's cards in browse mode
type CardPage struct {
	Cards      []Card
	Page       int
	PerPage    int
	TotalCards int
}

// TotalPages returns the number of pages, at least 1
func (p CardPage) TotalPages() int {
	if p.PerPage <= 0 || p.TotalCards == 0 {
		return 1
	}
	return (p.TotalCards + p.PerPage - 1) / p.PerPage
}

// HasPrev reports whether a previous page exists
func (p CardPage) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists
func (p CardPage) HasNext() bool {
	return p.Page < p.TotalPages()
}

// FavoriteCount returns how many cards in the set are favorites
func (s CardSet) FavoriteCount() int {
	count := 0
	for _, card := range s.Cards {
		if card.Favorite {
			count++
		}
	}
	return count
}
