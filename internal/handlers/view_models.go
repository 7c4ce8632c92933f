package handlers

import (
	"flashforge/internal/models"
	"flashforge/internal/security"
	"flashforge/internal/study"
)

// BaseViewData is shared by every full page
type BaseViewData struct {
	Title         string
	CSRFToken     string
	Flashes       []security.Flash
	StudyEnabled  bool
	FavoriteCount int
}

type HomeViewData struct {
	BaseViewData
	Sets []models.CardSet
}

type SetFormViewData struct {
	BaseViewData
	Error           string
	FormTitle       string
	FormDescription string
	MaxTitle        int
	MaxDescription  int
}

type CardFormViewData struct {
	BaseViewData
	Set         *models.CardSet
	Error       string
	Question    string
	Answer      string
	MaxQuestion int
	MaxAnswer   int
}

// SetViewData drives the set page: the browse grid and the study panel
type SetViewData struct {
	BaseViewData
	Set      *models.CardSet
	CardPage models.CardPage
	Study    *study.PageState
	Deck     []study.Card
}

type FavoritesViewData struct {
	BaseViewData
	Favorites []models.FavoriteCard
}

type ErrorViewData struct {
	Title string
}
