package handlers

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"flashforge/internal/security"
	"flashforge/internal/service"
	"flashforge/internal/study"
	"flashforge/internal/validation"
)

// Deps is everything the HTTP layer needs
type Deps struct {
	Flashcards   *service.FlashcardService
	Registry     *study.Registry
	Templates    *template.Template
	Sessions     *security.SessionCodec
	CSRF         *security.CSRFGenerator
	Limiter      *security.RateLimiter
	Limits       validation.Limits
	CardsPerPage int
	StudyEnabled bool
	StaticPath   string
}

// NewRouter wires handlers and middleware into a chi router
func NewRouter(d Deps) http.Handler {
	pages := NewErrorPages(d.Templates)
	mw := NewMiddleware(d.Sessions, d.CSRF, d.Limiter, d.StudyEnabled, pages)

	sets := NewSetHandler(d.Flashcards, d.Registry, mw, pages, d.Templates, d.Limits, d.CardsPerPage)
	cards := NewCardHandler(d.Flashcards, mw, pages, d.Templates, d.Limits)
	studies := NewStudyHandler(d.Flashcards, d.Registry, mw, pages, d.Templates, d.CardsPerPage)

	r := chi.NewRouter()
	r.Use(Logging)
	r.Use(chimw.Recoverer)
	r.NotFound(pages.NotFound)

	// Static files
	if d.StaticPath != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticPath))))
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.Session)

		r.Get("/", sets.Home)
		r.Get("/favorites", sets.Favorites)
		r.Get("/csrf-token", sets.CSRFToken)

		r.Get("/set/new", sets.NewSetForm)
		r.With(mw.CSRFProtect).Post("/set/new", sets.CreateSet)
		r.Get("/set/{setID}", sets.ViewSet)
		r.Get("/set/{setID}/cards.json", sets.Deck)
		r.With(mw.CSRFProtect).Post("/set/{setID}/delete", sets.DeleteSet)

		r.Get("/set/{setID}/card/new", cards.NewCardForm)
		r.With(mw.CSRFProtect).Post("/set/{setID}/card/new", cards.AddCard)
		r.With(mw.RateLimit, mw.CSRFProtect).Post("/set/{setID}/card/{cardID}/delete", cards.DeleteCard)
		r.With(mw.RateLimit).Post("/card/{setID}/{cardID}/toggle-favorite", cards.ToggleFavorite)

		r.With(mw.RequireStudyMode, mw.CSRFProtect).Post("/set/{setID}/study/{action}", studies.Action)
	})

	return r
}
