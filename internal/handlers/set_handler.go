package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"flashforge/internal/security"
	"flashforge/internal/service"
	"flashforge/internal/study"
	"flashforge/internal/validation"
)

// SetHandler handles card set pages
type SetHandler struct {
	flashcards   *service.FlashcardService
	registry     *study.Registry
	middleware   *Middleware
	errors       *ErrorPages
	templates    *template.Template
	limits       validation.Limits
	cardsPerPage int
}

// NewSetHandler creates a new set handler
func NewSetHandler(flashcards *service.FlashcardService, registry *study.Registry, middleware *Middleware, errors *ErrorPages, templates *template.Template, limits validation.Limits, cardsPerPage int) *SetHandler {
	return &SetHandler{
		flashcards:   flashcards,
		registry:     registry,
		middleware:   middleware,
		errors:       errors,
		templates:    templates,
		limits:       limits,
		cardsPerPage: cardsPerPage,
	}
}

// Home lists every set
func (h *SetHandler) Home(w http.ResponseWriter, r *http.Request) {
	sets, err := h.flashcards.ListSets(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error loading flashcard sets")
		h.middleware.AddFlash(w, r, security.FlashError, "Error loading flashcard sets.")
	}

	data := HomeViewData{
		BaseViewData: baseView(w, r, h.middleware, h.flashcards, AppName),
		Sets:         sets,
	}
	renderHTML(w, r, h.errors, h.templates, http.StatusOK, "index.tmpl", data)
}

// NewSetForm shows the create set form
func (h *SetHandler) NewSetForm(w http.ResponseWriter, r *http.Request) {
	h.renderSetForm(w, r, http.StatusOK, "", "", "")
}

// CreateSet handles the create set form
func (h *SetHandler) CreateSet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	title := r.FormValue("title")
	description := r.FormValue("description")

	set, err := h.flashcards.CreateSet(r.Context(), title, description)
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderSetForm(w, r, http.StatusUnprocessableEntity, verr.Message, title, description)
		return
	case err != nil:
		h.errors.ServerError(w, r, "Error creating flashcard set", err)
		return
	}

	h.middleware.AddFlash(w, r, security.FlashSuccess, MsgSetCreated)
	http.Redirect(w, r, setPath(set.ID), http.StatusSeeOther)
}

func (h *SetHandler) renderSetForm(w http.ResponseWriter, r *http.Request, status int, errMsg, title, description string) {
	data := SetFormViewData{
		BaseViewData:    baseView(w, r, h.middleware, h.flashcards, "New Set - "+AppName),
		Error:           errMsg,
		FormTitle:       title,
		FormDescription: description,
		MaxTitle:        h.limits.MaxTitleLength,
		MaxDescription:  h.limits.MaxDescriptionLength,
	}
	renderHTML(w, r, h.errors, h.templates, status, "new_set.tmpl", data)
}

// ViewSet shows a set's browse page. Every load starts a fresh study session
// for the visitor, so study state never survives navigation.
func (h *SetHandler) ViewSet(w http.ResponseWriter, r *http.Request) {
	setID, ok := pathID(r, "setID")
	if !ok {
		h.errors.NotFound(w, r)
		return
	}

	set, err := h.flashcards.GetSet(r.Context(), setID)
	if errors.Is(err, service.ErrSetNotFound) {
		h.middleware.AddFlash(w, r, security.FlashError, MsgSetNotFound)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.errors.ServerError(w, r, "Error loading flashcard set", err)
		return
	}

	page, err := h.flashcards.CardPage(r.Context(), setID, queryInt(r, "page", 1), h.cardsPerPage)
	if err != nil {
		h.errors.ServerError(w, r, "Error loading card page", err)
		return
	}

	deck := service.ToDeck(set.Cards)
	var state study.PageState
	h.registry.StartAndDo(study.Key{Visitor: VisitorID(r), SetID: setID}, deck, func(e *study.Entry) {
		state = *e.Page
	})

	data := SetViewData{
		BaseViewData: baseView(w, r, h.middleware, h.flashcards, set.Title+" - "+AppName),
		Set:          set,
		CardPage:     page,
		Study:        &state,
		Deck:         deck,
	}
	renderHTML(w, r, h.errors, h.templates, http.StatusOK, "view_set.tmpl", data)
}

// DeleteSet deletes a set and its cards
func (h *SetHandler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	setID, ok := pathID(r, "setID")
	if !ok {
		h.errors.NotFound(w, r)
		return
	}

	err := h.flashcards.DeleteSet(r.Context(), setID)
	switch {
	case errors.Is(err, service.ErrSetNotFound):
		h.middleware.AddFlash(w, r, security.FlashError, MsgSetNotFound)
	case err != nil:
		log.Error().Err(err).Int64("set_id", setID).Msg("Error deleting flashcard set")
		h.middleware.AddFlash(w, r, security.FlashError, "Error deleting flashcard set.")
	default:
		h.registry.Forget(study.Key{Visitor: VisitorID(r), SetID: setID})
		h.middleware.AddFlash(w, r, security.FlashSuccess, MsgSetDeleted)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Favorites lists every favorite card with its set
func (h *SetHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.flashcards.FavoriteCards(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error loading favorites")
		h.middleware.AddFlash(w, r, security.FlashError, "Error loading favorites.")
	}

	data := FavoritesViewData{
		BaseViewData: baseView(w, r, h.middleware, h.flashcards, "Favorites - "+AppName),
		Favorites:    favorites,
	}
	renderHTML(w, r, h.errors, h.templates, http.StatusOK, "favorites.tmpl", data)
}

// Deck returns a set's cards as JSON in study order
func (h *SetHandler) Deck(w http.ResponseWriter, r *http.Request) {
	setID, ok := pathID(r, "setID")
	if !ok {
		respondWithJSONError(w, r, http.StatusNotFound, MsgSetNotFound, nil)
		return
	}

	deck, err := h.flashcards.Deck(r.Context(), setID)
	if errors.Is(err, service.ErrSetNotFound) {
		respondWithJSONError(w, r, http.StatusNotFound, MsgSetNotFound, nil)
		return
	}
	if err != nil {
		respondWithJSONError(w, r, http.StatusInternalServerError, ErrInternalServerError, err)
		return
	}
	render.JSON(w, r, deck)
}

// CSRFToken returns the CSRF token of the caller's session for non-browser clients
func (h *SetHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"token": h.middleware.CSRFToken(r)})
}

func baseView(w http.ResponseWriter, r *http.Request, m *Middleware, flashcards *service.FlashcardService, title string) BaseViewData {
	count, err := flashcards.FavoriteCount(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Error counting favorites")
	}
	return BaseViewData{
		Title:         title,
		CSRFToken:     m.CSRFToken(r),
		Flashes:       m.TakeFlashes(w, r),
		StudyEnabled:  m.StudyEnabled(),
		FavoriteCount: count,
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.FormValue(name))
	if err != nil {
		return fallback
	}
	return v
}

func setPath(setID int64) string {
	return "/set/" + strconv.FormatInt(setID, 10)
}
