package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"flashforge/internal/service"
	"flashforge/internal/study"
)

var studyActions = map[string]func(*study.Session){
	"toggle":      (*study.Session).Toggle,
	"enter":       (*study.Session).Enter,
	"exit":        (*study.Session).Exit,
	"next":        (*study.Session).Next,
	"previous":    (*study.Session).Previous,
	"flip":        (*study.Session).Flip,
	"unflip":      (*study.Session).Unflip,
	"toggle-flip": (*study.Session).ToggleFlip,
}

// StudyHandler drives the visitor's study session for a set
type StudyHandler struct {
	flashcards   *service.FlashcardService
	registry     *study.Registry
	middleware   *Middleware
	errors       *ErrorPages
	templates    *template.Template
	cardsPerPage int
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(flashcards *service.FlashcardService, registry *study.Registry, middleware *Middleware, errors *ErrorPages, templates *template.Template, cardsPerPage int) *StudyHandler {
	return &StudyHandler{
		flashcards:   flashcards,
		registry:     registry,
		middleware:   middleware,
		errors:       errors,
		templates:    templates,
		cardsPerPage: cardsPerPage,
	}
}

// Action applies one study operation and renders the result. htmx requests
// get only the set body; everything else gets the whole page.
func (h *StudyHandler) Action(w http.ResponseWriter, r *http.Request) {
	setID, ok := pathID(r, "setID")
	if !ok {
		h.errors.NotFound(w, r)
		return
	}
	apply, ok := studyActions[chi.URLParam(r, "action")]
	if !ok {
		h.errors.NotFound(w, r)
		return
	}

	set, err := h.flashcards.GetSet(r.Context(), setID)
	if errors.Is(err, service.ErrSetNotFound) {
		h.errors.NotFound(w, r)
		return
	}
	if err != nil {
		h.errors.ServerError(w, r, "Error loading flashcard set", err)
		return
	}

	key := study.Key{Visitor: VisitorID(r), SetID: setID}
	var state study.PageState
	run := func(e *study.Entry) {
		apply(e.Session)
		state = *e.Page
	}
	// An expired or never-started session is rebuilt from the stored deck,
	// as a page load would.
	if !h.registry.Do(key, run) {
		h.registry.StartAndDo(key, service.ToDeck(set.Cards), run)
	}

	page, err := h.flashcards.CardPage(r.Context(), setID, queryInt(r, "page", 1), h.cardsPerPage)
	if err != nil {
		h.errors.ServerError(w, r, "Error loading card page", err)
		return
	}

	data := SetViewData{
		Set:      set,
		CardPage: page,
		Study:    &state,
		Deck:     service.ToDeck(set.Cards),
	}
	if isHTMX(r) {
		data.BaseViewData = BaseViewData{
			CSRFToken:    h.middleware.CSRFToken(r),
			StudyEnabled: h.middleware.StudyEnabled(),
		}
		renderHTML(w, r, h.errors, h.templates, http.StatusOK, "set_body", data)
		return
	}

	data.BaseViewData = baseView(w, r, h.middleware, h.flashcards, set.Title+" - "+AppName)
	renderHTML(w, r, h.errors, h.templates, http.StatusOK, "view_set.tmpl", data)
}
