package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"flashforge/internal/cardaction"
	"flashforge/internal/models"
	"flashforge/internal/security"
	"flashforge/internal/service"
	"flashforge/internal/validation"
)

// CardHandler handles card creation and the two card actions
type CardHandler struct {
	flashcards *service.FlashcardService
	middleware *Middleware
	errors     *ErrorPages
	templates  *template.Template
	limits     validation.Limits
}

// NewCardHandler creates a new card handler
func NewCardHandler(flashcards *service.FlashcardService, middleware *Middleware, errors *ErrorPages, templates *template.Template, limits validation.Limits) *CardHandler {
	return &CardHandler{
		flashcards: flashcards,
		middleware: middleware,
		errors:     errors,
		templates:  templates,
		limits:     limits,
	}
}

// NewCardForm shows the add card form
func (h *CardHandler) NewCardForm(w http.ResponseWriter, r *http.Request) {
	set, ok := h.loadSet(w, r)
	if !ok {
		return
	}
	h.renderCardForm(w, r, http.StatusOK, set, "", "", "")
}

// AddCard handles the add card form
func (h *CardHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	set, ok := h.loadSet(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	question := r.FormValue("question")
	answer := r.FormValue("answer")

	_, err := h.flashcards.AddCard(r.Context(), set.ID, question, answer)
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderCardForm(w, r, http.StatusUnprocessableEntity, set, verr.Message, question, answer)
		return
	case errors.Is(err, service.ErrSetNotFound):
		h.middleware.AddFlash(w, r, security.FlashError, MsgSetNotFound)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err != nil:
		h.errors.ServerError(w, r, "Error adding card", err)
		return
	}

	h.middleware.AddFlash(w, r, security.FlashSuccess, MsgCardAdded)
	http.Redirect(w, r, setPath(set.ID), http.StatusSeeOther)
}

func (h *CardHandler) loadSet(w http.ResponseWriter, r *http.Request) (*models.CardSet, bool) {
	setID, ok := pathID(r, "setID")
	if !ok {
		h.errors.NotFound(w, r)
		return nil, false
	}

	set, err := h.flashcards.GetSet(r.Context(), setID)
	if errors.Is(err, service.ErrSetNotFound) {
		h.middleware.AddFlash(w, r, security.FlashError, MsgSetNotFound)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	if err != nil {
		h.errors.ServerError(w, r, "Error loading flashcard set", err)
		return nil, false
	}
	return set, true
}

func (h *CardHandler) renderCardForm(w http.ResponseWriter, r *http.Request, status int, set *models.CardSet, errMsg, question, answer string) {
	data := CardFormViewData{
		BaseViewData: baseView(w, r, h.middleware, h.flashcards, "Add Card - "+AppName),
		Set:          set,
		Error:        errMsg,
		Question:     question,
		Answer:       answer,
		MaxQuestion:  h.limits.MaxQuestionLength,
		MaxAnswer:    h.limits.MaxAnswerLength,
	}
	renderHTML(w, r, h.errors, h.templates, status, "new_card.tmpl", data)
}

// DeleteCard deletes a card and redirects back to its set. Callers asking
// for JSON get {success, message} and a 404 for a missing card instead.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	setID, ok := pathID(r, "setID")
	if !ok {
		h.errors.NotFound(w, r)
		return
	}
	cardID, ok := pathID(r, "cardID")
	if !ok {
		h.errors.NotFound(w, r)
		return
	}

	err := h.flashcards.DeleteCard(r.Context(), setID, cardID)
	if wantsJSON(r) {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			respondWithJSONError(w, r, http.StatusNotFound, MsgCardNotFound, nil)
		case err != nil:
			respondWithJSONError(w, r, http.StatusInternalServerError, "Error deleting card.", err)
		default:
			render.JSON(w, r, map[string]interface{}{"success": true, "message": MsgCardDeleted})
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrCardNotFound):
		h.middleware.AddFlash(w, r, security.FlashError, MsgCardNotFound)
	case err != nil:
		log.Error().Err(err).Int64("set_id", setID).Int64("card_id", cardID).Msg("Error deleting card")
		h.middleware.AddFlash(w, r, security.FlashError, "Error deleting card.")
	default:
		h.middleware.AddFlash(w, r, security.FlashSuccess, MsgCardDeleted)
	}
	http.Redirect(w, r, setPath(setID), http.StatusSeeOther)
}

// ToggleFavorite flips a card's favorite flag. JSON clients get
// {success, favorite, message}; htmx requests get the re-rendered button and
// a showNotification trigger.
func (h *CardHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	setID, okSet := pathID(r, "setID")
	cardID, okCard := pathID(r, "cardID")
	if !okSet || !okCard {
		respondWithJSONError(w, r, http.StatusNotFound, MsgFavoriteNotFound, nil)
		return
	}

	favorite, err := h.flashcards.ToggleFavorite(r.Context(), setID, cardID)
	if errors.Is(err, service.ErrCardNotFound) {
		respondWithJSONError(w, r, http.StatusNotFound, MsgFavoriteNotFound, nil)
		return
	}
	if err != nil {
		respondWithJSONError(w, r, http.StatusInternalServerError, "Error updating favorite status", err)
		return
	}

	message := MsgFavoriteRemoved
	if favorite {
		message = MsgFavoriteAdded
	}

	if isHTMX(r) {
		h.renderFavoriteButton(w, r, setID, cardID, favorite, message)
		return
	}

	render.JSON(w, r, cardaction.FavoriteResult{
		Success:  true,
		Favorite: favorite,
		Message:  message,
	})
}

func (h *CardHandler) renderFavoriteButton(w http.ResponseWriter, r *http.Request, setID, cardID int64, favorite bool, message string) {
	body, err := executeTemplate(h.templates, "favorite_button", map[string]interface{}{
		"SetID":    setID,
		"CardID":   cardID,
		"Favorite": favorite,
	})
	if err != nil {
		respondWithJSONError(w, r, http.StatusInternalServerError, "Error updating favorite status", err)
		return
	}

	// The nav count is swapped out of band; a failed count leaves the old one.
	count, err := h.flashcards.FavoriteCount(r.Context())
	if err == nil {
		var link []byte
		link, err = executeTemplate(h.templates, "favorites_link", map[string]interface{}{
			"Count":   count,
			"SwapOOB": true,
		})
		body = append(body, link...)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Error refreshing favorite count")
	}

	trigger, _ := json.Marshal(map[string]interface{}{
		"showNotification": map[string]string{
			"message": message,
			"kind":    string(cardaction.KindSuccess),
		},
	})
	w.Header().Set("HX-Trigger", string(trigger))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}
