package handlers

import (
	"html/template"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	http.Error(w, userMsg, status)
}

// respondWithJSONError writes the {success:false, message} body the card
// endpoints use for failures
func respondWithJSONError(w http.ResponseWriter, r *http.Request, status int, userMsg string, err error) {
	if err != nil {
		log.Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg(userMsg)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{
		"success": false,
		"message": userMsg,
	})
}

// ErrorPages renders the 404 and 500 templates
type ErrorPages struct {
	templates *template.Template
}

// NewErrorPages creates error page renderers backed by templates
func NewErrorPages(templates *template.Template) *ErrorPages {
	return &ErrorPages{templates: templates}
}

// NotFound renders the 404 page
func (p *ErrorPages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusNotFound, "404.tmpl", "Page Not Found")
}

// ServerError logs err and renders the 500 page
func (p *ErrorPages) ServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(logMsg)
	p.render(w, http.StatusInternalServerError, "500.tmpl", ErrInternalServerErrorUC)
}

func (p *ErrorPages) render(w http.ResponseWriter, status int, name, title string) {
	body, err := executeTemplate(p.templates, name, ErrorViewData{Title: title + " - " + AppName})
	if err != nil {
		respondWithError(w, status, http.StatusText(status), "Error rendering error template", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
