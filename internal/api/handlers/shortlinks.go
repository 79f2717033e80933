package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/nekolators/internal/api/dto"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

// ShortLinksHandler redirects short links to the calculation they share.
type ShortLinksHandler struct {
	*Base
	links *shortlink.Service
}

// NewShortLinksHandler creates a short links handler.
func NewShortLinksHandler(store storage.Store, links *shortlink.Service, baseURL string) *ShortLinksHandler {
	return &ShortLinksHandler{Base: NewBase(store, baseURL), links: links}
}

// Redirect handles GET /s/{code}.
func (h *ShortLinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.links.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, shortlink.ErrInvalidCode) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("short link"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError(err.Error()))
		return
	}

	http.Redirect(w, r, h.baseURL+shortlink.RedirectPath(link), http.StatusFound)
}
