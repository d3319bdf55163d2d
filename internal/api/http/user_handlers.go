package http

import (
	"net/http"
	"strings"

	"rental-marketplace-backend/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeErrorMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}
	tokens, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// refresh exchanges the bearer refresh token, already checked by the middleware, for a new pair.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.auth.RefreshToken(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	page, size, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := h.notifications.GetNotifications(r.Context(), userID(r), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *Handler) readNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notifications.MarkAsRead(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
