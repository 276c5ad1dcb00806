package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mdemidovs/secretbin/internal/server/services"
)

type secretRequest struct {
	Content string `json:"content"`
}

type secretResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SharesRefreshed is present on updates only; false means at least one
	// active share still serves the previous content.
	SharesRefreshed *bool `json:"shares_refreshed,omitempty"`
}

func (h *Handler) createSecret(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	secret, err := h.secrets.Create(r.Context(), userIDFromContext(r.Context()), req.Content)
	if err != nil {
		h.logger.Error(r.Context(), "create secret failed", "error", err.Error())
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, secretResponse{
		ID:        secret.ID,
		CreatedAt: secret.CreatedAt,
		UpdatedAt: secret.UpdatedAt,
	})
}

func (h *Handler) listSecrets(w http.ResponseWriter, r *http.Request) {
	items, err := h.secrets.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error(r.Context(), "list secrets failed", "error", err.Error())
		writeServiceError(w, err)
		return
	}

	result := make([]secretResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toSecretResponse(item))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getSecret(w http.ResponseWriter, r *http.Request) {
	item, err := h.secrets.Get(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "secretID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSecretResponse(item))
}

func (h *Handler) updateSecret(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	secret, refreshed, err := h.secrets.Update(r.Context(),
		userIDFromContext(r.Context()), chi.URLParam(r, "secretID"), req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, secretResponse{
		ID:              secret.ID,
		CreatedAt:       secret.CreatedAt,
		UpdatedAt:       secret.UpdatedAt,
		SharesRefreshed: &refreshed,
	})
}

func (h *Handler) deleteSecret(w http.ResponseWriter, r *http.Request) {
	err := h.secrets.Delete(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "secretID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSecretResponse(item *services.SecretContent) secretResponse {
	return secretResponse{
		ID:        item.Secret.ID,
		Content:   item.Content,
		CreatedAt: item.Secret.CreatedAt,
		UpdatedAt: item.Secret.UpdatedAt,
	}
}
