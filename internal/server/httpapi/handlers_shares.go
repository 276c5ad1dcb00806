package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mdemidovs/secretbin/internal/netx"
	"github.com/mdemidovs/secretbin/internal/server/models"
)

// shareResponse exposes share metadata to the owner. The sharing key and the
// re-encrypted content never leave the server; the link alone must suffice.
type shareResponse struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	AccessedAt  *time.Time `json:"accessed_at,omitempty"`
	AccessedIP  *string    `json:"accessed_ip,omitempty"`
	AccessCount int        `json:"access_count"`
	AccessLimit int        `json:"access_limit"`
	Remaining   int        `json:"remaining"`
	IsUsed      bool       `json:"is_used"`
	IsDisabled  bool       `json:"is_disabled"`
	IsExpired   bool       `json:"is_expired"`
	Accessible  bool       `json:"accessible"`
}

type revokeAllResponse struct {
	Revoked int64 `json:"revoked"`
}

type shareAccessResponse struct {
	Content    string    `json:"content"`
	SharedBy   string    `json:"shared_by"`
	AccessedAt time.Time `json:"accessed_at"`
}

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request) {
	share, err := h.shares.Create(r.Context(),
		userIDFromContext(r.Context()), chi.URLParam(r, "secretID"))
	if err != nil {
		h.logger.Error(r.Context(), "create share failed", "error", err.Error())
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toShareResponse(share, time.Now()))
}

func (h *Handler) listShares(w http.ResponseWriter, r *http.Request) {
	shares, err := h.shares.List(r.Context(),
		userIDFromContext(r.Context()), chi.URLParam(r, "secretID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := time.Now()
	result := make([]shareResponse, 0, len(shares))
	for _, share := range shares {
		result = append(result, h.toShareResponse(share, now))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) revokeAllShares(w http.ResponseWriter, r *http.Request) {
	n, err := h.shares.RevokeAll(r.Context(),
		userIDFromContext(r.Context()), chi.URLParam(r, "secretID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revokeAllResponse{Revoked: n})
}

func (h *Handler) revokeShare(w http.ResponseWriter, r *http.Request) {
	err := h.shares.Revoke(r.Context(),
		userIDFromContext(r.Context()), chi.URLParam(r, "shareID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reenableShare(w http.ResponseWriter, r *http.Request) {
	err := h.shares.Reenable(r.Context(),
		userIDFromContext(r.Context()), chi.URLParam(r, "shareID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accessShare is the only unauthenticated endpoint: whoever holds the link
// gets the content, once.
func (h *Handler) accessShare(w http.ResponseWriter, r *http.Request) {
	access, err := h.shares.Access(r.Context(),
		chi.URLParam(r, "token"), netx.ClientIP(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareAccessResponse{
		Content:    access.Content,
		SharedBy:   access.SharedBy,
		AccessedAt: access.AccessedAt,
	})
}

func (h *Handler) toShareResponse(share *models.SecretShare, now time.Time) shareResponse {
	return shareResponse{
		ID:          share.ID,
		URL:         h.baseURL + "/shared-secret/" + share.Token,
		ExpiresAt:   share.ExpiresAt,
		CreatedAt:   share.CreatedAt,
		AccessedAt:  share.AccessedAt,
		AccessedIP:  share.AccessedIP,
		AccessCount: share.AccessCount,
		AccessLimit: share.AccessLimit,
		Remaining:   share.Remaining(),
		IsUsed:      share.IsUsed,
		IsDisabled:  share.IsDisabled,
		IsExpired:   share.IsExpired(now),
		Accessible:  share.Accessible(now),
	}
}
