package activity

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
)

// Handler exposes the activity feed endpoint.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers the activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{kind}/{entityID}", h.ListByEntity)
}

// ListByEntity returns the feed for one record, newest first.
func (h *Handler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())

	kind := EntityKind(chi.URLParam(r, "kind"))
	entityID, err := uuid.Parse(chi.URLParam(r, "entityID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	entries, err := h.repo.ListByEntity(r.Context(), id.OrgID, kind, entityID)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"activities": entries})
}
