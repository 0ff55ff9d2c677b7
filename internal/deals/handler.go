package deals

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
)

// Handler exposes the deal endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the deal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())

	req := ListDealsRequest{
		Stage:   r.URL.Query().Get("stage"),
		Search:  r.URL.Query().Get("search"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
	if v := r.URL.Query().Get("account_id"); v != "" {
		if accountID, err := uuid.Parse(v); err == nil {
			req.AccountID = &accountID
		}
	}

	deals, total, err := h.service.List(r.Context(), id, req)
	if err != nil {
		h.logger.Error("list deals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"deals":      deals,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())

	var req CreateDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	deal, err := h.service.Create(r.Context(), id, req)
	if err != nil {
		h.logger.Error("create deal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, deal)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	dealID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	deal, err := h.service.Get(r.Context(), id, dealID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deal)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	dealID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	var req UpdateDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	deal, err := h.service.Update(r.Context(), id, dealID, req)
	if err != nil {
		h.logger.Error("update deal", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deal)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	dealID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), id, dealID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
