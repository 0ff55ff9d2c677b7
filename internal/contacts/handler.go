package contacts

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

// Handler exposes the contact endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the contact routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())

	req := ListContactsRequest{
		Search:  r.URL.Query().Get("search"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
	if v := r.URL.Query().Get("account_id"); v != "" {
		if accountID, err := uuid.Parse(v); err == nil {
			req.AccountID = &accountID
		}
	}

	contacts, total, err := h.service.List(r.Context(), id, req)
	if err != nil {
		h.logger.Error("list contacts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"contacts":   contacts,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())

	var req CreateContactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	contact, err := h.service.Create(r.Context(), id, req)
	if err != nil {
		h.logger.Error("create contact", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contact)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	contact, err := h.service.Get(r.Context(), id, contactID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	var req UpdateContactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	contact, err := h.service.Update(r.Context(), id, contactID, req)
	if err != nil {
		h.logger.Error("update contact", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), id, contactID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
