package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian/internal/orgs"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
)

// Handler exposes the auth endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	orgs     orgs.Repository
	validate *validator.Validate
}

// NewHandler constructs a Handler. orgDir may be nil; /auth/me then omits
// the organization block.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, orgDir orgs.Repository) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		orgs:     orgDir,
		validate: validator.New(),
	}
}

// MountRoutes registers the auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User *User `json:"user"`
}

// Login authenticates credentials and binds the session to the user and
// their organization.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetIdentity(shared.Identity{UserID: user.ID, OrgID: user.OrgID})

	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, loginResponse{User: user})
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessions.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the authenticated principal and their organization.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	resp := map[string]any{
		"user_id": id.UserID.String(),
		"org_id":  id.OrgID.String(),
	}
	if h.orgs != nil {
		if org, err := h.orgs.Get(r.Context(), id.OrgID); err == nil {
			resp["organization"] = org
		} else {
			h.logger.Warn("resolve organization", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}
