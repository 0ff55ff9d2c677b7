package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-crm/meridian/internal/accounts"
	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/contracts"
	"github.com/meridian-crm/meridian/internal/deals"
	"github.com/meridian-crm/meridian/internal/installations"
	"github.com/meridian-crm/meridian/internal/inventory"
	"github.com/meridian-crm/meridian/internal/leads"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/quotes"
	"github.com/meridian-crm/meridian/internal/salesorders"
	"github.com/meridian-crm/meridian/internal/servicereq"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics

	AuthHandler          *auth.Handler
	AccountsHandler      *accounts.Handler
	ContactsHandler      *contacts.Handler
	LeadsHandler         *leads.Handler
	DealsHandler         *deals.Handler
	ServiceReqHandler    *servicereq.Handler
	ContractsHandler     *contracts.Handler
	InstallationsHandler *installations.Handler
	QuotesHandler        *quotes.Handler
	SalesOrdersHandler   *salesorders.Handler
	InventoryHandler     *inventory.Handler
	ActivityHandler      *activity.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/contacts", params.ContactsHandler.MountRoutes)
		r.Route("/leads", params.LeadsHandler.MountRoutes)
		r.Route("/deals", params.DealsHandler.MountRoutes)
		r.Route("/service-requests", params.ServiceReqHandler.MountRoutes)
		r.Route("/contracts", params.ContractsHandler.MountRoutes)
		r.Route("/installations", params.InstallationsHandler.MountRoutes)
		r.Route("/quotes", params.QuotesHandler.MountRoutes)
		r.Route("/sales-orders", params.SalesOrdersHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/activities", params.ActivityHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
