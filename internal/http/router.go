package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

// Router chi mux with the shared middleware stack; every API route sits behind auth.
type Router struct {
	mux     *chi.Mux
	auth    func(http.Handler) http.Handler
	logger  *zap.Logger
	metrics *Metrics
	checks  []healthCheck
}

type healthCheck struct {
	name string
	up   func() bool
}

func NewRouter(authn Authenticator, metrics *Metrics, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(requestLogger(logger))
	mux.Use(metrics.Middleware)

	r := &Router{
		mux:     mux,
		auth:    requireAuth(authn, logger),
		logger:  logger,
		metrics: metrics,
	}
	mux.Get("/health", r.health)
	mux.Handle("/metrics", metrics.Handler())
	return r
}

// AddHealthCheck reports an optional dependency on /health; a down dependency
// marks the service degraded but still answers 200.
func (r *Router) AddHealthCheck(name string, up func() bool) {
	r.checks = append(r.checks, healthCheck{name: name, up: up})
}

func (r *Router) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if len(r.checks) > 0 {
		checks := make(map[string]string, len(r.checks))
		for _, c := range r.checks {
			if c.up() {
				checks[c.name] = "up"
				continue
			}
			checks[c.name] = "down"
			body["status"] = "degraded"
		}
		body["checks"] = checks
	}
	writeJSON(w, http.StatusOK, body)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) group(fn func(chi.Router)) {
	r.mux.Group(func(g chi.Router) {
		g.Use(r.auth)
		fn(g)
	})
}

var (
	providerOnly = requireRole(domain.RoleProvider)
	familyOnly   = requireRole(domain.RoleFamily)
)

// notFamily lets accounts without a resolved role reach the handler (the checker revokes them).
func notFamily(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if callerFrom(req).Role == domain.RoleFamily {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "provider account required"})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) RegisterOnboardingRoutes(h *OnboardingHandler) {
	r.group(func(g chi.Router) {
		g.With(notFamily).Post("/onboarding/check", h.Check)
		g.Route("/onboarding/patient", func(p chi.Router) {
			p.Use(familyOnly)
			p.Post("/start", h.StartPatient)
			p.Post("/save-step", h.SaveStep)
			p.Post("/finalize", h.FinalizePatient)
			p.Post("/cancel", h.CancelPatient)
		})
	})
}

func (r *Router) RegisterContractRoutes(h *ContractsHandler) {
	r.group(func(g chi.Router) {
		g.Get("/contracts", h.List)
		g.With(familyOnly).Post("/contracts/accept", h.Accept)
		g.With(familyOnly).Post("/contracts/decline", h.Decline)
		g.With(familyOnly).Post("/contracts/review", h.Review)
		g.With(providerOnly).Post("/contracts/create", h.Create)
		g.With(providerOnly).Post("/contracts/send", h.Send)
	})
}

func (r *Router) RegisterMatchingRoutes(h *MatchingHandler) {
	r.group(func(g chi.Router) {
		g.Use(familyOnly)
		g.Get("/matching/list", h.List)
		g.Get("/matching/check", h.Check)
	})
}

func (r *Router) RegisterChatRoutes(h *ChatHandler) {
	r.group(func(g chi.Router) {
		g.With(familyOnly).Post("/chat/invite", h.Invite)
		g.Post("/chat/channel", h.Channel)
		g.Get("/chat/channels", h.Channels)
		g.With(providerOnly).Post("/chat/token", h.ProviderToken)
		g.With(familyOnly).Post("/chat/family-token", h.FamilyToken)
	})
}

func (r *Router) RegisterProviderRoutes(h *ProviderHandler) {
	r.group(func(g chi.Router) {
		g.Route("/provider", func(p chi.Router) {
			p.Use(providerOnly)
			p.Get("/profile", h.Profile)
			p.Put("/business-info", h.SaveBusinessInfo)
			p.Put("/services", h.SaveServices)
			p.Put("/strengths", h.SaveStrengths)
			p.Put("/rates", h.SaveRates)
			p.Put("/service-areas", h.SaveServiceAreas)
			p.Get("/documents", h.Documents)
			p.Post("/publish", h.Publish)
			p.Post("/unpublish", h.Unpublish)
		})
	})
}

func (r *Router) RegisterAgencyRoutes(h *AgenciesHandler) {
	r.group(func(g chi.Router) {
		g.Get("/agencies", h.List)
	})
}

func (r *Router) RegisterInvoiceRoutes(h *InvoicesHandler) {
	r.group(func(g chi.Router) {
		g.Get("/invoices", h.List)
		g.With(providerOnly).Post("/invoices/create", h.Create)
		g.With(providerOnly).Get("/invoices/export", h.Export)
	})
}

func (r *Router) RegisterNotificationRoutes(h *NotificationsHandler) {
	r.group(func(g chi.Router) {
		g.Get("/notifications", h.List)
		g.Post("/notifications/create", h.Create)
		g.Post("/notifications/read", h.MarkRead)
	})
}

func (r *Router) RegisterFamilyRoutes(h *FamilyHandler) {
	r.group(func(g chi.Router) {
		g.Route("/family", func(p chi.Router) {
			p.Use(familyOnly)
			p.Get("/profile", h.Profile)
			p.Put("/profile", h.UpdateProfile)
			p.Get("/patients", h.Patients)
		})
	})
}
