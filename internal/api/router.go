// Package api wires the HTTP surface: routing, middleware order, and the
// handler dependencies.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/growthcompass/server/internal/api/handlers"
	"github.com/growthcompass/server/internal/api/middleware"
	"github.com/growthcompass/server/internal/audit"
	"github.com/growthcompass/server/internal/config"
	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
	"github.com/growthcompass/server/internal/metrics"
	"github.com/growthcompass/server/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter assembles the full handler tree. The pool is only used by the
// readiness probe; all data access goes through repo.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, repo storage.Repository) http.Handler {
	usersService := users.NewService(repo.Users(), repo.Sessions(), cfg.Auth.SessionExpiry, cfg.Auth.MinPasswordLength, logger)
	selectionsService := selections.NewService(repo.Selections())
	eventsService := events.NewService(repo.Events())
	auditLogger := audit.NewLogger(logger)

	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	selectionsHandler := handlers.NewSelectionsHandler(selectionsService, cfg.Environment)
	membersHandler := handlers.NewAdminMembersHandler(usersService, auditLogger, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, auditLogger, cfg.Environment)

	authn := middleware.NewAuthenticator(repo.Sessions(), usersService, cfg.Environment)
	limit := middleware.RateLimit(cfg.RateLimit)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	memberTier := middleware.WithRateLimitTierHandler(middleware.TierMember)
	adminTier := middleware.WithRateLimitTierHandler(middleware.TierAdmin)
	sizeDefault := middleware.RequestSize(middleware.DefaultMaxBodySize)
	sizeAdmin := middleware.RequestSize(middleware.AdminMaxBodySize)

	public := func(h http.Handler) http.Handler { return limit(sizeDefault(h)) }
	login := func(h http.Handler) http.Handler { return loginTier(limit(sizeDefault(h))) }
	member := func(h http.Handler) http.Handler { return memberTier(limit(authn.RequireUser(sizeDefault(h)))) }
	admin := func(h http.Handler) http.Handler { return adminTier(limit(authn.RequireAdmin(sizeAdmin(h)))) }

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(authHandler.Register)),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: login(http.HandlerFunc(authHandler.Login)),
	}))
	mux.Handle("/api/v1/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: member(http.HandlerFunc(authHandler.Logout)),
	}))
	mux.Handle("/api/v1/me", methodMux(map[string]http.Handler{
		http.MethodGet: member(http.HandlerFunc(authHandler.Me)),
	}))

	mux.Handle("/api/v1/selections", methodMux(map[string]http.Handler{
		http.MethodGet: member(http.HandlerFunc(selectionsHandler.List)),
		http.MethodPut: member(http.HandlerFunc(selectionsHandler.Set)),
	}))
	mux.Handle("/api/v1/selections/{viewpoint}", methodMux(map[string]http.Handler{
		http.MethodDelete: member(http.HandlerFunc(selectionsHandler.Delete)),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet: member(http.HandlerFunc(eventsHandler.List)),
	}))
	mux.Handle("/api/v1/events/checkin", methodMux(map[string]http.Handler{
		http.MethodPost: member(http.HandlerFunc(eventsHandler.CheckIn)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: member(http.HandlerFunc(eventsHandler.Get)),
	}))
	mux.Handle("/api/v1/events/{id}/questions", methodMux(map[string]http.Handler{
		http.MethodGet:  member(http.HandlerFunc(eventsHandler.ListQuestions)),
		http.MethodPost: admin(http.HandlerFunc(eventsHandler.AddQuestion)),
	}))
	mux.Handle("/api/v1/events/{id}/survey", methodMux(map[string]http.Handler{
		http.MethodPost: member(http.HandlerFunc(eventsHandler.SubmitSurvey)),
	}))
	mux.Handle("/api/v1/events/{id}/answers", methodMux(map[string]http.Handler{
		http.MethodPost: member(http.HandlerFunc(eventsHandler.SubmitAnswers)),
	}))

	mux.Handle("/api/v1/admin/members", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(membersHandler.List)),
	}))
	mux.Handle("/api/v1/admin/members/export.csv", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(membersHandler.ExportCSV)),
	}))
	mux.Handle("/api/v1/admin/members/{id}/role", methodMux(map[string]http.Handler{
		http.MethodPut: admin(http.HandlerFunc(membersHandler.ChangeRole)),
	}))
	mux.Handle("/api/v1/admin/members/{id}", methodMux(map[string]http.Handler{
		http.MethodDelete: admin(http.HandlerFunc(membersHandler.Delete)),
	}))
	mux.Handle("/api/v1/admin/events", methodMux(map[string]http.Handler{
		http.MethodPost: admin(http.HandlerFunc(eventsHandler.Create)),
	}))
	mux.Handle("/api/v1/admin/events/{id}/active", methodMux(map[string]http.Handler{
		http.MethodPut: admin(http.HandlerFunc(eventsHandler.SetActive)),
	}))
	mux.Handle("/api/v1/admin/events/{id}/export.csv", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(eventsHandler.ExportCSV)),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
