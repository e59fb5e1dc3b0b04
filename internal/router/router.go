package router

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/api/handler"
	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/metrics"
	"github.com/timetidy/timetidy-service/internal/middleware"
	"github.com/timetidy/timetidy-service/internal/service"
	"github.com/timetidy/timetidy-service/internal/websockets"
)

const healthTimeout = 2 * time.Second

// Config holds what the router needs to build its handlers
type Config struct {
	Services       *service.Services
	Repos          *repository.Repositories
	Hub            *websockets.Hub
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
}

// Router handles HTTP routing
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	cfg     Config
}

// New creates a new router
func New(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Router{
		mux: http.NewServeMux(),
		cfg: cfg,
	}

	// Set up routes
	r.setupRoutes()

	r.handler = middleware.CORS(cfg.AllowedOrigins)(
		middleware.Recovery(cfg.Logger)(
			middleware.Logger(cfg.Logger, cfg.Metrics)(
				r.mux,
			),
		),
	)

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// setupRoutes sets up the routes for the router
func (r *Router) setupRoutes() {
	svc := r.cfg.Services
	logger := r.cfg.Logger

	authHandler := handler.NewAuthHandler(svc.Auth, logger)
	userHandler := handler.NewUserHandler(svc.User, svc.TimeOff, logger)
	shiftHandler := handler.NewShiftHandler(svc.Shift, logger)
	checkInHandler := handler.NewCheckInHandler(svc.CheckIn, logger)
	swapHandler := handler.NewSwapHandler(svc.Swap, logger)
	timeOffHandler := handler.NewTimeOffHandler(svc.TimeOff, logger)
	locationHandler := handler.NewLocationHandler(svc.Location, logger)
	settingsHandler := handler.NewSettingsHandler(svc.Settings, logger)
	dashboardHandler := handler.NewDashboardHandler(svc.Dashboard, svc.Payroll, logger)

	// Public routes
	r.mux.HandleFunc("/api/auth/login", authHandler.HandleLogin)
	r.mux.HandleFunc("/healthz", r.handleHealth)
	if r.cfg.Hub != nil {
		r.mux.Handle("/ws", handler.NewWebSocketHandler(r.cfg.Hub, svc.Auth, r.cfg.AllowedOrigins, logger))
	}
	if r.cfg.Metrics != nil {
		r.mux.Handle("/metrics", r.cfg.Metrics.Handler())
	}

	// Protected routes
	apiHandler := http.NewServeMux()
	apiHandler.HandleFunc("/auth/", authHandler.HandleAuth)
	handleTree(apiHandler, "/users", userHandler.HandleUsers)
	handleTree(apiHandler, "/shifts", shiftHandler.HandleShifts)
	handleTree(apiHandler, "/checkins", checkInHandler.HandleCheckIns)
	handleTree(apiHandler, "/swaps", swapHandler.HandleSwaps)
	handleTree(apiHandler, "/timeoff", timeOffHandler.HandleTimeOff)
	handleTree(apiHandler, "/locations", locationHandler.HandleLocations)
	apiHandler.HandleFunc("/settings", settingsHandler.HandleSettings)
	apiHandler.HandleFunc("/dashboard/", dashboardHandler.HandleDashboard)
	apiHandler.Handle("/dashboard/approvals", restrict(authz.ApproveRequests, dashboardHandler.HandleDashboard))
	apiHandler.Handle("/payroll/", restrict(authz.ManagePayroll, dashboardHandler.HandlePayroll))
	apiHandler.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		api.NotFound(w, "Route not found")
	})

	// Apply authentication to protected routes
	apiChain := middleware.Auth(svc.Auth, logger)(apiHandler)

	r.mux.Handle("/api/", http.StripPrefix("/api", apiChain))
}

// restrict gates fn on the roles allowed to perform action
func restrict(action authz.Action, fn http.HandlerFunc) http.Handler {
	return middleware.RequireRole(authz.Roles(action)...)(fn)
}

// handleTree mounts fn on both the collection path and everything below it
func handleTree(mux *http.ServeMux, prefix string, fn http.HandlerFunc) {
	mux.HandleFunc(prefix, fn)
	mux.HandleFunc(prefix+"/", fn)
}

// handleHealth reports store reachability
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		api.MethodNotAllowed(w)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
	defer cancel()

	if err := r.cfg.Repos.HealthCheck(ctx); err != nil {
		r.cfg.Logger.Warn("Health check failed", zap.Error(err))
		api.Fail(w, http.StatusServiceUnavailable, "Store unavailable", nil)
		return
	}

	api.OK(w, map[string]string{"status": "ok"}, "Service is healthy")
}
