package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/service"
)

// DashboardHandler serves dashboard summaries and payroll estimates
type DashboardHandler struct {
	dashboardService *service.DashboardService
	payrollService   *service.PayrollService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService, payrollService *service.PayrollService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		payrollService:   payrollService,
		logger:           orNop(logger),
	}
}

// HandleDashboard handles /dashboard/stats and /dashboard/approvals
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/dashboard")
	if len(parts) != 1 {
		api.NotFound(w, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		api.MethodNotAllowed(w)
		return
	}

	switch parts[0] {
	case "stats":
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		stats, err := h.dashboardService.Stats(r.Context(), actor)
		if err != nil {
			api.Error(w, h.logger, err)
			return
		}
		api.OK(w, stats, "Dashboard stats retrieved successfully")

	case "approvals":
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		approvals, err := h.dashboardService.PendingApprovals(r.Context(), actor)
		if err != nil {
			api.Error(w, h.logger, err)
			return
		}
		api.OK(w, approvals, "Pending approvals retrieved successfully")

	default:
		api.NotFound(w, "Not found")
	}
}

// HandlePayroll handles GET /payroll/estimate?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *DashboardHandler) HandlePayroll(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/payroll")
	if len(parts) != 1 || parts[0] != "estimate" {
		api.NotFound(w, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		api.MethodNotAllowed(w)
		return
	}

	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	estimate, err := h.payrollService.Estimate(r.Context(), actor, query.Get("start"), query.Get("end"))
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, estimate, "Payroll estimate calculated successfully")
}
