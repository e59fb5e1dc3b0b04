package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/middleware"
	"github.com/timetidy/timetidy-service/internal/models"
)

// staff are the roles allowed to mutate schedules and users
var staff = []models.UserRole{models.RoleAdmin, models.RoleManager}

// segments splits the path below prefix: "/shifts/42/cancel" with prefix
// "/shifts" gives ["42", "cancel"]
func segments(path, prefix string) []string {
	path = strings.TrimPrefix(path, prefix)
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// currentUser returns the authenticated user, writing a 401 when there is none
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "Access token required", nil)
		return nil, false
	}
	return user, true
}

// requireRole gates a route on the caller's role
func requireRole(w http.ResponseWriter, r *http.Request, roles ...models.UserRole) (*models.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if err := authz.RequireRole(user, roles...); err != nil {
		api.Fail(w, http.StatusForbidden, "Insufficient permissions", nil)
		return nil, false
	}
	return user, true
}

// queryParams collects typed query parameters and their parse errors
type queryParams struct {
	values url.Values
	errors map[string][]string
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{values: r.URL.Query(), errors: make(map[string][]string)}
}

func (q *queryParams) String(name string) string {
	return strings.TrimSpace(q.values.Get(name))
}

func (q *queryParams) Date(name string) *time.Time {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		q.errors[name] = append(q.errors[name], "Must be a date in YYYY-MM-DD format")
		return nil
	}
	return &d
}

func (q *queryParams) Bool(name string) *bool {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.errors[name] = append(q.errors[name], "Must be true or false")
		return nil
	}
	return &b
}

// Valid writes a 400 when any parameter failed to parse
func (q *queryParams) Valid(w http.ResponseWriter) bool {
	if len(q.errors) == 0 {
		return true
	}
	api.Fail(w, http.StatusBadRequest, "Validation failed", q.errors)
	return false
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
