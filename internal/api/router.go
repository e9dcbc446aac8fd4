// Package api is the HTTP surface: routing, middleware and the request wrapper.
package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"jobsapi/internal/crud"
	"jobsapi/internal/metrics"
)

// Controller groups the actions of one resource.
type Controller struct {
	WrapKey string
	Actions map[string]Action
}

// Routes maps version -> "VERB /path" -> "Controller#action".
type Routes map[string]map[string]string

// DefaultRoutes is the published API.
var DefaultRoutes = Routes{
	"1.0": {
		"GET /jobs":        "Job#index",
		"GET /jobs/:id":    "Job#show",
		"POST /jobs":       "Job#create",
		"PUT /jobs/:id":    "Job#update",
		"DELETE /jobs/:id": "Job#remove",
	},
}

type Options struct {
	Provider    crud.Provider
	Log         *logrus.Logger
	Routes      Routes // nil = DefaultRoutes
	JobStatuses []string

	CORSOrigins    []string
	RateLimitRPS   float64 // 0 = off
	RateLimitBurst int
	Metrics        *metrics.Metrics // nil = no /metrics
}

const metricsPath = "/metrics"

// NewRouter builds the engine. A route naming an unknown controller or action
// is an error.
func NewRouter(opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(Recovery(opts.Log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware(metricsPath))
		r.GET(metricsPath, gin.WrapH(opts.Metrics.Handler()))
	}
	r.Use(CORS(opts.CORSOrigins))
	if opts.RateLimitRPS > 0 {
		r.Use(NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, opts.Log).Handler())
	}
	r.Use(JSONBody())
	r.NoRoute(NotFound())

	controllers := map[string]Controller{
		jobModel: NewJobs(opts.JobStatuses).Controller(),
	}
	routes := opts.Routes
	if routes == nil {
		routes = DefaultRoutes
	}
	w := NewWrapper(opts.Provider, opts.Log)
	if err := register(r, w, routes, controllers); err != nil {
		return nil, err
	}
	return r, nil
}

func register(r *gin.Engine, w *Wrapper, routes Routes, controllers map[string]Controller) error {
	versions := make([]string, 0, len(routes))
	for v := range routes {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	for _, version := range versions {
		table := routes[version]
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, route := range keys {
			target := table[route]
			method, path, ok := strings.Cut(strings.TrimSpace(route), " ")
			if !ok {
				return fmt.Errorf("route %q: want \"VERB /path\"", route)
			}
			method = strings.ToUpper(method)
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("route %q: unsupported method", route)
			}
			name, action, ok := strings.Cut(target, "#")
			if !ok {
				return fmt.Errorf("route %q: target %q: want Controller#action", route, target)
			}
			ctrl, ok := controllers[name]
			if !ok {
				return fmt.Errorf("route %q: unknown controller %q", route, name)
			}
			a, ok := ctrl.Actions[action]
			if !ok {
				return fmt.Errorf("route %q: controller %q has no action %q", route, name, action)
			}
			r.Handle(method, "/"+version+strings.TrimSpace(path), w.Wrap(target, ctrl.WrapKey, a))
		}
	}
	return nil
}
