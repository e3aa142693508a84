// Package alertapi exposes the alert record set and admin operations over
// HTTP. Reads are open; mutating endpoints sit behind bearer auth when a
// token is configured.
package alertapi

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/stormwatch/internal/alert"
	"github.com/linnemanlabs/stormwatch/internal/authmw"
	"github.com/linnemanlabs/stormwatch/internal/lifecycle"
)

// Admin defines the lifecycle operations the API mutates through.
type Admin interface {
	SetWorkflow(ctx context.Context, id, action string) (*alert.Record, bool, error)
	Export(ctx context.Context, id string, targets []string) (*alert.Record, bool, error)
}

// Runner triggers a detection run on demand.
type Runner interface {
	Run(ctx context.Context) (*lifecycle.Result, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	store  alert.Store
	admin  Admin
	runner Runner
	token  string
}

// New creates a new API handler. runner may be nil, which disables the run
// trigger endpoint. An empty token leaves the mutating endpoints open.
func New(logger log.Logger, store alert.Store, admin Admin, runner Runner, token string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		panic(xerrors.New("alert store is required"))
	}
	if admin == nil {
		panic(xerrors.New("lifecycle admin is required"))
	}
	return &API{
		logger: logger,
		store:  store,
		admin:  admin,
		runner: runner,
		token:  token,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", a.handleListAlerts)
		r.Get("/alerts/{id}", a.handleGetAlert)
		r.Get("/summary", a.handleSummary)

		r.Group(func(r chi.Router) {
			if a.token != "" {
				r.Use(authmw.BearerToken(a.token))
			}
			r.Post("/alerts/{id}/workflow", a.handleSetWorkflow)
			r.Post("/alerts/{id}/export", a.handleExport)
			r.Post("/runs", a.handleTriggerRun)
		})
	})
}
