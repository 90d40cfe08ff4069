package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/garyfan1/timegate/internal/auth"
	"github.com/garyfan1/timegate/internal/dispatch"
	"github.com/garyfan1/timegate/internal/scheduler"
	"github.com/garyfan1/timegate/internal/store"
)

// API holds the dependencies and the router for the HTTP surface.
// It follows the dependency injection pattern to facilitate testing.
type API struct {
	// Router is the chi multiplexer that handles HTTP requests.
	Router *chi.Mux

	// accounts is the persistence layer for tenant registration and login.
	accounts store.AccountRepository

	// engine runs the scheduling lifecycle (create, lookup, cancel, list).
	engine *scheduler.Engine

	// tokens issues and verifies bearer tokens.
	tokens *auth.Tokens

	// dispatcher backs the internal dispatch route.
	dispatcher *dispatch.Dispatcher

	// logger is the service logger request-scoped loggers derive from.
	logger *slog.Logger

	// bcryptCost is the write-key hashing work factor.
	bcryptCost int

	// dispatchToken guards the internal dispatch route. When empty the
	// route is disabled entirely (embedded substrate deployments invoke
	// the dispatcher in-process).
	dispatchToken string
}

// NewAPI creates the API with all dependencies injected. A nil logger
// falls back to slog.Default().
func NewAPI(accounts store.AccountRepository, engine *scheduler.Engine, tokens *auth.Tokens, dispatcher *dispatch.Dispatcher, logg *slog.Logger, bcryptCost int, dispatchToken string) *API {
	if accounts == nil {
		panic("api: account repository cannot be nil")
	}
	if engine == nil {
		panic("api: scheduler engine cannot be nil")
	}
	if tokens == nil {
		panic("api: token service cannot be nil")
	}
	if logg == nil {
		logg = slog.Default()
	}

	a := &API{
		Router:        chi.NewRouter(),
		accounts:      accounts,
		engine:        engine,
		tokens:        tokens,
		dispatcher:    dispatcher,
		logger:        logg,
		bcryptCost:    bcryptCost,
		dispatchToken: dispatchToken,
	}

	a.configureRoutes()
	return a
}

// configureRoutes registers the global middleware stack and endpoints.
func (a *API) configureRoutes() {
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.RealIP)
	a.Router.Use(RequestLogger(a.logger))
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(render.SetContentType(render.ContentTypeJSON))

	a.Router.Get("/health", a.handleHealthCheck)

	// Registration and login carry their own credentials.
	a.Router.Post("/account", a.handleCreateAccount)
	a.Router.Post("/login", a.handleLogin)

	// Event routes are gated on a verified bearer token.
	a.Router.Route("/events", func(r chi.Router) {
		r.Use(a.authenticate)

		r.Post("/", a.handleCreateEvent)
		r.Get("/", a.handleListEvents)
		r.Get("/{rule_name}", a.handleGetEvent)
		r.Delete("/{rule_name}", a.handleDeleteEvent)
	})

	// Invoked by the substrate, not by end users. Only wired up for
	// deployments that bridge substrate invocations back over HTTP.
	if a.dispatcher != nil && a.dispatchToken != "" {
		a.Router.Post("/internal/dispatch", a.handleDispatch)
	}
}

// handleHealthCheck reports basic HTTP serving capability. Deep dependency
// checks live on the observability server's readiness probe.
func (a *API) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}
