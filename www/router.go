package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arpg/bobcat/engine"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	sessions *sessionStore
	eventHub *EventHub
	team     TeamView
}

// NewRouter creates the chi router and returns it along with a stop function.
// team may be nil when the monitor is disabled.
func NewRouter(eng *engine.Engine, team TeamView) (http.Handler, func()) {
	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: NewEventHub(),
		team:     team,
	}

	h.eventHub.Start()
	h.eventHub.SetupEngineListeners(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Read-only views
		r.Get("/state", h.apiState)
		r.Get("/map", h.apiMap)
		r.Get("/events", h.eventHub.HandleSSE)
		r.Get("/deployments", h.apiDeployments)
		r.Get("/team", h.apiTeam)
		r.Get("/team/{id}", h.apiTeamAgent)

		r.Post("/login", h.apiLogin)
		r.Post("/logout", h.apiLogout)

		// Operator commands
		r.Group(func(r chi.Router) {
			r.Use(h.operatorMiddleware)
			r.Post("/task", h.apiTask)
			r.Get("/audit", h.apiAudit)
		})
	})

	return r, func() {
		h.eventHub.Stop()
	}
}
