package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"SolBuddy/internal/config"
	"SolBuddy/internal/http-server/handlers/alert"
	"SolBuddy/internal/http-server/handlers/errors"
	"SolBuddy/internal/http-server/handlers/health"
	"SolBuddy/internal/http-server/handlers/key"
	"SolBuddy/internal/http-server/middleware/authenticate"
	"SolBuddy/internal/http-server/middleware/timeout"
	"SolBuddy/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler aggregates everything the alert API needs from the rest of the
// system.
type Handler interface {
	authenticate.Authenticate
	alert.Core
	key.Core
}

// New builds the router and serves it. Blocks until the listener fails.
func New(conf *config.Config, log *slog.Logger, handler Handler, notifier alert.Notifier) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/healthcheck", health.Healthcheck(log))

		// Alert producers authenticate with an API key.
		v1.Group(func(r chi.Router) {
			r.Use(authenticate.New(log, handler))
			r.Post("/test", alert.Test(log, notifier))
			r.Post("/sendWhaleAlerts", alert.Broadcast(log, handler, notifier))
			r.Post("/addressAlert", alert.Address(log, handler, notifier))
			r.Post("/key/new", key.Generate(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
