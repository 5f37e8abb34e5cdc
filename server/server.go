// Package server is the presentation layer: a Fiber JSON API plus an
// embedded single-page UI. It owns the session registry and job tracking;
// the flows own all remote-service behavior.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"filesearch/config"
	"filesearch/flow"
	"filesearch/genai"
	"filesearch/logging"
	"filesearch/progress"
	"filesearch/session"
)

// ServiceFactory builds a remote service bound to one session's API key.
// Overridable in tests.
type ServiceFactory func(apiKey string) flow.Service

// Server wires sessions, flows and the HTTP surface together.
type Server struct {
	app        *fiber.App
	cfg        *config.Config
	logger     logging.Logger
	sessions   *session.Store
	jobs       *Jobs
	newService ServiceFactory
}

// Options configure the Server.
type Options struct {
	Logger         logging.Logger
	ServiceFactory ServiceFactory
	Sessions       *session.Store
}

// New constructs the Server and registers all routes.
func New(cfg *config.Config, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
		ServiceFactory: func(apiKey string) flow.Service {
			return genai.NewClient(apiKey)
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(cfg.SessionTTL())
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimit * 1024 * 1024,
	})
	app.Use(cors.New())

	s := &Server{
		app:        app,
		cfg:        cfg,
		logger:     opts.Logger,
		sessions:   opts.Sessions,
		jobs:       NewJobs(opts.Logger),
		newService: opts.ServiceFactory,
	}
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app (used by tests via app.Test).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails.
func (s *Server) Listen() error {
	s.logger.Info("server listening", "addr", s.cfg.Server.Addr)
	return s.app.Listen(s.cfg.Server.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.index)

	api := s.app.Group("/api/v1")
	api.Post("/sessions", s.createSession)
	api.Post("/sessions/:id/key", s.setKey)
	api.Post("/sessions/:id/stores/samples", s.buildFromSamples)
	api.Post("/sessions/:id/stores/empty", s.createEmptyStore)
	api.Post("/sessions/:id/stores/bind", s.bindStore)
	api.Get("/sessions/:id/stores", s.listStores)
	api.Post("/sessions/:id/stores/delete", s.deleteStore)
	api.Post("/sessions/:id/upload", s.upload)
	api.Post("/sessions/:id/ask", s.ask)
	api.Post("/sessions/:id/clear", s.clearHistory)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/jobs/:id", websocket.New(s.streamJob))
}

// service returns a remote service bound to the session's current key. The
// key may still be blank; flows check that precondition before any call.
func (s *Server) service(sess *session.Session) flow.Service {
	return s.newService(sess.Credential())
}

// poller builds an operation poller over svc with the configured pacing.
func (s *Server) poller(svc flow.Service) *progress.Poller {
	return progress.New(svc, func(o *progress.Options) {
		o.Interval = s.cfg.PollInterval()
		o.MaxTicks = s.cfg.Poll.MaxTicks
	})
}

func (s *Server) sessionFromParams(c *fiber.Ctx) (*session.Session, error) {
	return s.sessions.Get(c.Params("id"))
}
