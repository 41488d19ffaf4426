package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/auth"
	"github.com/goliatone/go-todos/middleware/jwtware"
	"golang.org/x/time/rate"
)

// Server holds the HTTP handlers and the collaborators they need
type Server struct {
	Debug       bool
	Logger      auth.Logger
	Repo        auth.RepositoryManager
	Auther      *auth.Auther
	Hasher      *auth.BcryptHasher
	Limiter     *IPRateLimiter
	Metrics     *Metrics
	TokenLookup string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ServerOption func(*Server) *Server

func WithLogger(logger auth.Logger) ServerOption {
	return func(s *Server) *Server {
		if logger != nil {
			s.Logger = logger
		}
		return s
	}
}

func WithRepository(repo auth.RepositoryManager) ServerOption {
	return func(s *Server) *Server {
		s.Repo = repo
		return s
	}
}

func WithAuther(auther *auth.Auther) ServerOption {
	return func(s *Server) *Server {
		s.Auther = auther
		return s
	}
}

func WithHasher(hasher *auth.BcryptHasher) ServerOption {
	return func(s *Server) *Server {
		s.Hasher = hasher
		return s
	}
}

// WithLoginRateLimit limits POST /auth/token to perSecond requests per
// client IP with the given burst.
func WithLoginRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) *Server {
		if perSecond <= 0 {
			s.Limiter = nil
			return s
		}
		s.Limiter = NewIPRateLimiter(rate.Limit(perSecond), burst)
		return s
	}
}

func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) *Server {
		s.Metrics = m
		return s
	}
}

// WithTokenLookup sets where protected routes read the access token from,
// e.g. "header:Authorization,cookie:access_token".
func WithTokenLookup(lookup string) ServerOption {
	return func(s *Server) *Server {
		if lookup != "" {
			s.TokenLookup = lookup
		}
		return s
	}
}

func WithDebug(debug bool) ServerOption {
	return func(s *Server) *Server {
		s.Debug = debug
		return s
	}
}

func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		Logger:       auth.NopLogger{},
		Limiter:      NewIPRateLimiter(5, 10),
		TokenLookup:  "header:" + router.HeaderAuthorization,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		s = opt(s)
	}

	if s.Repo == nil {
		panic("Missing RepositoryManager in api server...")
	}

	if s.Auther == nil {
		panic("Missing Auther in api server...")
	}

	if s.Hasher == nil {
		s.Hasher = auth.NewBcryptHasher(0)
	}

	if s.Metrics == nil {
		s.Metrics = NewMetrics()
	}

	return s
}

// Adapter builds the fiber backed router with every route registered. The
// fiber app is returned as well so callers can shut it down or test it.
func (s *Server) Adapter() (router.Server[*fiber.App], *fiber.App) {
	var engine *fiber.App

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		engine = fiber.New(fiber.Config{
			AppName:               "go-todos",
			ErrorHandler:          ErrorHandler(s.Logger),
			ReadTimeout:           s.ReadTimeout,
			WriteTimeout:          s.WriteTimeout,
			DisableStartupMessage: true,
		})

		// these need the final response status, so they run on the engine
		engine.Use(ClientIP())
		engine.Use(RequestLogger(s.Logger))
		engine.Use(s.Metrics.Middleware())
		engine.Use(recover.New())
		engine.Get("/metrics", s.Metrics.Handler())

		return engine
	})

	srv.Router().WithLogger(s.Logger)

	s.Register(srv.Router())

	return srv, engine
}

// App returns the fiber app with every route registered
func (s *Server) App() *fiber.App {
	_, app := s.Adapter()
	return app
}

// Register mounts the routes on r
func (s *Server) Register(r router.Router[*fiber.App]) {
	protected := jwtware.New(jwtware.Config{
		Resolver:    s.Auther,
		TokenLookup: s.TokenLookup,
		ValidationListeners: []jwtware.ValidationListener{
			s.trackPrincipal,
		},
	})

	r.Get("/", s.Hello)

	r.Post("/auth/token", s.LoginPost, RateLimit(s.Limiter))
	r.Post("/auth/refresh_token", s.RefreshPost, protected)

	r.Post("/users", s.CreateUser)
	r.Get("/users", s.ListUsers)
	r.Get("/users/:id", s.GetUser)
	r.Put("/users/:id", s.UpdateUser, protected)
	r.Delete("/users/:id", s.DeleteUser, protected)

	r.Post("/todos", s.CreateTodo, protected)
	r.Get("/todos", s.ListTodos, protected)
	r.Patch("/todos/:id", s.PatchTodo, protected)
	r.Delete("/todos/:id", s.DeleteTodo, protected)
}

func (s *Server) Hello(c router.Context) error {
	return c.JSON(router.StatusOK, MessageResponse{Message: "hello!"})
}

// trackPrincipal runs once a bearer token resolved to a user
func (s *Server) trackPrincipal(c router.Context, user *auth.User) error {
	s.Metrics.ObservePrincipal()
	if s.Debug {
		s.Logger.Debug("request authenticated", "user_id", user.ID, "path", c.Path())
	}
	return nil
}

func (s *Server) currentUser(c router.Context) (*auth.User, error) {
	user, ok := jwtware.CurrentUser(c)
	if !ok {
		return nil, auth.ErrNotAuthenticated
	}
	return user, nil
}

func (s *Server) debug(msg string, payload any) {
	if !s.Debug {
		return
	}
	s.Logger.Debug(msg, "payload", print.MaybePrettyJSON(payload))
}
