package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"fastmemo/apperror"
	"fastmemo/auth"
	"fastmemo/config"
	"fastmemo/handlers"
	"fastmemo/imagestore"
	"fastmemo/mailer"
	"fastmemo/ratelimit"
	"fastmemo/service"
	"fastmemo/store"
)

const (
	APIPrefix          = "/api/v1"
	MsgTooManyRequests = "Too many requests from this IP, please try again later!"
)

// Deps are the collaborators the server is built from
type Deps struct {
	Config *config.Config
	DB     *sqlx.DB
	Images imagestore.Store
	// Files serves stored images under /images/; nil when the store has no
	// local files.
	Files  http.Handler
	Mailer mailer.Sender
}

// Server owns the router and everything the routes need
type Server struct {
	cfg     *config.Config
	router  *mux.Router
	api     *mux.Router
	gate    *auth.Gate
	limiter *ratelimit.RateLimiter

	health      *handlers.HealthHandler
	authHandler *handlers.AuthHandler
	userHandler *handlers.UserHandler
	noteHandler *handlers.NoteHandler
}

// New wires stores, services and handlers and registers every route
func New(d Deps) *Server {
	cfg := d.Config

	users := store.NewUserStore(d.DB)
	noteStore := store.NewNoteStore(d.DB)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTCookieExpiresIn, cfg.IsProduction())
	authSvc := service.NewAuthService(users, auth.NewHasher(cfg.BcryptCost), issuer, d.Mailer, cfg.PasswordResetTTL)

	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		gate:    auth.NewGate(issuer, users),
		limiter: ratelimit.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),

		health:      handlers.NewHealthHandler(d.DB),
		authHandler: handlers.NewAuthHandler(authSvc, issuer),
		userHandler: handlers.NewUserHandler(service.NewUserService(users, authSvc), d.Images),
		noteHandler: handlers.NewNoteHandler(service.NewNoteService(noteStore), d.Images),
	}
	s.api = s.router.PathPrefix(APIPrefix).Subrouter()

	s.registerRoutes()

	if d.Files != nil {
		s.router.PathPrefix("/images/").Handler(http.StripPrefix("/images/", d.Files))
	}

	notFound := http.HandlerFunc(s.notFound)
	s.router.NotFoundHandler = notFound
	s.router.MethodNotAllowedHandler = notFound
	s.api.NotFoundHandler = notFound
	s.api.MethodNotAllowedHandler = notFound

	return s
}

// Handler is the complete HTTP handler with recovery and access logging
func (s *Server) Handler() http.Handler {
	return recoverer(s.detail(), accessLog(s.router))
}

// Limiter is shared by every rate-limited route
func (s *Server) Limiter() *ratelimit.RateLimiter {
	return s.limiter
}

// Register mounts route under /api/v1
func (s *Server) Register(route Route, h handlers.HandlerFunc) {
	s.api.Handle(route.Path, s.wrap(route, h)).Methods(route.Method).Name(route.Name)
}

// wrap runs the per-route pipeline: rate limit, gate, body limit, handler.
// Errors from any stage are rendered as the error envelope.
func (s *Server) wrap(route Route, h handlers.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := handlers.WithRoute(r.Context(), handlers.RouteInfo{
			Name:   route.Name,
			Method: route.Method,
			Path:   r.URL.Path,
		})
		r = r.WithContext(ctx)

		if route.RateLimited && !s.limiter.Allow(clientIP(r)) {
			s.fail(w, r, apperror.TooManyRequests(MsgTooManyRequests))
			return
		}

		if route.Auth {
			authCtx, err := s.gate.Check(r, route.Roles)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			r = r.WithContext(authCtx)
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit(r))

		if err := h(r.Context(), w, r); err != nil {
			s.fail(w, r, err)
		}
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	handlers.LogError(r.Context(), err)
	apperror.Write(w, err, s.detail())
}

// detail exposes error internals outside production
func (s *Server) detail() bool {
	return !s.cfg.IsProduction()
}

func (s *Server) bodyLimit(r *http.Request) int64 {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return s.cfg.MaxUploadBytes
	}
	return s.cfg.MaxBodyBytes
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	ctx := handlers.WithRoute(r.Context(), handlers.RouteInfo{Name: "NotFound", Method: r.Method, Path: r.URL.Path})
	s.fail(w, r.WithContext(ctx), apperror.NotFound("Can't find "+r.URL.Path+" on this server!"))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
