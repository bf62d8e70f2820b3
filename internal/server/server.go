// Package server exposes the bookmarklet API and the management frontend
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
	"github.com/mateconpizza/marklet/internal/service"
)

const (
	DefaultAPIAddr      = ":8080"
	DefaultFrontendAddr = ":8081"
	DefaultOrigin       = "http://localhost:8081"

	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

var ErrMissingListener = errors.New("missing listener")

// Service is the set of operations served over HTTP.
type Service interface {
	List(ctx context.Context) ([]*bookmarklet.Item, error)
	Create(ctx context.Context, b *bookmarklet.Item) (int64, error)
	Update(ctx context.Context, id int64, b *bookmarklet.Item) error
	Delete(ctx context.Context, id int64) error
	Selector(ctx context.Context) (*service.Payload, error)
}

// OptFn is an option function for the server.
type OptFn func(*Options)

// Options represents the options for the server.
type Options struct {
	APIAddr         string
	FrontendAddr    string
	AllowedOrigins  []string
	Frontend        bool
	StaticDir       string
	ShutdownTimeout time.Duration
	MaxConns        int
}

// Server holds the API engine and, in split mode, the frontend engine.
type Server struct {
	Options
	svc      Service
	api      *gin.Engine
	frontend *gin.Engine
}

func defaultOpts() Options {
	return Options{
		APIAddr:         DefaultAPIAddr,
		FrontendAddr:    DefaultFrontendAddr,
		AllowedOrigins:  []string{DefaultOrigin},
		Frontend:        true,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// WithAPIAddr sets the API listen address.
func WithAPIAddr(addr string) OptFn {
	return func(o *Options) {
		if addr != "" {
			o.APIAddr = addr
		}
	}
}

// WithFrontendAddr sets the frontend listen address. An empty address, or
// the API address, mounts the frontend on the API listener.
func WithFrontendAddr(addr string) OptFn {
	return func(o *Options) {
		o.FrontendAddr = addr
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) OptFn {
	return func(o *Options) {
		o.AllowedOrigins = cleanOrigins(origins)
	}
}

// WithFrontend enables or disables the management frontend.
func WithFrontend(b bool) OptFn {
	return func(o *Options) {
		o.Frontend = b
	}
}

// WithStaticDir serves frontend assets from dir instead of the embedded
// copy.
func WithStaticDir(dir string) OptFn {
	return func(o *Options) {
		o.StaticDir = dir
	}
}

// WithShutdownTimeout bounds the graceful shutdown.
func WithShutdownTimeout(d time.Duration) OptFn {
	return func(o *Options) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithMaxConns caps simultaneous connections per listener. Zero means no
// limit.
func WithMaxConns(n int) OptFn {
	return func(o *Options) {
		if n >= 0 {
			o.MaxConns = n
		}
	}
}

// New returns a new server.
func New(svc Service, opts ...OptFn) *Server {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}

	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{DefaultOrigin}
	}

	s := &Server{Options: o, svc: svc}
	s.api = s.newEngine()
	s.registerAPI(s.api)

	switch {
	case !o.Frontend:
	case s.SplitMode():
		s.frontend = s.newEngine()
		s.registerFrontend(s.frontend, PublicURL(o.APIAddr))
	default:
		s.registerFrontend(s.api, "")
	}

	return s
}

// SplitMode reports whether the frontend runs on its own listener.
func (s *Server) SplitMode() bool {
	return s.Frontend && s.FrontendAddr != "" && s.FrontendAddr != s.APIAddr
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	return s.api
}

// FrontendHandler returns the frontend handler in split mode, nil otherwise.
func (s *Server) FrontendHandler() http.Handler {
	if s.frontend == nil {
		return nil
	}

	return s.frontend
}

// APIURL returns the URL clients use to reach the API.
func (s *Server) APIURL() string {
	return PublicURL(s.APIAddr)
}

// FrontendURL returns the URL of the management page, empty when the
// frontend is disabled.
func (s *Server) FrontendURL() string {
	switch {
	case !s.Frontend:
		return ""
	case s.SplitMode():
		return PublicURL(s.FrontendAddr)
	default:
		return s.APIURL()
	}
}

func (s *Server) newEngine() *gin.Engine {
	e := gin.New()
	e.Use(recovery(), requestID(), accessLog())

	return e
}

// Listen opens the API listener and, in split mode, the frontend listener.
func (s *Server) Listen() (apiLn, feLn net.Listener, err error) {
	apiLn, err = net.Listen("tcp", s.APIAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("api listener: %w", err)
	}

	if s.frontend != nil {
		feLn, err = net.Listen("tcp", s.FrontendAddr)
		if err != nil {
			_ = apiLn.Close()
			return nil, nil, fmt.Errorf("frontend listener: %w", err)
		}
	}

	return apiLn, feLn, nil
}

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	apiLn, feLn, err := s.Listen()
	if err != nil {
		return err
	}

	return s.Serve(ctx, apiLn, feLn)
}

// Serve serves the API on apiLn and, in split mode, the frontend on feLn. It
// shuts both down gracefully when ctx is done.
func (s *Server) Serve(ctx context.Context, apiLn, feLn net.Listener) error {
	type listener struct {
		name string
		srv  *http.Server
		ln   net.Listener
	}

	if apiLn == nil || (s.frontend != nil && feLn == nil) {
		for _, ln := range []net.Listener{apiLn, feLn} {
			if ln != nil {
				_ = ln.Close()
			}
		}

		if apiLn == nil {
			return fmt.Errorf("%w: api", ErrMissingListener)
		}

		return fmt.Errorf("%w: frontend", ErrMissingListener)
	}

	ls := []listener{{name: "api", srv: s.httpServer(s.api), ln: s.limit(apiLn)}}
	if s.frontend != nil {
		ls = append(ls, listener{name: "frontend", srv: s.httpServer(s.frontend), ln: s.limit(feLn)})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range ls {
		g.Go(func() error {
			slog.Info("server listening", "name", l.name, "addr", l.ln.Addr().String())
			if err := l.srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", l.name, err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, l := range ls {
			if err := l.srv.Shutdown(sctx); err != nil {
				errs = append(errs, fmt.Errorf("%s shutdown: %w", l.name, err))
			}
		}

		slog.Info("servers stopped")

		return errors.Join(errs...)
	})

	return g.Wait()
}

func (s *Server) limit(ln net.Listener) net.Listener {
	if s.MaxConns <= 0 {
		return ln
	}

	return netutil.LimitListener(ln, s.MaxConns)
}

func (s *Server) httpServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// PublicURL turns a listen address into a URL a local browser can open.
func PublicURL(addr string) string {
	if strings.Contains(addr, "://") {
		return strings.TrimRight(addr, "/")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}

	return "http://" + net.JoinHostPort(host, port)
}

func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for _, p := range strings.Split(o, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}

	return out
}
