package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/admission"
	"github.com/smartflows/shule/core/auth"
)

type (
	// ServerDeps holds the Server's dependencies, wired up in main.
	ServerDeps struct {
		Conf         *core.Config
		Logger       core.Logger
		Verifier     auth.Verifier
		Directory    auth.Directory
		Extractor    admission.Extractor
		AdmissionSvc *admission.Service
		Validate     *validator.Validate
		Translator   ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.AllowedOrigins,
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	g := s.app.Group("/api")
	authed := authMiddleware(s.deps.Verifier, conf)

	registerDashboardAPI(g, authed, s.deps)
	registerAdmissionAPI(g, s.deps)
}

// signalShutdown sends a SIGTERM down the shutdown channel to gracefully
// shutdown the server when an unrecoverable error is caught.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Addr()); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Backend running with Firebase!")
}
