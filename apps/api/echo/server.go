package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahq/darasa/apps/api/echo/handlers"
	"github.com/darasahq/darasa/apps/api/echo/helpers"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
	"github.com/darasahq/darasa/core/progress"
	realtimesvc "github.com/darasahq/darasa/services/realtime"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		EvalSvc       *eval.Service
		CoursewareSvc *courseware.Service
		ProgressRepo  progress.Repository
		Hub           *realtimesvc.Hub
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware())

	s.app.HTTPErrorHandler = helpers.AppHTTPErrorHandler(s.deps.Translator)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/metrics", metricsHandler())

	v1 := s.app.Group("/v1")
	jwt := helpers.JWTMiddleware(conf)

	handlers.RegisterEvaluationAPI(v1, jwt, s.deps.EvalSvc, s.deps.Validate)
	handlers.RegisterProgressAPI(v1, jwt, s.deps.ProgressRepo)
	handlers.RegisterScenarioAPI(v1, jwt, s.deps.CoursewareSvc, s.deps.Validate)
	handlers.RegisterPathwayAPI(v1, jwt, s.deps.CoursewareSvc)
	handlers.RegisterRealtimeAPI(v1, jwt, s.deps.Hub)
}

// Start serves the API and arms the shutdown signal channel. It returns
// immediately; failures surface on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
			s.errors <- err
		}
	}()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
