package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		AttendanceSvc  attendance.Service
		RosterSvc      roster.Service
		DisableReqLogs bool

		NowFunc func() time.Time // optional; mockable
	}

	Server interface {
		http.Handler
		Start() error
		Shutdown(context.Context) error
		// ShutdownSignal receives when a handler hit a core shutdown error.
		ShutdownSignal() <-chan struct{}
	}

	server struct {
		opts     Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts Options) Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(opts.Conf, "Conf"),
		vala.IsNotNil(opts.Logger, "Logger"),
		vala.IsNotNil(opts.AttendanceSvc, "AttendanceSvc"),
		vala.IsNotNil(opts.RosterSvc, "RosterSvc"),
	).CheckAndPanic()

	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf.SecretKey)))
	registerAttendanceAPI(v1, s.opts.AttendanceSvc, s.opts.RosterSvc, s.opts.NowFunc)
	registerCalendarAPI(v1, conf, s.opts.NowFunc)
	registerRosterAPI(v1, s.opts.RosterSvc, s.opts.Logger)
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- struct{}{}:
	default:
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ShutdownSignal() <-chan struct{} {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}
