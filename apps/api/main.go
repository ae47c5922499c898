package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/MuhammadFarhanWebDeveloper/attendence-app/apps/api/echo"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
	emailsvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/email"
	logsvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/logger"
	smssvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/sms"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/database"
	boiledrepos "github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/database/sqlboiler"
	sqlxrepos "github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/database/sqlx"
	inmemdb "github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/inmem"
)

const (
	storagePostgres = "postgres"
	storageInmem    = "inmem"
)

type repositories struct {
	attendance attendance.Repository
	students   interface {
		roster.Repository
		attendance.ClassLister
	}
	cache cache.Store
	close func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up storage
	repos, err := setUpStorage(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err := repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "EMAIL : ", log.LstdFlags), conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}
	var smsSvc core.SMSService
	if conf.SMS.GatewayURL == "" {
		smsSvc = smssvc.NewConsoleService(log.New(os.Stdout, "SMS : ", log.LstdFlags))
	} else {
		smsSvc = smssvc.NewGatewayService(conf)
	}

	window, err := attendance.ParseWindow(conf.Attendance.WindowStart, conf.Attendance.WindowEnd)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing submission window: %v", err), err)
	}
	attendanceSvc := attendance.NewService(attendance.Options{
		Repo:            repos.attendance,
		Classes:         repos.students,
		SMS:             smsSvc,
		Logger:          logger,
		Window:          window,
		Location:        conf.Location(),
		CountryCode:     conf.SMS.CountryCode,
		AbsenceMessage:  conf.SMS.AbsenceMessage,
		UseMonthlyStats: conf.Attendance.UseMonthlyStats,
	})
	counts := cache.New(repos.cache, conf.Cache.Namespace, conf.Cache.EnrollmentTTL, logger)
	rosterSvc := roster.NewService(repos.students, counts)
	reporter := report.NewReporter(attendanceSvc, mailSvc, conf.PrincipalEmail())

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	scheduler, err := newScheduler(conf, logger, rosterSvc, reporter)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up scheduler: %v", err), err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.Options{
		Conf:          conf,
		Logger:        logger,
		AttendanceSvc: attendanceSvc,
		RosterSvc:     rosterSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error(fmt.Sprintf("server error: %v", err), err)
		return

	case sig := <-signals:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	case <-server.ShutdownSignal():
		logger.Info("integrity issue: Start shutdown...")
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpStorage(ctx context.Context, conf *core.Config) (*repositories, error) {
	switch conf.Database.Storage {
	case storageInmem:
		db := inmemdb.Open()
		return &repositories{
			attendance: db.Attendance(),
			students:   db.Roster(),
			cache:      db.Cache(),
			close:      func() error { return nil },
		}, nil
	case storagePostgres, "":
		db, err := setUpDB(ctx, conf)
		if err != nil {
			return nil, err
		}
		return &repositories{
			attendance: boiledrepos.NewAttendanceRepository(db),
			students:   boiledrepos.NewStudentRepository(db),
			cache:      sqlxrepos.NewCacheStore(db),
			close:      db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage %q", conf.Database.Storage)
}

func setUpDB(ctx context.Context, conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
