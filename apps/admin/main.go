package main

import (
	"context"
	"log"
	"os"
	"time"

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
)

var logger *log.Logger

func main() {
	conf := core.Conf
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(context.Background(), db))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(logger, conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}
	students := boiledrepos.NewStudentRepository(db)
	attendanceSvc := attendance.NewService(attendance.Options{
		Repo:            boiledrepos.NewAttendanceRepository(db),
		Classes:         students,
		SMS:             smssvc.NewConsoleService(logger),
		Logger:          appLogger,
		Location:        conf.Location(),
		CountryCode:     conf.SMS.CountryCode,
		AbsenceMessage:  conf.SMS.AbsenceMessage,
		UseMonthlyStats: conf.Attendance.UseMonthlyStats,
	})
	counts := cache.New(sqlxrepos.NewCacheStore(db), conf.Cache.Namespace, conf.Cache.EnrollmentTTL, appLogger)

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       db,
		out:      os.Stdout,
		students: students,
		roster:   roster.NewService(students, counts),
		reporter: report.NewReporter(attendanceSvc, mailSvc, conf.PrincipalEmail()),
		nowFunc:  time.Now,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
