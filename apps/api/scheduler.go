package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/academic"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

const jobTimeout = 5 * time.Minute

// cronLogger reports cron events through a core.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvExtras(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvExtras(keysAndValues))
}

func kvExtras(keysAndValues []interface{}) map[string]interface{} {
	extras := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			extras[k] = keysAndValues[i+1]
		}
	}
	return extras
}

type jobs struct {
	conf     *core.Config
	logger   core.Logger
	roster   roster.Service
	reporter *report.Reporter

	nowFunc func() time.Time // mockable
}

// newScheduler schedules the cache purge and the monthly low-attendance report. An empty
// schedule disables its job.
func newScheduler(conf *core.Config, logger core.Logger, rosterSvc roster.Service, reporter *report.Reporter) (*cron.Cron, error) {
	j := &jobs{
		conf:     conf,
		logger:   logger,
		roster:   rosterSvc,
		reporter: reporter,
		nowFunc:  time.Now,
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(conf.Location()),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	entries := []struct {
		name string
		spec string
		job  func()
	}{
		{"cache purge", conf.Schedule.CachePurge, j.purgeCounts},
		{"monthly report", conf.Schedule.MonthlyReport, j.sendMonthlyReport},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := c.AddFunc(e.spec, e.job); err != nil {
			return nil, errors.Wrapf(err, "scheduling %s (%q)", e.name, e.spec)
		}
	}
	return c, nil
}

func (j *jobs) purgeCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.roster.PruneCounts(ctx)
	if err != nil {
		j.logger.Error("pruning expired student counts", err)
		return
	}
	j.logger.Info("expired student counts pruned", map[string]interface{}{"removed": n})
}

func (j *jobs) sendMonthlyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	month, year := report.PreviousMonth(j.nowFunc(), j.conf.Location())
	startYear := academic.SessionStartYear(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	if _, err := academic.Lookup(startYear, month); err != nil {
		j.logger.Info("monthly low attendance report skipped", map[string]interface{}{"reason": err.Error()})
		return
	}
	data, err := j.reporter.SendLowAttendance(ctx, month, year, "")
	if err != nil {
		j.logger.Error("sending monthly low attendance report", err, map[string]interface{}{"month": month, "year": year})
		return
	}
	j.logger.Info("monthly low attendance report sent", map[string]interface{}{
		"month": data.Month, "students": len(data.Students),
	})
}
