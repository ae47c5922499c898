package main

import (
	"bytes"
	"context"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
	emailsvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/email"
	logsvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/logger"
	smssvc "github.com/MuhammadFarhanWebDeveloper/attendence-app/services/sms"
	inmemdb "github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/inmem"
)

const weekTTL = 7 * 24 * time.Hour

type schedFixture struct {
	conf   *core.Config
	db     *inmemdb.DB
	logs   *bytes.Buffer
	mail   *emailsvc.ConsoleServiceMock
	roster roster.Service
	counts *cache.TTLCache
	now    time.Time
	svc    attendance.Service
	jobs   *jobs
}

func setupJobs(t *testing.T) *schedFixture {
	t.Helper()
	conf := *core.Conf
	conf.Timezone = "UTC"

	f := &schedFixture{conf: &conf, db: inmemdb.Open(), logs: new(bytes.Buffer)}
	f.mail = emailsvc.NewConsoleServiceMock(f.conf)
	logger := logsvc.NewStdLogger(log.New(f.logs, "", 0))

	f.svc = attendance.NewService(attendance.Options{
		Repo:           f.db.Attendance(),
		Classes:        f.db.Roster(),
		SMS:            smssvc.NewServiceMock(),
		Logger:         logger,
		AbsenceMessage: "absent today",
	})
	f.now = time.Date(2025, time.November, 3, 8, 0, 0, 0, time.UTC)
	f.counts = cache.New(f.db.Cache(), conf.Cache.Namespace, conf.Cache.EnrollmentTTL, logger)
	f.counts.NowFunc = func() time.Time { return f.now }
	f.roster = roster.NewService(f.db.Roster(), f.counts)
	reporter := report.NewReporter(f.svc, f.mail, mail.Address{Address: "principal@school.test"})

	f.jobs = &jobs{
		conf:     f.conf,
		logger:   logger,
		roster:   f.roster,
		reporter: reporter,
		nowFunc:  func() time.Time { return time.Date(2025, time.December, 1, 7, 0, 0, 0, time.UTC) },
	}
	return f
}

func Test_newScheduler(t *testing.T) {
	f := setupJobs(t)

	tests := []struct {
		name        string
		purge       string
		report      string
		wantEntries int
		wantErr     bool
	}{
		{name: "both", purge: "@daily", report: "0 7 1 * *", wantEntries: 2},
		{name: "same spec", purge: "@daily", report: "@daily", wantEntries: 2},
		{name: "report disabled", purge: "@every 1h", wantEntries: 1},
		{name: "none", wantEntries: 0},
		{name: "invalid spec", purge: "every day", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := *f.conf
			conf.Schedule.CachePurge = tt.purge
			conf.Schedule.MonthlyReport = tt.report

			c, err := newScheduler(&conf, f.jobs.logger, f.roster, f.jobs.reporter)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Entries(), tt.wantEntries)
		})
	}
}

func Test_jobs_purgeCounts(t *testing.T) {
	f := setupJobs(t)
	ctx := context.Background()
	day0 := f.now
	f.db.Roster().AddStudents(
		roster.Student{ID: "1", Name: "Muhammad Ali", Class: "7th B"},
		roster.Student{ID: "3", Name: "Bilal Ahmed", Class: "8th A"},
	)

	count, err := f.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	require.Equal(t, 1, count.Count)
	f.now = day0.Add(6 * 24 * time.Hour)
	count, err = f.roster.Count(ctx, "8th A")
	require.NoError(t, err)
	require.Equal(t, 1, count.Count)

	f.db.Roster().AddStudents(
		roster.Student{ID: "2", Name: "Ayesha Siddiqui", Class: "7th B"},
		roster.Student{ID: "4", Name: "Sana Khan", Class: "8th A"},
	)

	// a nightly run inside the TTL keeps every entry
	f.now = day0.Add(24 * time.Hour)
	f.jobs.purgeCounts()
	count, err = f.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count, "cached value expected within the TTL")
	assert.Equal(t, "fresh", count.State)

	// once 7th B aged out only its entry goes
	f.now = day0.Add(weekTTL + time.Hour)
	f.jobs.purgeCounts()
	assert.Contains(t, f.logs.String(), "expired student counts pruned")

	_, err = f.db.Cache().GetEntry(ctx, f.counts.Key("7th B"))
	assert.Equal(t, cache.ErrNotFound, err)
	_, err = f.db.Cache().GetEntry(ctx, f.counts.Key("8th A"))
	assert.NoError(t, err)

	count, err = f.roster.Count(ctx, "8th A")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)
	count, err = f.roster.Count(ctx, "7th B")
	require.NoError(t, err)
	assert.Equal(t, 2, count.Count)
}

func Test_defaultSchedule(t *testing.T) {
	conf := core.LoadConfig("SCHEDTEST")

	assert.Equal(t, weekTTL, conf.Cache.EnrollmentTTL)
	assert.Equal(t, "@daily", conf.Schedule.CachePurge)
	assert.Equal(t, "0 7 1 * *", conf.Schedule.MonthlyReport)
}

func Test_jobs_sendMonthlyReport(t *testing.T) {
	f := setupJobs(t)
	ctx := context.Background()

	for _, date := range []string{"2025-11-03", "2025-11-04", "2025-12-01"} {
		_, err := f.svc.Submit(ctx, attendance.NewSubmission{
			Class: "7th B",
			Date:  date,
			Students: []attendance.SubmittedStudent{
				{StudentID: "1", Name: "Muhammad Ali", Status: attendance.StatusAbsent},
				{StudentID: "2", Name: "Ayesha Siddiqui", Status: attendance.StatusPresent},
			},
		})
		require.NoError(t, err)
	}

	f.jobs.sendMonthlyReport()

	sent := f.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Low attendance - November 2025", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "Muhammad Ali")
	assert.NotContains(t, sent[0].TextContent, "Ayesha Siddiqui")
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "low-attendance-2025-11.csv", sent[0].Attachments[0].Filename)
	assert.Contains(t, f.logs.String(), "monthly low attendance report sent")
}

func Test_jobs_sendMonthlyReport_session(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantSent bool
	}{
		{name: "may closes the session", now: time.Date(2026, time.June, 1, 7, 0, 0, 0, time.UTC), wantSent: true},
		{name: "june", now: time.Date(2026, time.July, 1, 7, 0, 0, 0, time.UTC)},
		{name: "august", now: time.Date(2026, time.September, 1, 7, 0, 0, 0, time.UTC)},
		{name: "september", now: time.Date(2026, time.October, 1, 7, 0, 0, 0, time.UTC), wantSent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupJobs(t)
			f.jobs.nowFunc = func() time.Time { return tt.now }

			f.jobs.sendMonthlyReport()

			if tt.wantSent {
				assert.Len(t, f.mail.SentMessages(), 1)
				assert.Contains(t, f.logs.String(), "monthly low attendance report sent")
			} else {
				assert.Empty(t, f.mail.SentMessages())
				assert.Contains(t, f.logs.String(), "monthly low attendance report skipped")
			}
		})
	}
}
