package report_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"log"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/services/email"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/services/logger"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/services/sms"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/inmem"
)

func TestReporter_SendLowAttendance(t *testing.T) {
	db := inmemdb.Open()
	svc := attendance.NewService(attendance.Options{
		Repo:           db.Attendance(),
		Classes:        db.Roster(),
		SMS:            smssvc.NewServiceMock(),
		Logger:         logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)),
		AbsenceMessage: "absent today",
	})
	mailSvc := emailsvc.NewConsoleServiceMock(core.Conf)
	principal := mail.Address{Name: "Principal", Address: "principal@school.test"}
	r := report.NewReporter(svc, mailSvc, principal)
	ctx := context.Background()

	for d := 1; d <= 10; d++ {
		ns := attendance.NewSubmission{Class: "7th B", Date: fmt.Sprintf("2025-11-%02d", d)}
		for i, present := range []bool{d <= 5, true} {
			status := attendance.StatusAbsent
			if present {
				status = attendance.StatusPresent
			}
			ns.Students = append(ns.Students, attendance.SubmittedStudent{
				StudentID: fmt.Sprint(i), Name: fmt.Sprintf("Student %d", i), FatherName: "Father", Status: status,
			})
		}
		_, err := svc.Submit(ctx, ns)
		require.NoError(t, err)
	}

	data, err := r.SendLowAttendance(ctx, time.November, 2025, "")
	require.NoError(t, err)
	assert.Equal(t, "November 2025", data.Month)
	assert.Equal(t, attendance.AllClasses, data.Class)
	require.Len(t, data.Students, 1)
	assert.Equal(t, 50, data.Students[0].Rate)

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, []mail.Address{principal}, msg.To)
	assert.Equal(t, "Low attendance - November 2025", msg.Subject)
	assert.Contains(t, msg.TextContent, "Student 0 s/o Father, 7th B: 50% (5/10 days)")
	assert.Contains(t, msg.HTMLContent, "Student 0")

	require.Len(t, msg.Attachments, 1)
	at := msg.Attachments[0]
	assert.Equal(t, "low-attendance-2025-11.csv", at.Filename)
	assert.Equal(t, "text/csv", at.ContentType)
	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0,Student 0,Father,7th B,,10,5,5,50", lines[1])

	t.Run("nothing to report", func(t *testing.T) {
		data, err := r.SendLowAttendance(ctx, time.December, 2025, "7th B")
		require.NoError(t, err)
		assert.Empty(t, data.Students)
		sent := mailSvc.SentMessages()
		require.Len(t, sent, 2)
		assert.Empty(t, sent[1].Attachments)
		assert.Contains(t, sent[1].TextContent, "No student attended less than 75%")
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := report.WriteCSV(&buf, []attendance.LowAttendanceStudent{
		{ID: "1", Name: "Khan, Ali", Class: "7th B", TotalDays: 20, Present: 12, Absent: 8, Rate: 60},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"student_id,name,father_name,class,phone,total_days,present,absent,attendance_rate\n"+
			"1,\"Khan, Ali\",,7th B,,20,12,8,60\n",
		buf.String())
}

func TestPreviousMonth(t *testing.T) {
	pkt := time.FixedZone("PKT", 5*60*60)
	tests := []struct {
		now       time.Time
		wantMonth time.Month
		wantYear  int
	}{
		{time.Date(2025, time.December, 1, 7, 0, 0, 0, pkt), time.November, 2025},
		{time.Date(2026, time.January, 1, 7, 0, 0, 0, pkt), time.December, 2025},
		{time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC), time.March, 2026}, // April 1st in PKT
	}
	for _, tt := range tests {
		t.Run(tt.now.String(), func(t *testing.T) {
			month, year := report.PreviousMonth(tt.now, pkt)
			assert.Equal(t, tt.wantMonth, month)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}
