// Package report emails attendance reports to the school administration.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
)

const lowAttendanceTemplate = "low_attendance"

var csvHeader = []string{"student_id", "name", "father_name", "class", "phone", "total_days", "present", "absent", "attendance_rate"}

type (
	LowAttendanceData struct {
		Month     string
		Class     string
		Threshold int
		Students  []attendance.LowAttendanceStudent
	}

	Reporter struct {
		attendance attendance.Service
		mail       core.EmailService
		to         mail.Address
	}
)

func NewReporter(attendanceSvc attendance.Service, mailSvc core.EmailService, to mail.Address) *Reporter {
	vala.BeginValidation().Validate(
		vala.IsNotNil(attendanceSvc, "attendanceSvc"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.StringNotEmpty(to.Address, "to"),
	).CheckAndPanic()

	return &Reporter{attendance: attendanceSvc, mail: mailSvc, to: to}
}

// SendLowAttendance emails the low-attendance roster of month to the recipient, with the list
// attached as CSV. An empty class covers the whole school.
func (r *Reporter) SendLowAttendance(ctx context.Context, month time.Month, year int, class string) (LowAttendanceData, error) {
	students, err := r.attendance.LowAttendance(ctx, month, year, class)
	if err != nil {
		return LowAttendanceData{}, errors.Wrap(err, "computing low attendance")
	}
	data := LowAttendanceData{
		Month:     fmt.Sprintf("%s %d", month, year),
		Class:     class,
		Threshold: attendance.LowAttendanceThreshold,
		Students:  students,
	}
	if data.Class == "" {
		data.Class = attendance.AllClasses
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{r.to},
		Subject:      "Low attendance - " + data.Month,
		TemplateName: lowAttendanceTemplate,
		TemplateData: data,
	}
	if len(students) > 0 {
		var buf bytes.Buffer
		if err := WriteCSV(&buf, students); err != nil {
			return LowAttendanceData{}, err
		}
		filename := fmt.Sprintf("low-attendance-%d-%02d.csv", year, int(month))
		if err := msg.Attach(&buf, filename, "text/csv"); err != nil {
			return LowAttendanceData{}, errors.Wrap(err, "attaching csv")
		}
	}
	return data, errors.Wrap(r.mail.SendMessages(ctx, msg), "sending low attendance report")
}

// WriteCSV writes students with a header row.
func WriteCSV(w io.Writer, students []attendance.LowAttendanceStudent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, s := range students {
		row := []string{
			s.ID, s.Name, s.FatherName, s.Class, s.Phone,
			strconv.Itoa(s.TotalDays), strconv.Itoa(s.Present), strconv.Itoa(s.Absent), strconv.Itoa(s.Rate),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// PreviousMonth returns the calendar month before the one of now, in loc.
func PreviousMonth(now time.Time, loc *time.Location) (time.Month, int) {
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	prev := first.AddDate(0, -1, 0)
	return prev.Month(), prev.Year()
}
