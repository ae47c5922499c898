package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	pkgerrors "github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/academic"
)

var (
	// errors
	ErrNoStudents = errors.New("no students to record")

	defaultOrdering = []core.DBOrdering{
		{Field: "date", Ascending: false},
		{Field: "class", Ascending: true},
		{Field: "name", Ascending: true},
	}
)

type (
	Repository interface {
		// InsertRecords stores records in one transaction. Records whose (StudentID, Date) already
		// exists are skipped. The monthly stats of the inserted records are updated in the same
		// transaction. It returns the records actually inserted.
		InsertRecords(ctx context.Context, records []Record) ([]Record, error)
		// QueryRecords applies AND on the non-empty QueryFilter fields.
		QueryRecords(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		CountRecords(ctx context.Context, filter QueryFilter) (total, present int, err error)
		// QueryMonthlyStats returns every class when class is empty.
		QueryMonthlyStats(ctx context.Context, year int, month time.Month, class string) ([]MonthlyStat, error)
	}

	// ClassLister lists the classes of the roster.
	ClassLister interface {
		QueryClasses(ctx context.Context) ([]string, error)
	}

	Service interface {
		Submit(ctx context.Context, ns NewSubmission) (SubmissionResult, error)
		SubmissionStatus(ctx context.Context, class string, now time.Time) (SubmissionStatus, error)
		Summarize(ctx context.Context, class, date string) (Summary, error)
		SummarizeRange(ctx context.Context, class, from, to string) (Summary, error)
		ClassOverview(ctx context.Context, date string) ([]Summary, error)
		Records(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		Absentees(ctx context.Context, class, date string) ([]Record, error)
		LowAttendance(ctx context.Context, month time.Month, year int, class string) ([]LowAttendanceStudent, error)
		Window() Window
		Location() *time.Location
	}

	Options struct {
		Repo    Repository
		Classes ClassLister
		SMS     core.SMSService
		Logger  core.Logger

		Window          Window
		Location        *time.Location
		CountryCode     string
		AbsenceMessage  string
		UseMonthlyStats bool

		NowFunc func() time.Time // optional; mockable
	}

	service struct {
		Options
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(opts Options) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(opts.Repo, "Repo"),
		vala.IsNotNil(opts.Classes, "Classes"),
		vala.IsNotNil(opts.SMS, "SMS"),
		vala.IsNotNil(opts.Logger, "Logger"),
		vala.StringNotEmpty(opts.AbsenceMessage, "AbsenceMessage"),
	).CheckAndPanic()

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	return &service{Options: opts}
}

func (svc *service) Window() Window            { return svc.Options.Window }
func (svc *service) Location() *time.Location { return svc.Options.Location }

func (svc *service) today() string {
	return svc.NowFunc().In(svc.Options.Location).Format(core.DateLayout)
}

// Submit records one class's day. Students already recorded for that date are reported as
// duplicates and left untouched, so resubmitting is harmless. Guardians of the newly recorded
// absentees get one group SMS; a delivery failure is reported on the result only.
func (svc *service) Submit(ctx context.Context, ns NewSubmission) (SubmissionResult, error) {
	if err := ns.Validate(); err != nil {
		return SubmissionResult{}, err
	}
	if ns.Date == "" {
		ns.Date = svc.today()
	}

	now := svc.NowFunc().UTC()
	records := make([]Record, 0, len(ns.Students))
	for _, s := range ns.Students {
		phone, err := core.NormalizePhone(s.Phone, svc.CountryCode)
		if err != nil {
			phone = ""
		}
		records = append(records, Record{
			ID:          uuid.New().String(),
			StudentID:   s.StudentID,
			StudentName: s.Name,
			FatherName:  s.FatherName,
			Class:       ns.Class,
			Phone:       phone,
			Date:        ns.Date,
			Status:      s.Status,
			CreatedAt:   now,
		})
	}

	inserted, err := svc.Repo.InsertRecords(ctx, records)
	if err != nil {
		return SubmissionResult{}, pkgerrors.Wrap(err, "inserting attendance records")
	}

	res := SubmissionResult{
		Class:      ns.Class,
		Date:       ns.Date,
		Recorded:   len(inserted),
		Duplicates: len(records) - len(inserted),
		Notified:   make([]string, 0),
	}
	seen := make(map[string]bool)
	phones := make([]string, 0)
	for _, r := range inserted {
		if r.Present() {
			res.Present++
			continue
		}
		res.Absent++
		if r.Phone != "" && !seen[r.Phone] {
			seen[r.Phone] = true
			phones = append(phones, r.Phone)
		}
	}
	if len(phones) == 0 {
		return res, nil
	}

	msg := core.SMSMessage{To: phones, Body: svc.AbsenceMessage}
	if err := svc.SMS.Send(ctx, msg); err != nil {
		svc.Logger.Error("sending absence notifications", err, map[string]interface{}{
			"class": ns.Class, "date": ns.Date, "recipients": len(phones),
		})
		res.NotificationError = err.Error()
		return res, nil
	}
	res.Notified = phones
	return res, nil
}

// SubmissionStatus tells whether class may submit at now. The answer is recomputed on every call.
func (svc *service) SubmissionStatus(ctx context.Context, class string, now time.Time) (SubmissionStatus, error) {
	local := now.In(svc.Options.Location)
	st := SubmissionStatus{
		Class:  core.CollapseSpaces(class),
		Date:   local.Format(core.DateLayout),
		State:  GateBlocked,
		Window: svc.Options.Window.String(),
	}
	if svc.Options.Window.Allows(local) {
		st.State = GateAllowed
	}

	total, _, err := svc.Repo.CountRecords(ctx, QueryFilter{Class: st.Class, Date: st.Date})
	if err != nil {
		return SubmissionStatus{}, pkgerrors.Wrap(err, "counting today's records")
	}
	st.AlreadySubmitted = total > 0
	st.CanSubmit = st.State == GateAllowed && !st.AlreadySubmitted
	return st, nil
}

// Summarize counts the records of class on date; empty values mean every class and every day.
func (svc *service) Summarize(ctx context.Context, class, date string) (Summary, error) {
	filter := QueryFilter{Class: class, Date: date}
	if err := filter.Validate(); err != nil {
		return Summary{}, err
	}
	total, present, err := svc.Repo.CountRecords(ctx, filter)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(err, "counting records")
	}
	return NewSummary(filter.Class, filter.Date, total, present), nil
}

// SummarizeRange counts the records of class between from and to, both inclusive.
func (svc *service) SummarizeRange(ctx context.Context, class, from, to string) (Summary, error) {
	filter := QueryFilter{Class: class, From: from, To: to}
	if err := filter.Validate(); err != nil {
		return Summary{}, err
	}
	var flds []core.FieldError
	if filter.From == "" {
		flds = append(flds, core.FieldError{Field: "from", Error: "this field is required"})
	}
	if filter.To == "" {
		flds = append(flds, core.FieldError{Field: "to", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return Summary{}, core.NewValidationError(nil, flds...)
	}

	total, present, err := svc.Repo.CountRecords(ctx, filter)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(err, "counting records")
	}
	return NewSummary(filter.Class, filter.From+" → "+filter.To, total, present), nil
}

// ClassOverview summarizes date (default: today) for every roster class.
func (svc *service) ClassOverview(ctx context.Context, date string) ([]Summary, error) {
	if date == "" {
		date = svc.today()
	}
	classes, err := svc.Classes.QueryClasses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing classes")
	}
	summaries := make([]Summary, 0, len(classes))
	for _, class := range classes {
		sum, err := svc.Summarize(ctx, class, date)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (svc *service) Records(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	records, err := svc.Repo.QueryRecords(ctx, filter, ordering)
	return records, pkgerrors.Wrap(err, "querying records")
}

// Absentees lists the students marked absent on date (default: today).
func (svc *service) Absentees(ctx context.Context, class, date string) ([]Record, error) {
	if date == "" {
		date = svc.today()
	}
	return svc.Records(ctx, QueryFilter{Class: class, Date: date, Status: StatusAbsent},
		[]core.DBOrdering{{Field: "class", Ascending: true}, {Field: "name", Ascending: true}})
}

// LowAttendance lists the students whose attendance in the calendar month is under
// LowAttendanceThreshold, lowest first. Students without records that month are left out.
func (svc *service) LowAttendance(ctx context.Context, month time.Month, year int, class string) ([]LowAttendanceStudent, error) {
	var flds []core.FieldError
	if month < time.January || month > time.December {
		flds = append(flds, core.FieldError{Field: "month", Error: "month must be between 1 and 12"})
	}
	if year < 1 {
		flds = append(flds, core.FieldError{Field: "year", Error: "year must be a positive number"})
	}
	if len(flds) > 0 {
		return nil, core.NewValidationError(nil, flds...)
	}
	class = core.CollapseSpaces(class)

	var tallies []Tally
	if svc.UseMonthlyStats {
		stats, err := svc.Repo.QueryMonthlyStats(ctx, year, month, class)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "querying monthly stats")
		}
		tallies = make([]Tally, 0, len(stats))
		for _, stat := range stats {
			tallies = append(tallies, stat.tally())
		}
	} else {
		from, to := academic.Range(month, year)
		records, err := svc.Repo.QueryRecords(ctx, QueryFilter{Class: class, From: from, To: to}, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "querying records")
		}
		tallies = TallyRecords(records)
	}
	return lowAttendance(tallies), nil
}
