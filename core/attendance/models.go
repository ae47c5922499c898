package attendance

import (
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

const (
	// LowAttendanceThreshold is the rate (in %) under which a student's month is low.
	LowAttendanceThreshold = 75

	AllClasses = "All Classes"
	AllTime    = "All Time"
)

// Record is one student's attendance for one day. Records are never updated.
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"name"`
	FatherName  string    `json:"father_name"`
	Class       string    `json:"class"`
	Phone       string    `json:"phone"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

func (r Record) Present() bool { return r.Status == StatusPresent }

// MonthlyStat is the materialized tally of a student's records for one month in one class.
type MonthlyStat struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"name"`
	FatherName  string    `json:"father_name"`
	Class       string    `json:"class"`
	Phone       string    `json:"phone"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	TotalDays   int       `json:"total_days"`
	PresentDays int       `json:"present"`
	CreatedAt   time.Time `json:"created_at"` // UTC, first record
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Summary struct {
	ClassName string `json:"class_name"`
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
	Rate      int    `json:"rate"`
}

type LowAttendanceStudent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FatherName string    `json:"father_name"`
	Class      string    `json:"class"`
	Phone      string    `json:"phone"`
	TotalDays  int       `json:"total_days"`
	Present    int       `json:"present"`
	Absent     int       `json:"absent"`
	Rate       int       `json:"attendance_rate"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubmittedStudent is one line of a class's daily sheet.
type SubmittedStudent struct {
	StudentID  string `json:"student_id" validate:"required,notblank"`
	Name       string `json:"name" validate:"required,notblank"`
	FatherName string `json:"father_name"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	Status     Status `json:"status" validate:"required,status"`
}

// NewSubmission contains the information needed to record a class's day.
type NewSubmission struct {
	Class    string             `json:"class" validate:"required,notblank"`
	Date     string             `json:"date" validate:"omitempty,isodate"` // default: today
	Students []SubmittedStudent `json:"students" validate:"dive"`
}

func (ns *NewSubmission) Validate() error {
	ns.Class = core.CollapseSpaces(ns.Class)
	ns.Date = core.CleanString(ns.Date)
	for i := range ns.Students {
		ns.Students[i].StudentID = core.CleanString(ns.Students[i].StudentID)
		ns.Students[i].Name = core.CollapseSpaces(ns.Students[i].Name)
		ns.Students[i].FatherName = core.CollapseSpaces(ns.Students[i].FatherName)
		ns.Students[i].Phone = core.CleanString(ns.Students[i].Phone)
		ns.Students[i].Status = Status(core.CleanString(string(ns.Students[i].Status), true /* lower */))
	}
	if len(ns.Students) == 0 {
		return ErrNoStudents
	}
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}

	seen := make(map[string]bool, len(ns.Students))
	for _, s := range ns.Students {
		if seen[s.StudentID] {
			return core.NewValidationError(nil, core.FieldError{Field: "students", Error: "student " + s.StudentID + " is listed twice"})
		}
		seen[s.StudentID] = true
	}
	return nil
}

// SubmissionResult reports what a submission stored and who was notified.
// Notification failures never undo the stored records.
type SubmissionResult struct {
	Class             string   `json:"class"`
	Date              string   `json:"date"`
	Recorded          int      `json:"recorded"`
	Duplicates        int      `json:"duplicates"`
	Present           int      `json:"present"`
	Absent            int      `json:"absent"`
	Notified          []string `json:"notified"`
	NotificationError string   `json:"notification_error,omitempty"`
}

type QueryFilter struct {
	Class     string `query:"class"`
	Date      string `query:"date" validate:"omitempty,isodate"`
	From      string `query:"from" validate:"omitempty,isodate"`
	To        string `query:"to" validate:"omitempty,isodate"`
	Status    Status `query:"status" validate:"omitempty,status"`
	StudentID string `query:"student_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Class = core.CollapseSpaces(qf.Class)
	qf.Date = core.CleanString(qf.Date)
	qf.From = core.CleanString(qf.From)
	qf.To = core.CleanString(qf.To)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
	qf.StudentID = core.CleanString(qf.StudentID)
}

func (qf *QueryFilter) Validate() error {
	qf.Clean()
	if err := core.Validate.Struct(qf); err != nil {
		return err
	}
	if qf.From != "" && qf.To != "" && qf.From > qf.To {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "to must not be before from"})
	}
	return nil
}

// GateState tells whether the submission window is open.
type GateState string

const (
	GateAllowed GateState = "allowed"
	GateBlocked GateState = "blocked"
)

type SubmissionStatus struct {
	Class            string    `json:"class"`
	Date             string    `json:"date"`
	State            GateState `json:"state"`
	Window           string    `json:"window"`
	AlreadySubmitted bool      `json:"already_submitted"`
	CanSubmit        bool      `json:"can_submit"`
}
