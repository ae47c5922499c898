package attendance

import (
	"sort"
	"strconv"
	"time"
)

// Rate returns round(present/total*100), rounding halves up, and 0 when total is 0.
// Integer arithmetic keeps every caller in exact agreement.
func Rate(present, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*present + total) / (2 * total)
}

func NewSummary(class, date string, total, present int) Summary {
	if class == "" {
		class = AllClasses
	}
	if date == "" {
		date = AllTime
	}
	return Summary{
		ClassName: class,
		Date:      date,
		Total:     total,
		Present:   present,
		Absent:    total - present,
		Rate:      Rate(present, total),
	}
}

// Tally counts one student's records within one class.
type Tally struct {
	StudentID   string
	StudentName string
	FatherName  string
	Class       string
	Phone       string
	TotalDays   int
	PresentDays int
	FirstAt     time.Time
	lastDate    string
}

func (t Tally) Absent() int { return t.TotalDays - t.PresentDays }
func (t Tally) Rate() int   { return Rate(t.PresentDays, t.TotalDays) }

func (t *Tally) add(r Record) {
	t.TotalDays++
	if r.Present() {
		t.PresentDays++
	}
	if t.FirstAt.IsZero() || r.CreatedAt.Before(t.FirstAt) {
		t.FirstAt = r.CreatedAt
	}
	// identity fields follow the most recent day
	if r.Date >= t.lastDate {
		t.lastDate = r.Date
		t.StudentName = r.StudentName
		t.FatherName = r.FatherName
		t.Phone = r.Phone
	}
}

type tallyKey struct {
	studentID string
	class     string
}

// TallyRecords groups records by student and class, in order of first appearance.
// A student who changed class is counted separately in each class.
func TallyRecords(records []Record) []Tally {
	idx := make(map[tallyKey]int)
	tallies := make([]Tally, 0)
	for _, r := range records {
		key := tallyKey{studentID: r.StudentID, class: r.Class}
		i, ok := idx[key]
		if !ok {
			i = len(tallies)
			idx[key] = i
			tallies = append(tallies, Tally{StudentID: r.StudentID, Class: r.Class})
		}
		tallies[i].add(r)
	}
	return tallies
}

// MonthlyStats tallies records per student, class and calendar month. Stores add these deltas
// to the materialized stats of the same key when records are inserted.
func MonthlyStats(records []Record, now time.Time) []MonthlyStat {
	type statKey struct {
		tallyKey
		month string // YYYY-MM
	}
	idx := make(map[statKey]int)
	groups := make([][]Record, 0)
	keys := make([]statKey, 0)
	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}
		key := statKey{tallyKey: tallyKey{studentID: r.StudentID, class: r.Class}, month: r.Date[:7]}
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, nil)
			keys = append(keys, key)
		}
		groups[i] = append(groups[i], r)
	}

	stats := make([]MonthlyStat, 0, len(groups))
	for i, group := range groups {
		year, _ := strconv.Atoi(keys[i].month[:4])
		month, _ := strconv.Atoi(keys[i].month[5:])
		t := TallyRecords(group)[0]
		stats = append(stats, MonthlyStat{
			StudentID:   t.StudentID,
			StudentName: t.StudentName,
			FatherName:  t.FatherName,
			Class:       t.Class,
			Phone:       t.Phone,
			Year:        year,
			Month:       month,
			TotalDays:   t.TotalDays,
			PresentDays: t.PresentDays,
			CreatedAt:   t.FirstAt,
			UpdatedAt:   now,
		})
	}
	return stats
}

// Merge adds the counts of delta (same student, class and month) to stat.
func (stat MonthlyStat) Merge(delta MonthlyStat) MonthlyStat {
	if stat.StudentID == "" {
		return delta
	}
	stat.TotalDays += delta.TotalDays
	stat.PresentDays += delta.PresentDays
	stat.StudentName = delta.StudentName
	stat.FatherName = delta.FatherName
	stat.Phone = delta.Phone
	if !delta.CreatedAt.IsZero() && (stat.CreatedAt.IsZero() || delta.CreatedAt.Before(stat.CreatedAt)) {
		stat.CreatedAt = delta.CreatedAt
	}
	stat.UpdatedAt = delta.UpdatedAt
	return stat
}

func (stat MonthlyStat) tally() Tally {
	return Tally{
		StudentID:   stat.StudentID,
		StudentName: stat.StudentName,
		FatherName:  stat.FatherName,
		Class:       stat.Class,
		Phone:       stat.Phone,
		TotalDays:   stat.TotalDays,
		PresentDays: stat.PresentDays,
		FirstAt:     stat.CreatedAt,
	}
}

// lowAttendance keeps the tallies under LowAttendanceThreshold, lowest rate first.
func lowAttendance(tallies []Tally) []LowAttendanceStudent {
	low := make([]LowAttendanceStudent, 0)
	for _, t := range tallies {
		if t.TotalDays == 0 {
			continue
		}
		rate := t.Rate()
		if rate >= LowAttendanceThreshold {
			continue
		}
		low = append(low, LowAttendanceStudent{
			ID:         t.StudentID,
			Name:       t.StudentName,
			FatherName: t.FatherName,
			Class:      t.Class,
			Phone:      t.Phone,
			TotalDays:  t.TotalDays,
			Present:    t.PresentDays,
			Absent:     t.Absent(),
			Rate:       rate,
			CreatedAt:  t.FirstAt,
		})
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].Rate != low[j].Rate {
			return low[i].Rate < low[j].Rate
		}
		if low[i].Name != low[j].Name {
			return low[i].Name < low[j].Name
		}
		return low[i].Class < low[j].Class
	})
	return low
}
