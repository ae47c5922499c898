package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func (repo *attendanceRepository) InsertRecords(ctx context.Context, records []attendance.Record) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	inserted := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		key := dayKey{studentID: r.StudentID, date: r.Date}
		if repo.db.byDay[key] {
			continue
		}
		repo.db.byDay[key] = true
		repo.db.records = append(repo.db.records, r)
		inserted = append(inserted, r)
	}

	for _, delta := range attendance.MonthlyStats(inserted, time.Now().UTC()) {
		key := statKey{studentID: delta.StudentID, class: delta.Class, year: delta.Year, month: delta.Month}
		stat, ok := repo.db.stats[key]
		if !ok {
			stat = new(attendance.MonthlyStat)
			repo.db.stats[key] = stat
		}
		*stat = stat.Merge(delta)
	}
	return inserted, nil
}

func (repo *attendanceRepository) match(r attendance.Record, filter attendance.QueryFilter) bool {
	switch {
	case filter.Class != "" && r.Class != filter.Class:
		return false
	case filter.Date != "" && r.Date != filter.Date:
		return false
	case filter.From != "" && r.Date < filter.From:
		return false
	case filter.To != "" && r.Date > filter.To:
		return false
	case filter.Status != "" && r.Status != filter.Status:
		return false
	case filter.StudentID != "" && r.StudentID != filter.StudentID:
		return false
	}
	return true
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, r := range repo.db.records {
		if repo.match(r, filter) {
			records = append(records, r)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := recordField(records[i], ord.Field), recordField(records[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
	return records, nil
}

func recordField(r attendance.Record, field string) string {
	switch strings.ToLower(field) {
	case "date":
		return r.Date
	case "class":
		return r.Class
	case "name", "student_name":
		return r.StudentName
	case "status":
		return string(r.Status)
	case "student_id":
		return r.StudentID
	case "created_at":
		return r.CreatedAt.Format(time.RFC3339Nano)
	}
	return ""
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, filter attendance.QueryFilter) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var total, present int
	for _, r := range repo.db.records {
		if !repo.match(r, filter) {
			continue
		}
		total++
		if r.Present() {
			present++
		}
	}
	return total, present, nil
}

func (repo *attendanceRepository) QueryMonthlyStats(ctx context.Context, year int, month time.Month, class string) ([]attendance.MonthlyStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stats := make([]attendance.MonthlyStat, 0)
	for key, stat := range repo.db.stats {
		if key.year != year || key.month != int(month) || (class != "" && key.class != class) {
			continue
		}
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Class != stats[j].Class {
			return stats[i].Class < stats[j].Class
		}
		return stats[i].StudentID < stats[j].StudentID
	})
	return stats, nil
}
