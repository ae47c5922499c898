package boiledrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	boiledrepos "github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/database/sqlboiler"
	testutil "github.com/MuhammadFarhanWebDeveloper/attendence-app/tests"
)

var tables = []string{"attendance", "student_stats", "students"}

func record(studentID, class, date string, status attendance.Status, phone string) attendance.Record {
	return attendance.Record{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		StudentName: "Student " + studentID,
		FatherName:  "Father " + studentID,
		Class:       class,
		Phone:       phone,
		Date:        date,
		Status:      status,
		CreatedAt:   time.Date(2025, time.November, 3, 3, 30, 0, 0, time.UTC),
	}
}

func Test_attendanceRepository_InsertRecords(t *testing.T) {
	db := testutil.PrepareDB(t, tables...)
	repo := boiledrepos.NewAttendanceRepository(db)
	ctx := context.Background()

	first := []attendance.Record{
		record("1", "7th B", "2025-11-03", attendance.StatusPresent, "+923001234567"),
		record("2", "7th B", "2025-11-03", attendance.StatusAbsent, ""),
	}
	inserted, err := repo.InsertRecords(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, inserted)

	// retry with one new student: only the new row is stored
	retry := []attendance.Record{
		record("1", "7th B", "2025-11-03", attendance.StatusAbsent, ""),
		record("3", "7th B", "2025-11-03", attendance.StatusAbsent, ""),
	}
	inserted, err = repo.InsertRecords(ctx, retry)
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, "3", inserted[0].StudentID)

	total, present, err := repo.CountRecords(ctx, attendance.QueryFilter{Class: "7th B", Date: "2025-11-03"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, present)

	empty, err := repo.InsertRecords(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func Test_attendanceRepository_QueryRecords(t *testing.T) {
	db := testutil.PrepareDB(t, tables...)
	repo := boiledrepos.NewAttendanceRepository(db)
	ctx := context.Background()

	_, err := repo.InsertRecords(ctx, []attendance.Record{
		record("1", "7th B", "2025-11-03", attendance.StatusPresent, ""),
		record("2", "7th B", "2025-11-03", attendance.StatusAbsent, ""),
		record("1", "7th B", "2025-11-04", attendance.StatusAbsent, ""),
		record("3", "8th A", "2025-11-04", attendance.StatusPresent, ""),
		record("3", "8th A", "2025-12-01", attendance.StatusPresent, ""),
	})
	require.NoError(t, err)

	byDate := []core.DBOrdering{{Field: "date", Ascending: true}, {Field: "student_id", Ascending: true}}
	tests := []struct {
		name        string
		filter      attendance.QueryFilter
		wantDays    []string
		wantPresent int
	}{
		{name: "all", wantDays: []string{"2025-11-03", "2025-11-03", "2025-11-04", "2025-11-04", "2025-12-01"}, wantPresent: 3},
		{name: "class", filter: attendance.QueryFilter{Class: "8th A"}, wantDays: []string{"2025-11-04", "2025-12-01"}, wantPresent: 2},
		{name: "range", filter: attendance.QueryFilter{From: "2025-11-04", To: "2025-11-30"}, wantDays: []string{"2025-11-04", "2025-11-04"}, wantPresent: 1},
		{name: "absent", filter: attendance.QueryFilter{Status: attendance.StatusAbsent}, wantDays: []string{"2025-11-03", "2025-11-04"}},
		{name: "student", filter: attendance.QueryFilter{StudentID: "1"}, wantDays: []string{"2025-11-03", "2025-11-04"}, wantPresent: 1},
		{name: "no match", filter: attendance.QueryFilter{Date: "2025-10-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.QueryRecords(ctx, tt.filter, byDate)
			require.NoError(t, err)
			days := make([]string, 0)
			for _, r := range records {
				days = append(days, r.Date)
			}
			if tt.wantDays == nil {
				tt.wantDays = []string{}
			}
			assert.Equal(t, tt.wantDays, days)

			total, present, err := repo.CountRecords(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantDays), total)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func Test_attendanceRepository_QueryMonthlyStats(t *testing.T) {
	db := testutil.PrepareDB(t, tables...)
	repo := boiledrepos.NewAttendanceRepository(db)
	ctx := context.Background()

	for _, batch := range [][]attendance.Record{
		{record("1", "7th B", "2025-11-03", attendance.StatusPresent, ""), record("2", "8th A", "2025-11-03", attendance.StatusAbsent, "")},
		{record("1", "7th B", "2025-11-04", attendance.StatusAbsent, "+923001234567")},
		{record("1", "7th B", "2025-11-04", attendance.StatusPresent, "")}, // duplicate: no change
		{record("1", "7th B", "2025-12-01", attendance.StatusPresent, "")},
	} {
		_, err := repo.InsertRecords(ctx, batch)
		require.NoError(t, err)
	}

	stats, err := repo.QueryMonthlyStats(ctx, 2025, time.November, "")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "1", stats[0].StudentID)
	assert.Equal(t, 2, stats[0].TotalDays)
	assert.Equal(t, 1, stats[0].PresentDays)
	assert.Equal(t, "+923001234567", stats[0].Phone)
	assert.Equal(t, "2", stats[1].StudentID)
	assert.Equal(t, 1, stats[1].TotalDays)

	stats, err = repo.QueryMonthlyStats(ctx, 2025, time.November, "8th A")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2", stats[0].StudentID)

	stats, err = repo.QueryMonthlyStats(ctx, 2025, time.December, "")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].PresentDays)
}
