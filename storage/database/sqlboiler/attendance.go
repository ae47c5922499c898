package boiledrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/strmangle"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/database"
)

var (
	recordColumns = []string{"id", "student_id", "name", "father_name", "class", "phone", "date", "status", "created_at"}
	// date is read back as text so that no timezone can shift the day
	recordSelect = `id, student_id, name, father_name, class, phone, to_char(date, 'YYYY-MM-DD') AS date, status, created_at`

	statColumns = []string{
		"student_id", "class", "year", "month", "name", "father_name", "phone",
		"total_days", "present_days", "created_at", "updated_at",
	}

	recordOrderings = map[string]string{
		"date":       "date",
		"class":      "class",
		"name":       "name",
		"status":     "status",
		"student_id": "student_id",
		"created_at": "created_at",
	}
)

type (
	recordRow struct {
		ID         string      `boil:"id"`
		StudentID  string      `boil:"student_id"`
		Name       string      `boil:"name"`
		FatherName string      `boil:"father_name"`
		Class      string      `boil:"class"`
		Phone      null.String `boil:"phone"`
		Date       string      `boil:"date"`
		Status     string      `boil:"status"`
		CreatedAt  time.Time   `boil:"created_at"`
	}

	statRow struct {
		StudentID   string      `boil:"student_id"`
		Class       string      `boil:"class"`
		Year        int         `boil:"year"`
		Month       int         `boil:"month"`
		Name        string      `boil:"name"`
		FatherName  string      `boil:"father_name"`
		Phone       null.String `boil:"phone"`
		TotalDays   int         `boil:"total_days"`
		PresentDays int         `boil:"present_days"`
		CreatedAt   time.Time   `boil:"created_at"`
		UpdatedAt   time.Time   `boil:"updated_at"`
	}

	countRow struct {
		Total   int `boil:"total"`
		Present int `boil:"present"`
	}
)

func (row recordRow) unboil() attendance.Record {
	return attendance.Record{
		ID:          row.ID,
		StudentID:   row.StudentID,
		StudentName: row.Name,
		FatherName:  row.FatherName,
		Class:       row.Class,
		Phone:       row.Phone.String,
		Date:        row.Date,
		Status:      attendance.Status(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (row statRow) unboil() attendance.MonthlyStat {
	return attendance.MonthlyStat{
		StudentID:   row.StudentID,
		StudentName: row.Name,
		FatherName:  row.FatherName,
		Class:       row.Class,
		Phone:       row.Phone.String,
		Year:        row.Year,
		Month:       row.Month,
		TotalDays:   row.TotalDays,
		PresentDays: row.PresentDays,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func quotedColumns(cols []string) string {
	return strings.Join(strmangle.IdentQuoteSlice('"', '"', cols), ", ")
}

func (repo *attendanceRepository) InsertRecords(ctx context.Context, records []attendance.Record) ([]attendance.Record, error) {
	if len(records) == 0 {
		return []attendance.Record{}, nil
	}

	inserted := make([]attendance.Record, 0, len(records))
	err := database.InTx(ctx, repo.db, func(tx core.DBTransactor) error {
		args := make([]interface{}, 0, len(records)*len(recordColumns))
		for _, r := range records {
			args = append(args,
				r.ID, r.StudentID, r.StudentName, r.FatherName, r.Class,
				null.NewString(r.Phone, r.Phone != ""), r.Date, string(r.Status), r.CreatedAt.UTC())
		}
		q := fmt.Sprintf(
			`INSERT INTO attendance (%s) VALUES %s ON CONFLICT (student_id, date) DO NOTHING RETURNING %s`,
			quotedColumns(recordColumns),
			strmangle.Placeholders(true, len(args), 1, len(recordColumns)),
			recordSelect,
		)
		var rows []recordRow
		if err := queries.Raw(q, args...).Bind(ctx, tx, &rows); err != nil {
			return errors.Wrap(err, "inserting records")
		}
		for _, row := range rows {
			inserted = append(inserted, row.unboil())
		}
		return repo.upsertStats(ctx, tx, attendance.MonthlyStats(inserted, time.Now().UTC()))
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (repo *attendanceRepository) upsertStats(ctx context.Context, tx core.DBTransactor, deltas []attendance.MonthlyStat) error {
	if len(deltas) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(deltas)*len(statColumns))
	for _, d := range deltas {
		args = append(args,
			d.StudentID, d.Class, d.Year, d.Month, d.StudentName, d.FatherName,
			null.NewString(d.Phone, d.Phone != ""), d.TotalDays, d.PresentDays, d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	}
	q := fmt.Sprintf(`INSERT INTO student_stats (%s) VALUES %s
		ON CONFLICT (student_id, class, year, month) DO UPDATE SET
			total_days = student_stats.total_days + EXCLUDED.total_days,
			present_days = student_stats.present_days + EXCLUDED.present_days,
			name = EXCLUDED.name,
			father_name = EXCLUDED.father_name,
			phone = EXCLUDED.phone,
			created_at = LEAST(student_stats.created_at, EXCLUDED.created_at),
			updated_at = EXCLUDED.updated_at`,
		quotedColumns(statColumns),
		strmangle.Placeholders(true, len(args), 1, len(statColumns)),
	)
	_, err := queries.Raw(q, args...).ExecContext(ctx, tx)
	return errors.Wrap(err, "updating monthly stats")
}

// where builds the AND clause of filter, numbering placeholders from 1.
func where(filter attendance.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Class != "" {
		add("class = $%d", filter.Class)
	}
	if filter.Date != "" {
		add("date = $%d", filter.Date)
	}
	if filter.From != "" {
		add("date >= $%d", filter.From)
	}
	if filter.To != "" {
		add("date <= $%d", filter.To)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.StudentID != "" {
		add("student_id = $%d", filter.StudentID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderBy keeps the known fields of ordering only.
func orderBy(ordering []core.DBOrdering, columns map[string]string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(clauses) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Record, error) {
	cond, args := where(filter)
	q := "SELECT " + recordSelect + " FROM attendance" + cond + orderBy(ordering, recordOrderings)

	var rows []recordRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.db, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.unboil())
	}
	return records, nil
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, filter attendance.QueryFilter) (int, int, error) {
	cond, args := where(filter)
	q := "SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'present') AS present FROM attendance" + cond

	var row countRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.db, &row); err != nil {
		return 0, 0, errors.Wrap(err, "counting records")
	}
	return row.Total, row.Present, nil
}

func (repo *attendanceRepository) QueryMonthlyStats(ctx context.Context, year int, month time.Month, class string) ([]attendance.MonthlyStat, error) {
	q := "SELECT " + quotedColumns(statColumns) + " FROM student_stats WHERE year = $1 AND month = $2"
	args := []interface{}{year, int(month)}
	if class != "" {
		q += " AND class = $3"
		args = append(args, class)
	}
	q += " ORDER BY class, student_id"

	var rows []statRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.db, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting monthly stats")
	}
	stats := make([]attendance.MonthlyStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, row.unboil())
	}
	return stats, nil
}
