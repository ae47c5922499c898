package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/strmangle"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

var (
	studentColumns   = []string{"id", "name", "father_name", "class", "phone", "created_at"}
	studentOrderings = map[string]string{
		"name":        "name",
		"father_name": "father_name",
		"class":       "class",
		"created_at":  "created_at",
	}
)

type studentRow struct {
	ID         string      `boil:"id"`
	Name       string      `boil:"name"`
	FatherName string      `boil:"father_name"`
	Class      string      `boil:"class"`
	Phone      null.String `boil:"phone"`
	CreatedAt  time.Time   `boil:"created_at"`
}

func (row studentRow) unboil() roster.Student {
	return roster.Student{
		ID:         row.ID,
		Name:       row.Name,
		FatherName: row.FatherName,
		Class:      row.Class,
		Phone:      row.Phone.String,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

type StudentRepository struct {
	exec core.DBExecutor
}

var _ roster.Repository = (*StudentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *StudentRepository {
	return &StudentRepository{exec: exec}
}

// AddStudents upserts students. The roster is owned elsewhere; this serves seeding and tests.
func (repo *StudentRepository) AddStudents(ctx context.Context, students ...roster.Student) error {
	if len(students) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(students)*len(studentColumns))
	for _, s := range students {
		createdAt := s.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		args = append(args, s.ID, s.Name, s.FatherName, s.Class, s.Phone, createdAt.UTC())
	}
	q := fmt.Sprintf(`INSERT INTO students (%s) VALUES %s
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, father_name = EXCLUDED.father_name,
			class = EXCLUDED.class, phone = EXCLUDED.phone`,
		quotedColumns(studentColumns),
		strmangle.Placeholders(true, len(args), 1, len(studentColumns)),
	)
	_, err := queries.Raw(q, args...).ExecContext(ctx, repo.exec)
	return errors.Wrap(err, "inserting students")
}

func (repo *StudentRepository) QueryStudents(ctx context.Context, filter roster.QueryFilter, ordering []core.DBOrdering) ([]roster.Student, error) {
	q := "SELECT " + quotedColumns(studentColumns) + " FROM students WHERE true"
	var args []interface{}
	if filter.Class != "" {
		args = append(args, filter.Class)
		q += fmt.Sprintf(" AND class = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	q += orderBy(ordering, studentOrderings)

	var rows []studentRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]roster.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unboil())
	}
	return students, nil
}

func (repo *StudentRepository) CountStudents(ctx context.Context, class string) (int, error) {
	q := "SELECT COUNT(*) FROM students"
	var args []interface{}
	if class != "" {
		q += " WHERE class = $1"
		args = append(args, class)
	}
	var count int
	err := queries.Raw(q, args...).QueryRowContext(ctx, repo.exec).Scan(&count)
	return count, errors.Wrap(err, "counting students")
}

func (repo *StudentRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	q := "SELECT " + quotedColumns(studentColumns) + " FROM students WHERE id = $1"
	var row studentRow
	if err := queries.Raw(q, id).Bind(ctx, repo.exec, &row); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return roster.Student{}, roster.ErrNotFound
		}
		return roster.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.unboil(), nil
}

func (repo *StudentRepository) QueryClasses(ctx context.Context) ([]string, error) {
	var rows []struct {
		Class string `boil:"class"`
	}
	if err := queries.Raw("SELECT DISTINCT class FROM students ORDER BY class").Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	classes := make([]string, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.Class)
	}
	return classes, nil
}
