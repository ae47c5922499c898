package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

// StudentRepository also lets tests and the inmem storage setting seed students.
type StudentRepository struct {
	db *studentTable
}

var _ roster.Repository = (*StudentRepository)(nil) // interface compliance check

// AddStudents stores students, replacing those with the same ID.
func (repo *StudentRepository) AddStudents(students ...roster.Student) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range students {
		s := s
		repo.db.t[s.ID] = &s
	}
}

func (repo *StudentRepository) RemoveStudents(ids ...string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.t, id)
	}
}

func (repo *StudentRepository) QueryStudents(ctx context.Context, filter roster.QueryFilter, ordering []core.DBOrdering) ([]roster.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	students := make([]roster.Student, 0, len(repo.db.t))
	for _, s := range repo.db.t {
		if filter.Class != "" && s.Class != filter.Class {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := studentField(students[i], ord.Field), studentField(students[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func studentField(s roster.Student, field string) string {
	switch field {
	case "name":
		return s.Name
	case "class":
		return s.Class
	case "father_name":
		return s.FatherName
	}
	return s.ID
}

func (repo *StudentRepository) CountStudents(ctx context.Context, class string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, s := range repo.db.t {
		if class == "" || s.Class == class {
			count++
		}
	}
	return count, nil
}

func (repo *StudentRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.t[id]; ok {
		return *s, nil
	}
	return roster.Student{}, roster.ErrNotFound
}

func (repo *StudentRepository) QueryClasses(ctx context.Context) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]bool)
	classes := make([]string, 0)
	for _, s := range repo.db.t {
		if !seen[s.Class] {
			seen[s.Class] = true
			classes = append(classes, s.Class)
		}
	}
	sort.Strings(classes)
	return classes, nil
}
