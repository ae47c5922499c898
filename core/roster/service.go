// Package roster is the read side of the student roster: listings, classes and cached class sizes.
// Creating and deleting students belongs to the roster owner; InvalidateCount must be called after
// such changes.
package roster

import (
	"context"
	"errors"

	"github.com/kat-co/vala"
	pkgerrors "github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	Repository interface {
		QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		// CountStudents counts every student when class is empty.
		CountStudents(ctx context.Context, class string) (int, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryClasses(ctx context.Context) ([]string, error)
	}

	Service interface {
		Query(ctx context.Context, filter QueryFilter) ([]Student, error)
		Get(ctx context.Context, id string) (Student, error)
		Classes(ctx context.Context) ([]string, error)
		Count(ctx context.Context, class string) (EnrollmentCount, error)
		InvalidateCount(ctx context.Context, classes ...string) error
		// PruneCounts drops the cached counts that outlived the TTL.
		PruneCounts(ctx context.Context) (int, error)
	}

	service struct {
		repo   Repository
		counts *cache.TTLCache
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, counts *cache.TTLCache) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(counts, "counts"),
	).CheckAndPanic()

	return &service{repo: repo, counts: counts}
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	search := filter.Search
	filter.Search = "" // fuzzy matching happens here, not in the store

	students, err := svc.repo.QueryStudents(ctx, filter, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying students")
	}
	return Search(students, search), nil
}

func (svc *service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Classes(ctx context.Context) ([]string, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	return classes, pkgerrors.Wrap(err, "querying classes")
}

// Count returns the class size from the cache, refreshing it from the roster when the entry
// expired. A failed refresh yields a stale or unknown count together with the error.
func (svc *service) Count(ctx context.Context, class string) (EnrollmentCount, error) {
	class = core.CollapseSpaces(class)
	res := svc.counts.Get(ctx, class, func(ctx context.Context) (int, error) {
		return svc.repo.CountStudents(ctx, class)
	})
	count := EnrollmentCount{
		Class:     class,
		Count:     res.Value,
		State:     res.State.String(),
		UpdatedAt: res.Timestamp,
	}
	return count, pkgerrors.Wrap(res.Err, "counting students")
}

func (svc *service) InvalidateCount(ctx context.Context, classes ...string) error {
	return pkgerrors.Wrap(svc.counts.Invalidate(ctx, classes...), "invalidating student counts")
}

func (svc *service) PruneCounts(ctx context.Context) (int, error) {
	n, err := svc.counts.Prune(ctx)
	return n, pkgerrors.Wrap(err, "pruning student counts")
}
