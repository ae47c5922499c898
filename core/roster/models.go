package roster

import (
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FatherName string    `json:"father_name"`
	Class      string    `json:"class"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type QueryFilter struct {
	Class  string `query:"class"`
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Class = core.CollapseSpaces(qf.Class)
	qf.Search = core.CleanString(qf.Search)
}

// EnrollmentCount is a class size read through the cache.
type EnrollmentCount struct {
	Class     string    `json:"class"`
	Count     int       `json:"count"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}
