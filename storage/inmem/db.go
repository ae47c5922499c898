// Package inmemdb keeps every table in memory. It backs tests and the `inmem` storage setting.
package inmemdb

import (
	"sync"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

type (
	DB struct {
		attendance *attendanceTable
		students   *studentTable
		cache      *cacheTable
	}

	attendanceTable struct {
		records []attendance.Record
		byDay   map[dayKey]bool          // unique (student_id, date)
		stats   map[statKey]*attendance.MonthlyStat
		mutex   sync.RWMutex
	}

	studentTable struct {
		t     map[string]*roster.Student
		mutex sync.RWMutex
	}

	cacheTable struct {
		t     map[string]cache.Entry
		mutex sync.RWMutex
	}

	dayKey struct {
		studentID string
		date      string
	}

	statKey struct {
		studentID string
		class     string
		year      int
		month     int
	}
)

func Open() *DB {
	return &DB{
		attendance: &attendanceTable{
			byDay: make(map[dayKey]bool),
			stats: make(map[statKey]*attendance.MonthlyStat),
		},
		students: &studentTable{t: make(map[string]*roster.Student)},
		cache:    &cacheTable{t: make(map[string]cache.Entry)},
	}
}

func (db *DB) Attendance() attendance.Repository { return &attendanceRepository{db: db.attendance} }
func (db *DB) Roster() *StudentRepository       { return &StudentRepository{db: db.students} }
func (db *DB) Cache() cache.Store               { return &cacheStore{db: db.cache} }
