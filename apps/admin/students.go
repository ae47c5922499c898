package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

var studentHeader = []string{"id", "name", "father_name", "class", "phone"}

func (cli *commandLine) importStudents(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening students file")
	}
	defer f.Close()

	students, err := readStudents(f, cli.conf.SMS.CountryCode, cli.nowFunc().UTC())
	if err != nil {
		return err
	}
	// counts of the classes students leave go stale too
	classes := make([]string, 0)
	seen := make(map[string]bool)
	addClass := func(class string) {
		if !seen[class] {
			seen[class] = true
			classes = append(classes, class)
		}
	}
	for _, s := range students {
		prev, err := cli.roster.Get(ctx, s.ID)
		switch {
		case err == nil:
			addClass(prev.Class)
		case errors.Cause(err) != roster.ErrNotFound:
			return errors.Wrapf(err, "getting student %s", s.ID)
		}
		addClass(s.Class)
	}

	if err = cli.students.AddStudents(ctx, students...); err != nil {
		return errors.Wrap(err, "adding students")
	}
	if err = cli.roster.InvalidateCount(ctx, classes...); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d student(s) imported\n", len(students))
	return nil
}

// readStudents parses a roster CSV. Unusable phone numbers are dropped, not rejected. An id may
// appear only once per file.
func readStudents(r io.Reader, countryCode string, now time.Time) ([]roster.Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(studentHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	for i, col := range studentHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != col {
			return nil, fmt.Errorf("column %d must be %q, got %q", i+1, col, header[i])
		}
	}

	students := make([]roster.Student, 0)
	lines := make(map[string]int) // id: line
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading line %d", line)
		}
		s := roster.Student{
			ID:         core.CleanString(row[0]),
			Name:       core.CollapseSpaces(row[1]),
			FatherName: core.CollapseSpaces(row[2]),
			Class:      core.CollapseSpaces(row[3]),
			CreatedAt:  now,
		}
		if s.ID == "" || s.Name == "" || s.Class == "" {
			return nil, fmt.Errorf("line %d: id, name and class are required", line)
		}
		if first, ok := lines[s.ID]; ok {
			return nil, fmt.Errorf("line %d: id %q already on line %d", line, s.ID, first)
		}
		lines[s.ID] = line
		if phone, err := core.NormalizePhone(row[4], countryCode); err == nil {
			s.Phone = phone
		}
		students = append(students, s)
	}
	return students, nil
}
