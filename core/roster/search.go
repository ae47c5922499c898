package roster

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// minSimilarity is the lowest name similarity a fuzzy match may have.
const minSimilarity = .6

// similarity compares query with the closest word (or the whole) of name, case-insensitively.
func similarity(query, name string) float64 {
	query = strings.ToLower(query)
	name = strings.ToLower(name)
	if strings.Contains(name, query) {
		return 1
	}

	best := ratio(query, name)
	for _, word := range strings.Fields(name) {
		if r := ratio(query, word); r > best {
			best = r
		}
	}
	return best
}

func ratio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Search keeps the students whose name or father name resembles query, best matches first.
// Ties keep the input order.
func Search(students []Student, query string) []Student {
	query = strings.TrimSpace(query)
	if query == "" {
		return students
	}

	type match struct {
		student Student
		score   float64
	}
	matches := make([]match, 0, len(students))
	for _, s := range students {
		score := similarity(query, s.Name)
		if fs := similarity(query, s.FatherName) * .9; fs > score {
			score = fs
		}
		if score >= minSimilarity {
			matches = append(matches, match{student: s, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	found := make([]Student, 0, len(matches))
	for _, m := range matches {
		found = append(found, m.student)
	}
	return found
}
