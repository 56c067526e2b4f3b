package models

import "encoding/json"

// TermPayload is one term's raw course catalog as returned by the schedule
// crawler, with meeting periods already formatted to HH:MM pairs.
type TermPayload struct {
	// Term is the YYYYMM term code this payload belongs to.
	Term string
	// UpdatedAt is the crawler's ISO-8601 "last updated" timestamp.
	UpdatedAt string
	// Periods maps a meeting's period index to [start, end] time strings.
	// A TBA period is stored as two empty strings.
	Periods [][2]string
	// Courses maps a course name ("CS 1301") to its raw course tuple. The
	// tuple layout is position-based upstream JSON, decoded lazily by the
	// parser.
	Courses map[string]json.RawMessage
}

// ParseTermName converts a YYYYMM term code into its display name, e.g.
// "202502" -> "Spring 2025". Months 1-4 are Spring, 5-7 Summer, 8-12 Fall.
// Codes that do not parse are returned unchanged.
func ParseTermName(term string) string {
	if len(term) < 5 {
		return term
	}
	year := term[:4]
	month := 0
	for _, r := range term[4:] {
		if r < '0' || r > '9' {
			return term
		}
		month = month*10 + int(r-'0')
	}

	var semester string
	switch {
	case month < 5:
		semester = "Spring"
	case month < 8:
		semester = "Summer"
	default:
		semester = "Fall"
	}
	return semester + " " + year
}

// IsSummerTerm reports whether a YYYYMM term code falls in the summer
// session (month 5-7).
func IsSummerTerm(term string) bool {
	if len(term) < 5 {
		return false
	}
	name := ParseTermName(term)
	return len(name) >= 6 && name[:6] == "Summer"
}
