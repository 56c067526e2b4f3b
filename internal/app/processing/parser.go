package processing

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/logger"
)

// courseNamePattern splits a course name into subject letters, course
// number and an optional suffix, e.g. "CS 1301" or "MATH 1554X".
var courseNamePattern = regexp.MustCompile(`^([A-Za-z]+)\s(\d+)(\D*)`)

// SectionMeta is the meeting metadata of one section, keyed by CRN.
type SectionMeta struct {
	Section               string
	StartTime             string
	EndTime               string
	Days                  string
	Building              string
	Room                  string
	PrimaryInstructors    string
	AdditionalInstructors string
}

// ParseCourses extracts the courses matching the subject and course-number
// filters from a term payload. It returns the CRNs per course name and the
// meeting metadata per CRN. A CRN with no meeting data is still listed for
// its course but has no metadata entry. Unparseable course names and
// malformed section tuples are skipped, never fatal.
func ParseCourses(payload *models.TermPayload, subjects []string, ranges []models.CourseRange) (map[string][]string, map[string]SectionMeta) {
	courses := make(map[string][]string)
	meta := make(map[string]SectionMeta)
	if payload == nil {
		return courses, meta
	}

	for name, raw := range payload.Courses {
		m := courseNamePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if !matchesSubject(m[1], subjects) || !matchesRange(num, ranges) {
			continue
		}

		crns := parseCourseSections(payload, name, raw, meta)
		if len(crns) > 0 {
			courses[name] = crns
		}
	}

	logger.Debug().
		Int("courses", len(courses)).
		Int("sections", len(meta)).
		Msg("Parsed course data from term payload")
	return courses, meta
}

// parseCourseSections walks one course's section map and returns its CRNs,
// filling meta for every section that carries meeting data.
func parseCourseSections(payload *models.TermPayload, course string, raw json.RawMessage, meta map[string]SectionMeta) []string {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) < 2 {
		logger.Warn().Str("course", course).Msg("Malformed course tuple, skipping")
		return nil
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(tuple[1], &sections); err != nil {
		logger.Warn().Str("course", course).Msg("Malformed section map, skipping")
		return nil
	}

	// Section names are sorted so output is stable across runs.
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var crns []string
	for _, sectionName := range names {
		var data []json.RawMessage
		if err := json.Unmarshal(sections[sectionName], &data); err != nil || len(data) < 2 {
			continue
		}

		var crn string
		if err := json.Unmarshal(data[0], &crn); err != nil || crn == "" {
			continue
		}
		crns = append(crns, crn)

		var meetings [][]json.RawMessage
		if err := json.Unmarshal(data[1], &meetings); err != nil || len(meetings) == 0 {
			// No parseable meeting info: the CRN stays in the course list
			// with empty building/room rather than being dropped.
			continue
		}
		meta[crn] = parseMeeting(payload, sectionName, meetings[0])
	}
	return crns
}

// parseMeeting turns the first meeting-info tuple of a section into its
// metadata: period index resolved to times, days, location split into
// building and room, instructors split by the "(P)" primary marker.
func parseMeeting(payload *models.TermPayload, sectionName string, meeting []json.RawMessage) SectionMeta {
	sm := SectionMeta{Section: sectionName}

	if len(meeting) > 0 {
		var periodIdx int
		if err := json.Unmarshal(meeting[0], &periodIdx); err == nil {
			if periodIdx >= 0 && periodIdx < len(payload.Periods) {
				sm.StartTime = payload.Periods[periodIdx][0]
				sm.EndTime = payload.Periods[periodIdx][1]
			}
		}
	}
	if len(meeting) > 1 {
		_ = json.Unmarshal(meeting[1], &sm.Days)
	}

	location := "TBA"
	if len(meeting) > 2 {
		_ = json.Unmarshal(meeting[2], &location)
	}
	sm.Building, sm.Room = splitLocation(location)

	if len(meeting) > 4 {
		var instructors []string
		if err := json.Unmarshal(meeting[4], &instructors); err == nil {
			sm.PrimaryInstructors, sm.AdditionalInstructors = splitInstructors(instructors)
		}
	}
	return sm
}

// splitLocation takes the last whitespace-separated token of a location as
// the room and the remainder as the building. "TBA" yields empty values.
func splitLocation(location string) (building, room string) {
	if location == "TBA" {
		return "", ""
	}
	parts := strings.Fields(location)
	if len(parts) == 0 {
		return "", ""
	}
	room = parts[len(parts)-1]
	building = strings.Join(parts[:len(parts)-1], " ")
	return building, room
}

// splitInstructors separates instructors tagged with the "(P)" primary
// marker (marker stripped) from additional instructors. Each group is
// comma-joined.
func splitInstructors(instructors []string) (primary, additional string) {
	var primaries, additionals []string
	for _, instructor := range instructors {
		if strings.Contains(instructor, "(P)") {
			name := strings.TrimSpace(strings.TrimSuffix(instructor, "(P)"))
			primaries = append(primaries, name)
		} else {
			additionals = append(additionals, instructor)
		}
	}
	return strings.Join(primaries, ", "), strings.Join(additionals, ", ")
}

// BuildRecords assembles flat section records for one term from the parsed
// course data and the per-CRN enrollment numbers. Courses are emitted in
// name order so the result is deterministic.
func BuildRecords(term string, courses map[string][]string, meta map[string]SectionMeta, enrollment map[string]models.Enrollment) []models.SectionRecord {
	termName := models.ParseTermName(term)

	names := make([]string, 0, len(courses))
	for name := range courses {
		names = append(names, name)
	}
	sort.Strings(names)

	var records []models.SectionRecord
	for _, course := range names {
		subject := strings.SplitN(course, " ", 2)[0]
		for _, crn := range courses[course] {
			sm := meta[crn]
			enr := enrollment[crn]
			records = append(records, models.SectionRecord{
				Term:                     termName,
				Subject:                  subject,
				Course:                   course,
				CRN:                      crn,
				Section:                  sm.Section,
				StartTime:                sm.StartTime,
				EndTime:                  sm.EndTime,
				Days:                     sm.Days,
				Building:                 sm.Building,
				Room:                     sm.Room,
				PrimaryInstructors:       sm.PrimaryInstructors,
				AdditionalInstructors:    sm.AdditionalInstructors,
				EnrollmentActual:         enr.Actual,
				EnrollmentMaximum:        enr.Maximum,
				EnrollmentSeatsAvailable: enr.SeatsAvailable,
				WaitlistCapacity:         enr.WaitlistCapacity,
				WaitlistActual:           enr.WaitlistActual,
				WaitlistSeatsAvailable:   enr.WaitlistSeatsAvailable,
			})
		}
	}
	return records
}

func matchesSubject(subject string, subjects []string) bool {
	if len(subjects) == 0 {
		return true
	}
	upper := strings.ToUpper(subject)
	for _, s := range subjects {
		if s == upper {
			return true
		}
	}
	return false
}

func matchesRange(num int, ranges []models.CourseRange) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r.Contains(num) {
			return true
		}
	}
	return false
}
