package processing

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/derya/enrollsync/internal/app/models"
)

func testPayload(t *testing.T, courses map[string]string) *models.TermPayload {
	t.Helper()
	raw := make(map[string]json.RawMessage, len(courses))
	for name, body := range courses {
		raw[name] = json.RawMessage(body)
	}
	return &models.TermPayload{
		Term:      "202502",
		UpdatedAt: "2025-01-15T10:30:00Z",
		Periods: [][2]string{
			{"08:00", "08:50"},
			{"09:30", "10:45"},
			{"", ""},
		},
		Courses: raw,
	}
}

func TestParseCoursesMeetingMetadata(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"CS 1301": `["Intro to Computing", {"A": ["87695", [[1, "MWF", "Clough Commons 152", "", ["John Smith (P)", "Jane Doe"]]]]}]`,
	})

	courses, meta := ParseCourses(payload, nil, nil)

	if got := courses["CS 1301"]; !reflect.DeepEqual(got, []string{"87695"}) {
		t.Fatalf("expected single CRN 87695, got %v", got)
	}
	sm, ok := meta["87695"]
	if !ok {
		t.Fatal("expected metadata for CRN 87695")
	}
	if sm.Section != "A" {
		t.Errorf("expected section A, got %q", sm.Section)
	}
	if sm.StartTime != "09:30" || sm.EndTime != "10:45" {
		t.Errorf("unexpected period: %q - %q", sm.StartTime, sm.EndTime)
	}
	if sm.Days != "MWF" {
		t.Errorf("expected days MWF, got %q", sm.Days)
	}
	if sm.Building != "Clough Commons" || sm.Room != "152" {
		t.Errorf("unexpected location split: building %q, room %q", sm.Building, sm.Room)
	}
	if sm.PrimaryInstructors != "John Smith" {
		t.Errorf("expected primary John Smith, got %q", sm.PrimaryInstructors)
	}
	if sm.AdditionalInstructors != "Jane Doe" {
		t.Errorf("expected additional Jane Doe, got %q", sm.AdditionalInstructors)
	}
}

func TestParseCoursesTBALocation(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"CS 2050": `["Discrete Math", {"A": ["10001", [[2, "TR", "TBA", "", []]]]}]`,
	})

	_, meta := ParseCourses(payload, nil, nil)
	sm := meta["10001"]
	if sm.Building != "" || sm.Room != "" {
		t.Errorf("TBA location should yield empty building and room, got %q %q", sm.Building, sm.Room)
	}
	if sm.StartTime != "" || sm.EndTime != "" {
		t.Errorf("TBA period should yield empty times, got %q %q", sm.StartTime, sm.EndTime)
	}
}

func TestParseCoursesSectionWithoutMeetings(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"MATH 1554": `["Linear Algebra", {"Q": ["20002", []]}]`,
	})

	courses, meta := ParseCourses(payload, nil, nil)
	if got := courses["MATH 1554"]; !reflect.DeepEqual(got, []string{"20002"}) {
		t.Fatalf("CRN without meetings must still be listed, got %v", got)
	}
	if _, ok := meta["20002"]; ok {
		t.Error("CRN without meetings must not get metadata")
	}
}

func TestParseCoursesSubjectFilter(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"CS 1301":   `["Intro", {"A": ["1", [[0, "M", "Howey L1", "", []]]]}]`,
		"MATH 1554": `["LinAlg", {"A": ["2", [[0, "M", "Howey L2", "", []]]]}]`,
	})

	courses, _ := ParseCourses(payload, []string{"CS"}, nil)
	if len(courses) != 1 {
		t.Fatalf("expected 1 course after subject filter, got %d", len(courses))
	}
	if _, ok := courses["CS 1301"]; !ok {
		t.Error("expected CS 1301 to pass the subject filter")
	}
}

func TestParseCoursesRangeFilter(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"CS 1301": `["Intro", {"A": ["1", []]}]`,
		"CS 4641": `["ML", {"A": ["2", []]}]`,
		"CS 7641": `["ML grad", {"A": ["3", []]}]`,
	})

	ranges := []models.CourseRange{{Low: 1000, High: 2999}, {Low: 7000, High: 7999}}
	courses, _ := ParseCourses(payload, nil, ranges)
	if len(courses) != 2 {
		t.Fatalf("expected 2 courses after range filter, got %d", len(courses))
	}
	if _, ok := courses["CS 4641"]; ok {
		t.Error("CS 4641 should be excluded by the range filter")
	}
}

func TestParseCoursesBoundaryInclusive(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"CS 1000": `["Low", {"A": ["1", []]}]`,
		"CS 2999": `["High", {"A": ["2", []]}]`,
	})

	courses, _ := ParseCourses(payload, nil, []models.CourseRange{{Low: 1000, High: 2999}})
	if len(courses) != 2 {
		t.Fatalf("range bounds must be inclusive, got %d courses", len(courses))
	}
}

func TestParseCoursesMalformedTuple(t *testing.T) {
	payload := testPayload(t, map[string]string{
		"CS 1301": `"not a tuple"`,
		"CS 2050": `["ok", {"A": ["42", []]}]`,
		"Special Topics": `["no number", {}]`,
	})

	courses, _ := ParseCourses(payload, nil, nil)
	if len(courses) != 1 {
		t.Fatalf("malformed entries must be skipped, got %d courses", len(courses))
	}
	if _, ok := courses["CS 2050"]; !ok {
		t.Error("well-formed course should survive malformed siblings")
	}
}

func TestSplitLocation(t *testing.T) {
	cases := []struct {
		location string
		building string
		room     string
	}{
		{"Clough Commons 152", "Clough Commons", "152"},
		{"Howey L1", "Howey", "L1"},
		{"TBA", "", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		building, room := splitLocation(tc.location)
		if building != tc.building || room != tc.room {
			t.Errorf("splitLocation(%q) = %q, %q; want %q, %q",
				tc.location, building, room, tc.building, tc.room)
		}
	}
}

func TestSplitInstructors(t *testing.T) {
	primary, additional := splitInstructors([]string{"Ada Lovelace (P)", "Alan Turing", "Grace Hopper (P)"})
	if primary != "Ada Lovelace, Grace Hopper" {
		t.Errorf("unexpected primary instructors: %q", primary)
	}
	if additional != "Alan Turing" {
		t.Errorf("unexpected additional instructors: %q", additional)
	}
}

func TestBuildRecords(t *testing.T) {
	courses := map[string][]string{
		"CS 1301":   {"100", "101"},
		"MATH 1554": {"200"},
	}
	meta := map[string]SectionMeta{
		"100": {Section: "A", Building: "Clough Commons", Room: "152", Days: "MWF"},
	}
	actual := 30
	enrollment := map[string]models.Enrollment{
		"100": {Actual: &actual},
	}

	records := BuildRecords("202502", courses, meta, enrollment)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Term != "Spring 2025" {
		t.Errorf("expected display term, got %q", records[0].Term)
	}
	if records[0].Course != "CS 1301" || records[2].Course != "MATH 1554" {
		t.Error("records must be emitted in course-name order")
	}
	if records[0].Subject != "CS" {
		t.Errorf("expected subject CS, got %q", records[0].Subject)
	}
	if records[0].EnrollmentActual == nil || *records[0].EnrollmentActual != 30 {
		t.Error("enrollment numbers must join by CRN")
	}
	if records[1].EnrollmentActual != nil {
		t.Error("CRN without enrollment data must stay nil")
	}
	if records[1].Building != "" || records[1].Section != "" {
		t.Error("CRN without metadata must keep empty meeting fields")
	}
}
