package models

// SectionRecord represents one scheduled meeting of one course section as
// parsed from a term payload. Empty string fields mean the value was not
// present in the source data; nil numeric fields mean the upstream
// enrollment source did not report them.
type SectionRecord struct {
	Term                     string `csv:"Term"`
	Subject                  string `csv:"Subject"`
	Course                   string `csv:"Course"`
	CRN                      string `csv:"CRN"`
	Section                  string `csv:"Section"`
	StartTime                string `csv:"Start Time"`
	EndTime                  string `csv:"End Time"`
	Days                     string `csv:"Days"`
	Building                 string `csv:"Building"`
	Room                     string `csv:"Room"`
	PrimaryInstructors       string `csv:"Primary Instructor(s)"`
	AdditionalInstructors    string `csv:"Additional Instructor(s)"`
	EnrollmentActual         *int   `csv:"Enrollment Actual"`
	EnrollmentMaximum        *int   `csv:"Enrollment Maximum"`
	EnrollmentSeatsAvailable *int   `csv:"Enrollment Seats Available"`
	WaitlistCapacity         *int   `csv:"Waitlist Capacity"`
	WaitlistActual           *int   `csv:"Waitlist Actual"`
	WaitlistSeatsAvailable   *int   `csv:"Waitlist Seats Available"`
}

// EnrichedRecord is a SectionRecord joined with building code and room
// capacity reference data. RoomCapacity and Loss stay nil when no capacity
// entry matched the section's room.
type EnrichedRecord struct {
	SectionRecord
	BuildingCode string   `csv:"Building Code"`
	RoomCapacity *float64 `csv:"Room Capacity"`
	Loss         *float64 `csv:"Loss"`
}

// GroupedRecord is the result of collapsing EnrichedRecords that share a
// room and meeting time (crosslisted courses). Identity fields carry
// comma-joined unique values, numeric fields are summed and Count records
// how many section rows were merged.
type GroupedRecord struct {
	Term                     string   `csv:"Term"`
	StartTime                string   `csv:"Start Time"`
	EndTime                  string   `csv:"End Time"`
	Days                     string   `csv:"Days"`
	Building                 string   `csv:"Building"`
	BuildingCode             string   `csv:"Building Code"`
	Room                     string   `csv:"Room"`
	RoomCapacity             *float64 `csv:"Room Capacity"`
	Subject                  string   `csv:"Subject"`
	Course                   string   `csv:"Course"`
	CRN                      string   `csv:"CRN"`
	Section                  string   `csv:"Section"`
	PrimaryInstructors       string   `csv:"Primary Instructor(s)"`
	AdditionalInstructors    string   `csv:"Additional Instructor(s)"`
	EnrollmentActual         int      `csv:"Enrollment Actual"`
	EnrollmentMaximum        int      `csv:"Enrollment Maximum"`
	EnrollmentSeatsAvailable int      `csv:"Enrollment Seats Available"`
	WaitlistCapacity         int      `csv:"Waitlist Capacity"`
	WaitlistActual           int      `csv:"Waitlist Actual"`
	WaitlistSeatsAvailable   int      `csv:"Waitlist Seats Available"`
	Loss                     float64  `csv:"Loss"`
	Count                    int      `csv:"Count"`
}

// Enrollment holds the per-CRN seat numbers scraped from the enrollment
// detail source. Absent fields are nil, never zero.
type Enrollment struct {
	Actual         *int
	Maximum        *int
	SeatsAvailable *int

	WaitlistCapacity       *int
	WaitlistActual         *int
	WaitlistSeatsAvailable *int
}
