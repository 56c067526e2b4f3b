package processing

import (
	"sort"
	"strconv"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/logger"
)

// groupKey identifies one room-and-meeting-time slot. Capacity is part of
// the key as its formatted value so rows without a capacity still group.
type groupKey struct {
	Term         string
	StartTime    string
	EndTime      string
	Days         string
	Building     string
	BuildingCode string
	Room         string
	Capacity     string
}

func keyOf(rec models.EnrichedRecord) groupKey {
	capacity := ""
	if rec.RoomCapacity != nil {
		capacity = strconv.FormatFloat(*rec.RoomCapacity, 'g', -1, 64)
	}
	return groupKey{
		Term:         rec.Term,
		StartTime:    rec.StartTime,
		EndTime:      rec.EndTime,
		Days:         rec.Days,
		Building:     rec.Building,
		BuildingCode: rec.BuildingCode,
		Room:         rec.Room,
		Capacity:     capacity,
	}
}

// accumulator aggregates the rows of one group while it is being built.
type accumulator struct {
	first models.EnrichedRecord

	subjects    *uniqueList
	courses     *uniqueList
	crns        *uniqueList
	sections    *uniqueList
	primaries   *uniqueList
	additionals *uniqueList

	enrollmentActual         int
	enrollmentMaximum        int
	enrollmentSeatsAvailable int
	waitlistCapacity         int
	waitlistActual           int
	waitlistSeatsAvailable   int
	loss                     float64
	count                    int
}

// Group collapses enriched records that share a room and meeting time into
// one row per slot, so crosslisted sections taught together count once.
// Identity columns keep every distinct value comma-joined in first-seen
// order, seat counts and Loss are summed, Count is the number of merged
// rows. Groups come back sorted by their key columns.
func Group(records []models.EnrichedRecord) []models.GroupedRecord {
	groups := make(map[groupKey]*accumulator)
	order := make([]groupKey, 0)

	for _, rec := range records {
		key := keyOf(rec)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{
				first:       rec,
				subjects:    newUniqueList(),
				courses:     newUniqueList(),
				crns:        newUniqueList(),
				sections:    newUniqueList(),
				primaries:   newUniqueList(),
				additionals: newUniqueList(),
			}
			groups[key] = acc
			order = append(order, key)
		}

		acc.subjects.add(rec.Subject)
		acc.courses.add(rec.Course)
		acc.crns.add(rec.CRN)
		acc.sections.add(rec.Section)
		acc.primaries.add(rec.PrimaryInstructors)
		acc.additionals.add(rec.AdditionalInstructors)

		acc.enrollmentActual += intOrZero(rec.EnrollmentActual)
		acc.enrollmentMaximum += intOrZero(rec.EnrollmentMaximum)
		acc.enrollmentSeatsAvailable += intOrZero(rec.EnrollmentSeatsAvailable)
		acc.waitlistCapacity += intOrZero(rec.WaitlistCapacity)
		acc.waitlistActual += intOrZero(rec.WaitlistActual)
		acc.waitlistSeatsAvailable += intOrZero(rec.WaitlistSeatsAvailable)
		if rec.Loss != nil {
			acc.loss += *rec.Loss
		}
		acc.count++
	}

	sort.Slice(order, func(i, j int) bool { return lessKey(order[i], order[j]) })

	grouped := make([]models.GroupedRecord, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		grouped = append(grouped, models.GroupedRecord{
			Term:                     key.Term,
			StartTime:                key.StartTime,
			EndTime:                  key.EndTime,
			Days:                     key.Days,
			Building:                 key.Building,
			BuildingCode:             key.BuildingCode,
			Room:                     key.Room,
			RoomCapacity:             acc.first.RoomCapacity,
			Subject:                  acc.subjects.join(),
			Course:                   acc.courses.join(),
			CRN:                      acc.crns.join(),
			Section:                  acc.sections.join(),
			PrimaryInstructors:       acc.primaries.join(),
			AdditionalInstructors:    acc.additionals.join(),
			EnrollmentActual:         acc.enrollmentActual,
			EnrollmentMaximum:        acc.enrollmentMaximum,
			EnrollmentSeatsAvailable: acc.enrollmentSeatsAvailable,
			WaitlistCapacity:         acc.waitlistCapacity,
			WaitlistActual:           acc.waitlistActual,
			WaitlistSeatsAvailable:   acc.waitlistSeatsAvailable,
			Loss:                     acc.loss,
			Count:                    acc.count,
		})
	}

	logger.Info().
		Int("records", len(records)).
		Int("groups", len(grouped)).
		Msg("Grouped section records by room and meeting time")
	return grouped
}

func lessKey(a, b groupKey) bool {
	if a.Term != b.Term {
		return a.Term < b.Term
	}
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	if a.EndTime != b.EndTime {
		return a.EndTime < b.EndTime
	}
	if a.Days != b.Days {
		return a.Days < b.Days
	}
	if a.Building != b.Building {
		return a.Building < b.Building
	}
	if a.BuildingCode != b.BuildingCode {
		return a.BuildingCode < b.BuildingCode
	}
	if a.Room != b.Room {
		return a.Room < b.Room
	}
	return a.Capacity < b.Capacity
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// uniqueList keeps distinct non-empty values in first-seen order.
type uniqueList struct {
	seen   map[string]struct{}
	values []string
}

func newUniqueList() *uniqueList {
	return &uniqueList{seen: make(map[string]struct{})}
}

func (l *uniqueList) add(v string) {
	if v == "" {
		return
	}
	if _, ok := l.seen[v]; ok {
		return
	}
	l.seen[v] = struct{}{}
	l.values = append(l.values, v)
}

func (l *uniqueList) join() string {
	out := ""
	for i, v := range l.values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
