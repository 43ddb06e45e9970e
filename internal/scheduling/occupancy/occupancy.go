// Package occupancy implements the Occupancy Compiler (spec §4.4): it
// converts existing-schedule records and one-off occupied-slot records
// into forbidden (resource, global-slot) pairs, one set for rooms and one
// for lecturers.
package occupancy

import (
	"time"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/calendar"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/registry"
)

// ExistingScheduleRecord mirrors scheduling.ExistingScheduleRecord without
// importing the parent package, keeping this a leaf package per the
// bottom-up component design.
type ExistingScheduleRecord struct {
	RoomID     string
	LecturerID string
	TimeSlotID string
	DayOfWeek  string
	StartDate  time.Time
	EndDate    time.Time
}

// OccupiedResourceSlot mirrors scheduling.OccupiedResourceSlot.
type OccupiedResourceSlot struct {
	Kind       string // "ROOM" | "LECTURER"
	ResourceID string
	Date       time.Time
	TimeSlotID string
}

// Warning is a non-fatal diagnostic for an occupancy record that is skipped
// because it names an unknown time slot, resource kind or resource (an
// existing-schedule record is skipped only when both its room and lecturer
// are unknown). Dates on a holiday, outside the semester or on a disallowed
// day of week are skipped without a warning.
type Warning struct {
	Reason string
}

// Forbidden holds the compiled forbidden-slot sets, keyed by dense
// resource index.
type Forbidden struct {
	Room     map[int]map[int]struct{}
	Lecturer map[int]map[int]struct{}
}

func newForbidden() *Forbidden {
	return &Forbidden{
		Room:     make(map[int]map[int]struct{}),
		Lecturer: make(map[int]map[int]struct{}),
	}
}

// RoomOccupied reports whether a room is forbidden at a global slot.
func (f *Forbidden) RoomOccupied(roomIdx, slot int) bool {
	slots, ok := f.Room[roomIdx]
	if !ok {
		return false
	}
	_, occupied := slots[slot]
	return occupied
}

// LecturerOccupied reports whether a lecturer is forbidden at a global slot.
func (f *Forbidden) LecturerOccupied(lecturerIdx, slot int) bool {
	slots, ok := f.Lecturer[lecturerIdx]
	if !ok {
		return false
	}
	_, occupied := slots[slot]
	return occupied
}

func (f *Forbidden) markRoom(roomIdx, slot int) {
	if f.Room[roomIdx] == nil {
		f.Room[roomIdx] = make(map[int]struct{})
	}
	f.Room[roomIdx][slot] = struct{}{}
}

func (f *Forbidden) markLecturer(lecturerIdx, slot int) {
	if f.Lecturer[lecturerIdx] == nil {
		f.Lecturer[lecturerIdx] = make(map[int]struct{})
	}
	f.Lecturer[lecturerIdx][slot] = struct{}{}
}

// Compile converts existing-schedule and occupied-slot records into
// forbidden (resource, globalSlot) pairs.
func Compile(
	idx *calendar.Index,
	reg *registry.Registry,
	existing []ExistingScheduleRecord,
	occupied []OccupiedResourceSlot,
) (*Forbidden, []Warning) {
	forbidden := newForbidden()
	var warnings []Warning

	for _, rec := range existing {
		roomIdx, roomOK := reg.RoomIndex(rec.RoomID)
		lectIdx, lectOK := reg.LecturerIndex(rec.LecturerID)
		tsIdx, tsOK := reg.TimeSlotIndex(rec.TimeSlotID)
		if !tsOK {
			warnings = append(warnings, Warning{Reason: "existing schedule references unknown time slot " + rec.TimeSlotID})
			continue
		}
		if !roomOK && !lectOK {
			warnings = append(warnings, Warning{Reason: "existing schedule references unknown room and lecturer"})
			continue
		}
		shift := reg.ShiftOf(tsIdx)

		start := normalizeDate(rec.StartDate)
		end := normalizeDate(rec.EndDate)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			weekIdx, dayIdx, ok := idx.WeekDayOf(d)
			if !ok {
				// holiday, out of semester range, or disallowed day of week
				continue
			}
			if dayName(d) != rec.DayOfWeek {
				continue
			}
			slot, ok := idx.SlotOf(weekIdx, dayIdx, shift)
			if !ok {
				continue
			}
			if roomOK {
				forbidden.markRoom(roomIdx, slot)
			}
			if lectOK {
				forbidden.markLecturer(lectIdx, slot)
			}
		}
	}

	for _, rec := range occupied {
		tsIdx, tsOK := reg.TimeSlotIndex(rec.TimeSlotID)
		if !tsOK {
			warnings = append(warnings, Warning{Reason: "occupied slot references unknown time slot " + rec.TimeSlotID})
			continue
		}
		shift := reg.ShiftOf(tsIdx)
		weekIdx, dayIdx, ok := idx.WeekDayOf(normalizeDate(rec.Date))
		if !ok {
			// Holiday wins: occupancy on a holiday is ignored.
			continue
		}
		slot, ok := idx.SlotOf(weekIdx, dayIdx, shift)
		if !ok {
			continue
		}
		switch rec.Kind {
		case "ROOM":
			if roomIdx, ok := reg.RoomIndex(rec.ResourceID); ok {
				forbidden.markRoom(roomIdx, slot)
			} else {
				warnings = append(warnings, Warning{Reason: "occupied slot references unknown room " + rec.ResourceID})
			}
		case "LECTURER":
			if lectIdx, ok := reg.LecturerIndex(rec.ResourceID); ok {
				forbidden.markLecturer(lectIdx, slot)
			} else {
				warnings = append(warnings, Warning{Reason: "occupied slot references unknown lecturer " + rec.ResourceID})
			}
		default:
			warnings = append(warnings, Warning{Reason: "occupied slot has unknown resource kind " + rec.Kind})
		}
	}

	return forbidden, warnings
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var weekdayNames = [...]string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

func dayName(t time.Time) string {
	return weekdayNames[int(t.Weekday())]
}
