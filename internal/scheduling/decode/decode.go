// Package decode implements the Result Decoder (spec §4.7): it translates
// a solved model back into the public Response shape, resolving dense
// indices back to caller-supplied IDs and concrete calendar dates. It only
// ever runs against an OPTIMAL or FEASIBLE solution; other terminal states
// are reported by the orchestrator without a decode pass.
package decode

import (
	"sort"
	"time"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/model"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/solve"
)

// CourseResult, ClassGroupResult, WeeklyScheduleDetail and LecturerLoad
// mirror the public scheduling package's shapes without importing it,
// keeping this a leaf package per the bottom-up component design; the
// orchestrator copies these into scheduling.Response verbatim.
type WeeklyScheduleDetail struct {
	DayOfWeek      string
	TimeSlotID     string
	RoomID         string
	ScheduledDates []time.Time
}

type ClassGroupResult struct {
	GroupNumber                int
	MaxStudents                int
	LecturerID                 string
	GroupStartDate             time.Time
	GroupEndDate               time.Time
	TotalTeachingWeeksForGroup int
	SessionsPerWeekForGroup    int
	WeeklyScheduleDetails      []WeeklyScheduleDetail
}

type CourseResult struct {
	CourseID                string
	TotalRegisteredStudents int
	TotalSessionsForCourse  int
	ScheduledClassGroups    []ClassGroupResult
}

type LecturerLoad struct {
	LecturerID       string
	SessionsAssigned int
}

// Decode translates a solved model + solution into the ordered, ID-resolved
// result shape described by spec §5 (courses in input order, groups by
// group number, weekly details by (day, shift), session dates ascending).
func Decode(m *model.Model, sol *solve.Solution) ([]CourseResult, []LecturerLoad) {
	reg := m.Registry
	cal := m.Calendar

	byCourse := make(map[string]*CourseResult)
	var courseOrder []string
	sessionsAssigned := make([]int, m.NumLecturers)

	for gi, g := range m.Groups {
		a := sol.Assignments[gi]
		if len(a.Weekly) == 0 && len(a.SessionGlobalSlots) == 0 {
			// Group never placed (shouldn't happen for a FEASIBLE/OPTIMAL
			// solution, but guards against a partially-populated solution).
			continue
		}

		cr, ok := byCourse[g.CourseID]
		if !ok {
			cr = &CourseResult{CourseID: g.CourseID}
			byCourse[g.CourseID] = cr
			courseOrder = append(courseOrder, g.CourseID)
		}
		cr.TotalRegisteredStudents += g.StudentCount
		cr.TotalSessionsForCourse += g.TotalSessions

		weekly := append([]solve.WeeklyTuple(nil), a.Weekly...)
		sort.Slice(weekly, func(i, j int) bool {
			if weekly[i].DayIdx != weekly[j].DayIdx {
				return weekly[i].DayIdx < weekly[j].DayIdx
			}
			return weekly[i].ShiftIdx < weekly[j].ShiftIdx
		})

		details := make([]WeeklyScheduleDetail, 0, len(weekly))
		for _, t := range weekly {
			timeSlotID, _ := reg.TimeSlotIDByShift(t.ShiftIdx)
			dates := make([]time.Time, 0, g.CourseWeeks)
			for w := 0; w < g.CourseWeeks; w++ {
				date, ok := cal.DateOf(a.StartWeek+w, t.DayIdx)
				if !ok {
					continue
				}
				dates = append(dates, date)
			}
			details = append(details, WeeklyScheduleDetail{
				DayOfWeek:      reg.DayName(t.DayIdx),
				TimeSlotID:     timeSlotID,
				RoomID:         reg.RoomID(t.RoomIdx),
				ScheduledDates: dates,
			})
		}

		startDate, endDate := groupDateRange(details)

		cr.ScheduledClassGroups = append(cr.ScheduledClassGroups, ClassGroupResult{
			GroupNumber:                g.GroupNumber,
			MaxStudents:                g.StudentCount,
			LecturerID:                 reg.LecturerID(a.LecturerIdx),
			GroupStartDate:             startDate,
			GroupEndDate:               endDate,
			TotalTeachingWeeksForGroup: g.CourseWeeks,
			SessionsPerWeekForGroup:    g.SessionsPerWeek,
			WeeklyScheduleDetails:      details,
		})

		sessionsAssigned[a.LecturerIdx] += g.TotalSessions
	}

	results := make([]CourseResult, 0, len(courseOrder))
	for _, id := range courseOrder {
		cr := byCourse[id]
		sort.Slice(cr.ScheduledClassGroups, func(i, j int) bool {
			return cr.ScheduledClassGroups[i].GroupNumber < cr.ScheduledClassGroups[j].GroupNumber
		})
		results = append(results, *cr)
	}

	loads := make([]LecturerLoad, 0, m.NumLecturers)
	for l := 0; l < m.NumLecturers; l++ {
		loads = append(loads, LecturerLoad{
			LecturerID:       reg.LecturerID(l),
			SessionsAssigned: sessionsAssigned[l],
		})
	}

	return results, loads
}

func groupDateRange(details []WeeklyScheduleDetail) (start, end time.Time) {
	for _, d := range details {
		for _, dt := range d.ScheduledDates {
			if start.IsZero() || dt.Before(start) {
				start = dt
			}
			if end.IsZero() || dt.After(end) {
				end = dt
			}
		}
	}
	return start, end
}
