package scheduling

import (
	"context"
	"time"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/calendar"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/decode"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/model"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/occupancy"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/preprocess"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/registry"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/solve"
)

// Solve is the scheduling core's single entry point (§CORE 2): it wires the
// calendar indexer, resource registry, course preprocessor, occupancy
// compiler, constraint model builder, solver driver and result decoder into
// one call, and is the only package-level function this codebase's service
// layer calls into.
func Solve(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	holidays := make(map[string]struct{}, len(req.ExceptionDates))
	for _, d := range req.ExceptionDates {
		holidays[d.Format("2006-01-02")] = struct{}{}
	}

	cal, err := calendar.Build(req.SemesterStart, req.SemesterEnd, req.DaysOfWeek, numShifts(req.TimeSlots), holidays)
	if err != nil {
		return nil, wrapErr(KindEmptyCalendar, err, "failed to build calendar index")
	}

	rooms := make([]registry.RoomInput, len(req.Rooms))
	for i, r := range req.Rooms {
		rooms[i] = registry.RoomInput{ID: r.ID, Label: r.Label, Capacity: r.Capacity}
	}
	timeSlots := make([]registry.TimeSlotInput, len(req.TimeSlots))
	for i, ts := range req.TimeSlots {
		timeSlots[i] = registry.TimeSlotInput{ID: ts.ID, Shift: ts.Shift}
	}
	reg, err := registry.Build(req.LecturerIDs, rooms, timeSlots, req.DaysOfWeek)
	if err != nil {
		return nil, wrapErr(KindEmptyResource, err, "failed to build resource registry")
	}

	existing := make([]occupancy.ExistingScheduleRecord, len(req.ExistingSchedules))
	for i, e := range req.ExistingSchedules {
		existing[i] = occupancy.ExistingScheduleRecord{
			RoomID: e.RoomID, LecturerID: e.LecturerID, TimeSlotID: e.TimeSlotID,
			DayOfWeek: e.DayOfWeek, StartDate: e.StartDate, EndDate: e.EndDate,
		}
	}
	occupied := make([]occupancy.OccupiedResourceSlot, len(req.OccupiedSlots))
	for i, o := range req.OccupiedSlots {
		occupied[i] = occupancy.OccupiedResourceSlot{
			Kind: string(o.Kind), ResourceID: o.ResourceID, Date: o.Date, TimeSlotID: o.TimeSlotID,
		}
	}
	forbidden, _ := occupancy.Compile(cal, reg, existing, occupied)

	builder := model.NewBuilder(cal, forbidden, reg, reg.NumLecturers(), reg.NumRooms(), reg.NumDays(), reg.NumTimeSlots(), reg.RoomCapacities(), req.GroupSizeTarget)
	builder.WithObjectives(
		hasStrategy(req.ObjectiveStrategy, StrategyBalanceLoad),
		hasStrategy(req.ObjectiveStrategy, StrategyEarlyStart),
		hasStrategy(req.ObjectiveStrategy, StrategyCompactSchedule),
		hasStrategy(req.ObjectiveStrategy, StrategyOptimizeRoomFit),
	)

	totalOriginalSessions := 0
	for ci, course := range req.Courses {
		result, err := preprocess.Process(preprocess.Course{
			ID: course.ID, TotalSemesterSessions: course.TotalSemesterSessions,
			RegisteredStudents: course.RegisteredStudents, PotentialLecturerIDs: course.PotentialLecturerIDs,
		}, cal.TotalWeeks, req.GroupSizeTarget, req.MaxSessionsPerWeekAllowed)
		if err != nil {
			return nil, wrapErr(KindCourseDoesNotFit, err, "course %s cannot be scheduled", course.ID)
		}
		if len(result.Groups) == 0 {
			continue // R=0 or T=0: silently dropped (§CORE 4.3)
		}

		eligible := eligibleLecturerIndices(reg, course.PotentialLecturerIDs)
		if len(eligible) == 0 {
			return nil, newErr(KindNoEligibleLecturer, "course %s names no known lecturer", course.ID)
		}

		for _, g := range result.Groups {
			totalOriginalSessions += g.TotalSessions
			builder.AddGroup(course.ID, ci, g, eligible)
		}
	}

	m, err := builder.Finalize()
	if err != nil {
		return &Response{
			SemesterID:                      req.SemesterID,
			SemesterStartDate:               req.SemesterStart,
			SemesterEndDate:                 req.SemesterEnd,
			TotalOriginalSessionsToSchedule: totalOriginalSessions,
			SolverStatus:                    StatusModelInvalid,
			SolverMessage:                   err.Error(),
		}, nil
	}

	if len(m.Groups) == 0 {
		return &Response{
			SemesterID:        req.SemesterID,
			SemesterStartDate: req.SemesterStart,
			SemesterEndDate:   req.SemesterEnd,
			SolverStatus:      StatusNoSessionsToSchedule,
			SolverMessage:     "no course in the request yielded any session to schedule",
		}, nil
	}

	timeLimit := time.Duration(req.SolverTimeLimitSeconds) * time.Second
	solveCtx, cancel := context.WithTimeout(ctx, timeLimit)
	defer cancel()

	start := time.Now()
	sol := solve.Solve(solveCtx, m)
	duration := time.Since(start)

	resp := &Response{
		SemesterID:                      req.SemesterID,
		SemesterStartDate:               req.SemesterStart,
		SemesterEndDate:                 req.SemesterEnd,
		TotalOriginalSessionsToSchedule: totalOriginalSessions,
		SolverDurationSeconds:           duration.Seconds(),
		SolverStatus:                    SolverStatus(sol.Status),
		SolverMessage:                   sol.Message,
	}

	switch sol.Status {
	case model.StatusOptimal, model.StatusFeasible:
		courses, loads := decode.Decode(m, sol)
		resp.ScheduledCourses = toCourseResults(courses)
		resp.LecturerLoad = toLecturerLoads(loads)
		resp.LoadDifference = loadDifference(resp.LecturerLoad)
	default:
		// INFEASIBLE / TIMEOUT / MODEL_INVALID: a structured response with
		// an empty course list, never a transport-level error (§CORE 7).
	}

	return resp, nil
}

func numShifts(timeSlots []TimeSlot) int {
	count := 0
	for _, ts := range timeSlots {
		if ts.Shift+1 > count {
			count = ts.Shift + 1
		}
	}
	return count
}

func hasStrategy(strategies []ObjectiveStrategy, want ObjectiveStrategy) bool {
	for _, s := range strategies {
		if s == want {
			return true
		}
	}
	return false
}

func eligibleLecturerIndices(reg *registry.Registry, ids []string) []int {
	var out []int
	for _, id := range ids {
		if idx, ok := reg.LecturerIndex(id); ok {
			out = append(out, idx)
		}
	}
	return out
}

func toCourseResults(in []decode.CourseResult) []CourseResult {
	out := make([]CourseResult, len(in))
	for i, c := range in {
		groups := make([]ClassGroupResult, len(c.ScheduledClassGroups))
		for j, g := range c.ScheduledClassGroups {
			details := make([]WeeklyScheduleDetail, len(g.WeeklyScheduleDetails))
			for k, d := range g.WeeklyScheduleDetails {
				details[k] = WeeklyScheduleDetail{
					DayOfWeek:      d.DayOfWeek,
					TimeSlotID:     d.TimeSlotID,
					RoomID:         d.RoomID,
					ScheduledDates: d.ScheduledDates,
				}
			}
			groups[j] = ClassGroupResult{
				GroupNumber:                g.GroupNumber,
				MaxStudents:                g.MaxStudents,
				LecturerID:                 g.LecturerID,
				GroupStartDate:             g.GroupStartDate,
				GroupEndDate:               g.GroupEndDate,
				TotalTeachingWeeksForGroup: g.TotalTeachingWeeksForGroup,
				SessionsPerWeekForGroup:    g.SessionsPerWeekForGroup,
				WeeklyScheduleDetails:      details,
			}
		}
		out[i] = CourseResult{
			CourseID:                c.CourseID,
			TotalRegisteredStudents: c.TotalRegisteredStudents,
			TotalSessionsForCourse:  c.TotalSessionsForCourse,
			ScheduledClassGroups:    groups,
		}
	}
	return out
}

func toLecturerLoads(in []decode.LecturerLoad) []LecturerLoad {
	out := make([]LecturerLoad, len(in))
	for i, l := range in {
		out[i] = LecturerLoad{LecturerID: l.LecturerID, SessionsAssigned: l.SessionsAssigned}
	}
	return out
}

func loadDifference(loads []LecturerLoad) int {
	if len(loads) == 0 {
		return 0
	}
	lo, hi := loads[0].SessionsAssigned, loads[0].SessionsAssigned
	for _, l := range loads[1:] {
		if l.SessionsAssigned < lo {
			lo = l.SessionsAssigned
		}
		if l.SessionsAssigned > hi {
			hi = l.SessionsAssigned
		}
	}
	return hi - lo
}

func validateRequest(req Request) error {
	if req.SemesterID == "" {
		return newErr(KindInvalidInput, "semesterId is required")
	}
	if !req.SemesterEnd.After(req.SemesterStart) {
		return newErr(KindInvalidInput, "semesterEnd must be after semesterStart")
	}
	if len(req.Courses) == 0 {
		return newErr(KindInvalidInput, "at least one course is required")
	}
	if len(req.LecturerIDs) == 0 {
		return newErr(KindEmptyResource, "lecturerIds must not be empty")
	}
	if len(req.Rooms) == 0 {
		return newErr(KindEmptyResource, "rooms must not be empty")
	}
	if len(req.TimeSlots) == 0 {
		return newErr(KindEmptyResource, "timeSlots must not be empty")
	}
	if len(req.DaysOfWeek) == 0 {
		return newErr(KindEmptyResource, "daysOfWeek must not be empty")
	}
	if req.GroupSizeTarget <= 0 {
		return newErr(KindInvalidInput, "groupSizeTarget must be positive")
	}
	if req.MaxSessionsPerWeekAllowed <= 0 {
		return newErr(KindInvalidInput, "maxSessionsPerWeekAllowed must be positive")
	}
	if req.SolverTimeLimitSeconds <= 0 {
		return newErr(KindInvalidInput, "solverTimeLimitSeconds must be positive")
	}
	for _, c := range req.Courses {
		if c.ID == "" {
			return newErr(KindInvalidInput, "every course must have an id")
		}
	}
	return nil
}
