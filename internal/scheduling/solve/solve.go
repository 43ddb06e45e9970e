// Package solve implements the Solver Driver (spec §4.6): it runs a
// deterministic, single-threaded constraint-directed construction search
// over the model's decision-variable domains within a wall-clock budget,
// then (time permitting) a bounded deterministic local-search pass that,
// when BALANCE_LOAD is active, moves groups between lecturers to reduce load
// imbalance. The other objective terms get no search of their own; a
// solution with any objective active is reported FEASIBLE, never OPTIMAL.
// There is no randomized restart seed
// anywhere in this package — determinism is a contract (spec §5, §9).
package solve

import (
	"context"
	"sort"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/model"
)

// WeeklyTuple is one of a group's k fixed weekly (day, shift, room) slots.
type WeeklyTuple struct {
	DayIdx   int
	ShiftIdx int
	RoomIdx  int
}

// Assignment is the solved decision-variable values for one group.
type Assignment struct {
	GroupIndex  int // index into model.Model.Groups
	LecturerIdx int
	StartWeek   int
	Weekly      []WeeklyTuple // length k
	// SessionGlobalSlots[w] is the global slot of every session that falls
	// in course-week w (0-based), in weekly-tuple order; len(SessionGlobalSlots[w])
	// is k for every week except possibly the last, which may be a remainder.
	SessionGlobalSlots [][]int
}

// Solution is the solver driver's output.
type Solution struct {
	Status      model.Status
	Assignments []Assignment // parallel to, and same order as, model.Model.Groups
	Message     string
}

// Solve runs the constructive search then a bounded local-search
// improvement pass, honoring ctx's deadline as the sole timeout (spec §5:
// "the solver's wall-clock time limit is the only timeout").
func Solve(ctx context.Context, m *model.Model) *Solution {
	if m == nil {
		return &Solution{Status: model.StatusModelInvalid, Message: "nil model"}
	}

	order := groupOrder(m.Groups)

	st := newState(m)
	timedOut := false

	for _, gi := range order {
		if deadlineExceeded(ctx) {
			timedOut = true
			break
		}
		a, ok := st.placeGroup(gi)
		if !ok {
			return &Solution{Status: model.StatusInfeasible, Message: "no feasible placement for course " + m.Groups[gi].CourseID}
		}
		st.commit(a)
	}

	if timedOut {
		return &Solution{Status: model.StatusTimeout, Message: "solver time limit exceeded before a complete assignment was found"}
	}

	st.improve(ctx, m)

	status := model.StatusFeasible
	if !anyObjectiveActive(m) {
		status = model.StatusOptimal
	}

	// Assignments must be returned in the same order as m.Groups.
	ordered := make([]Assignment, len(m.Groups))
	for _, a := range st.assignments {
		ordered[a.GroupIndex] = a
	}

	return &Solution{Status: status, Assignments: ordered}
}

func anyObjectiveActive(m *model.Model) bool {
	return m.ObjectiveLoadImbalance || m.ObjectiveEarlyStart || m.ObjectiveCompactSchedule || m.ObjectiveRoomFit
}

// groupOrder applies a most-constrained-first heuristic: groups with
// fewer eligible lecturers, then more sessions-per-week, are placed first
// since they are the hardest to fit and benefit most from an empty board.
// Ties break on (courseIndex, groupNumber) to keep output deterministic.
func groupOrder(groups []model.GroupSpec) []int {
	idxs := make([]int, len(groups))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		a, b := groups[idxs[i]], groups[idxs[j]]
		if len(a.EligibleLecturers) != len(b.EligibleLecturers) {
			return len(a.EligibleLecturers) < len(b.EligibleLecturers)
		}
		if a.SessionsPerWeek != b.SessionsPerWeek {
			return a.SessionsPerWeek > b.SessionsPerWeek
		}
		if a.CourseIndex != b.CourseIndex {
			return a.CourseIndex < b.CourseIndex
		}
		return a.GroupNumber < b.GroupNumber
	})
	return idxs
}

// deadlineExceeded is a small helper kept separate so improve() can poll
// it without importing time directly in the hot loop above.
func deadlineExceeded(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
