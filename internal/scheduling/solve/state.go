package solve

import (
	"context"
	"sort"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/model"
)

// state is the solver's mutable search state: which (resource, global slot)
// pairs are already taken by groups placed so far, plus the running load per
// lecturer, used to try the lightest-loaded lecturer first and by the
// BALANCE_LOAD rebalancing pass.
type state struct {
	m *model.Model

	busyLecturer map[int]map[int]struct{}
	busyRoom     map[int]map[int]struct{}
	lecturerLoad []int // sessions assigned, indexed by lecturer

	assignments []Assignment
}

func newState(m *model.Model) *state {
	return &state{
		m:            m,
		busyLecturer: make(map[int]map[int]struct{}),
		busyRoom:     make(map[int]map[int]struct{}),
		lecturerLoad: make([]int, m.NumLecturers),
	}
}

func (st *state) lecturerFree(lect, slot int) bool {
	if st.m.Forbidden != nil && st.m.Forbidden.LecturerOccupied(lect, slot) {
		return false
	}
	if occ, ok := st.busyLecturer[lect]; ok {
		if _, taken := occ[slot]; taken {
			return false
		}
	}
	return true
}

func (st *state) roomFree(room, slot int) bool {
	if st.m.Forbidden != nil && st.m.Forbidden.RoomOccupied(room, slot) {
		return false
	}
	if occ, ok := st.busyRoom[room]; ok {
		if _, taken := occ[slot]; taken {
			return false
		}
	}
	return true
}

func (st *state) occupyLecturer(lect, slot int) {
	if st.busyLecturer[lect] == nil {
		st.busyLecturer[lect] = make(map[int]struct{})
	}
	st.busyLecturer[lect][slot] = struct{}{}
}

func (st *state) occupyRoom(room, slot int) {
	if st.busyRoom[room] == nil {
		st.busyRoom[room] = make(map[int]struct{})
	}
	st.busyRoom[room][slot] = struct{}{}
}

func (st *state) releaseLecturer(lect, slot int) {
	delete(st.busyLecturer[lect], slot)
}

func (st *state) releaseRoom(room, slot int) {
	delete(st.busyRoom[room], slot)
}

// placeGroup finds a feasible (lecturer, start_week, k weekly tuples) for
// group gi, preferring the lightest-loaded lecturer and the earliest start
// week (spec §4.5.3 BALANCE_LOAD / EARLY_START), without mutating state.
func (st *state) placeGroup(gi int) (Assignment, bool) {
	g := st.m.Groups[gi]

	lecturers := append([]int(nil), g.EligibleLecturers...)
	sort.SliceStable(lecturers, func(i, j int) bool {
		li, lj := lecturers[i], lecturers[j]
		if st.lecturerLoad[li] != st.lecturerLoad[lj] {
			return st.lecturerLoad[li] < st.lecturerLoad[lj]
		}
		return li < lj
	})

	lastStart := st.m.TotalCalendarWeeks - g.CourseWeeks
	for _, lect := range lecturers {
		for startWeek := 0; startWeek <= lastStart; startWeek++ {
			weekly, ok := st.findWeeklyTuples(lect, startWeek, g)
			if !ok {
				continue
			}
			return Assignment{
				GroupIndex:         gi,
				LecturerIdx:        lect,
				StartWeek:          startWeek,
				Weekly:             weekly,
				SessionGlobalSlots: st.fillWeeks(startWeek, g, weekly),
			}, true
		}
	}
	return Assignment{}, false
}

// findWeeklyTuples looks for k distinct (day, shift) pairs where lect is
// free at the corresponding global slot in every one of the group's W
// weeks, each paired with a room that is free and capacity-eligible across
// those same weeks.
func (st *state) findWeeklyTuples(lect, startWeek int, g model.GroupSpec) ([]WeeklyTuple, bool) {
	cal := st.m.Calendar
	W := g.CourseWeeks
	k := g.SessionsPerWeek

	rooms := st.roomOrder(g.StudentCount)

	var tuples []WeeklyTuple
	used := make(map[int]bool) // days already consumed by a chosen tuple

	for day := 0; day < st.m.NumDays && len(tuples) < k; day++ {
		if used[day] {
			continue
		}
		spanActive := true
		for w := 0; w < W; w++ {
			if !cal.IsActiveWeekDay(startWeek+w, day) {
				spanActive = false
				break
			}
		}
		if !spanActive {
			continue
		}

		for shift := 0; shift < st.m.NumShifts && len(tuples) < k; shift++ {
			slots := make([]int, W)
			lecturerOK := true
			for w := 0; w < W; w++ {
				slot, ok := cal.SlotOf(startWeek+w, day, shift)
				if !ok || !st.lecturerFree(lect, slot) {
					lecturerOK = false
					break
				}
				slots[w] = slot
			}
			if !lecturerOK {
				continue
			}

			room, ok := st.pickRoom(rooms, slots)
			if !ok {
				continue
			}
			tuples = append(tuples, WeeklyTuple{DayIdx: day, ShiftIdx: shift, RoomIdx: room})
			used[day] = true
		}
	}

	if len(tuples) < k {
		return nil, false
	}
	return tuples, true
}

// roomOrder ranks rooms by fitness for a group of studentCount students:
// capacity must be at least studentCount, ties broken by tightest fit, then
// by index for determinism.
func (st *state) roomOrder(studentCount int) []int {
	rooms := make([]int, 0, st.m.NumRooms)
	for r := 0; r < st.m.NumRooms; r++ {
		if st.m.RoomCapacities[r] >= studentCount {
			rooms = append(rooms, r)
		}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		ci, cj := st.m.RoomCapacities[rooms[i]], st.m.RoomCapacities[rooms[j]]
		if ci != cj {
			return ci < cj
		}
		return rooms[i] < rooms[j]
	})
	return rooms
}

// pickRoom returns the first room (in the caller's preference order) that
// is free at every slot in slots.
func (st *state) pickRoom(rooms []int, slots []int) (int, bool) {
	for _, r := range rooms {
		free := true
		for _, slot := range slots {
			if !st.roomFree(r, slot) {
				free = false
				break
			}
		}
		if free {
			return r, true
		}
	}
	return 0, false
}

// fillWeeks distributes T sessions across W weeks, k per week except a
// possible remainder in the last week, assigning weekly tuples in index
// order within each week.
func (st *state) fillWeeks(startWeek int, g model.GroupSpec, weekly []WeeklyTuple) [][]int {
	cal := st.m.Calendar
	W := g.CourseWeeks
	k := g.SessionsPerWeek
	remaining := g.TotalSessions

	out := make([][]int, W)
	for w := 0; w < W; w++ {
		count := k
		if remaining < k {
			count = remaining
		}
		slots := make([]int, 0, count)
		for i := 0; i < count; i++ {
			t := weekly[i]
			slot, _ := cal.SlotOf(startWeek+w, t.DayIdx, t.ShiftIdx)
			slots = append(slots, slot)
		}
		out[w] = slots
		remaining -= count
	}
	return out
}

// commit marks a found assignment's slots busy and records the running
// lecturer load.
func (st *state) commit(a Assignment) {
	for _, weekSlots := range a.SessionGlobalSlots {
		for i, slot := range weekSlots {
			st.occupyLecturer(a.LecturerIdx, slot)
			st.occupyRoom(a.Weekly[i%len(a.Weekly)].RoomIdx, slot)
		}
	}
	st.lecturerLoad[a.LecturerIdx] += st.m.Groups[a.GroupIndex].TotalSessions
	st.assignments = append(st.assignments, a)
}

// improve runs a bounded deterministic local-search pass over committed
// assignments, re-homing groups from the most-loaded eligible lecturer to
// the least-loaded one when a swap is feasible, to reduce load imbalance
// (spec §4.5.3 BALANCE_LOAD). Mirrors the teacher's bounded-iteration
// repair pattern rather than an unbounded search.
func (st *state) improve(ctx context.Context, m *model.Model) {
	if !m.ObjectiveLoadImbalance {
		return
	}
	const maxPasses = 12
	for pass := 0; pass < maxPasses; pass++ {
		if deadlineExceeded(ctx) {
			return
		}
		if !st.tryOneRebalance() {
			return
		}
	}
}

// tryOneRebalance attempts a single load-balancing re-assignment: take the
// most-loaded and least-loaded lecturers overall, and move one of the
// heavier lecturer's groups that the lighter one is eligible for and free at
// every slot of. Returns true if a move was made; no other pair of lecturers
// is tried.
func (st *state) tryOneRebalance() bool {
	if len(st.lecturerLoad) < 2 {
		return false
	}
	maxL, minL := 0, 0
	for l := 1; l < len(st.lecturerLoad); l++ {
		if st.lecturerLoad[l] > st.lecturerLoad[maxL] {
			maxL = l
		}
		if st.lecturerLoad[l] < st.lecturerLoad[minL] {
			minL = l
		}
	}
	if st.lecturerLoad[maxL]-st.lecturerLoad[minL] < 2 {
		return false
	}

	for i := range st.assignments {
		a := &st.assignments[i]
		if a.LecturerIdx != maxL {
			continue
		}
		g := st.m.Groups[a.GroupIndex]
		if !containsInt(g.EligibleLecturers, minL) {
			continue
		}
		if !st.lecturerFreeForAllSlots(minL, a.SessionGlobalSlots) {
			continue
		}
		st.moveLecturer(a, maxL, minL)
		return true
	}
	return false
}

func (st *state) lecturerFreeForAllSlots(candidate int, sessions [][]int) bool {
	for _, week := range sessions {
		for _, slot := range week {
			if !st.lecturerFree(candidate, slot) {
				return false
			}
		}
	}
	return true
}

func (st *state) moveLecturer(a *Assignment, from, to int) {
	total := 0
	for _, week := range a.SessionGlobalSlots {
		for _, slot := range week {
			st.releaseLecturer(from, slot)
			st.occupyLecturer(to, slot)
			total++
		}
	}
	st.lecturerLoad[from] -= total
	st.lecturerLoad[to] += total
	a.LecturerIdx = to
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
