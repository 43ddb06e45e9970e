// Package model implements the Constraint Model Builder (spec §4.5): it
// accumulates decision variables and hard constraints in a mutable
// context, then hands off an immutable Model to the solver driver.
//
// The variables named in spec §4.5.1 (start_week[g], lecturer[g],
// day[g,i]/shift[g,i]/room[g,i], globalSlot[s]) are represented here as
// per-group/per-session domains rather than as opaque CP-SAT handles —
// this codebase has no CP-SAT binding available, so the solver driver
// (package solve) runs its own deterministic constraint-directed search
// over these domains instead of delegating to an external solver process.
// The hard constraints of §4.5.2 are encoded as domain restrictions plus
// checks the solver consults while assigning; see package solve.
package model

import (
	"fmt"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/calendar"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/occupancy"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/preprocess"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/registry"
)

// GroupSpec is the per-group portion of the decision-variable space:
// start_week[g] domain, lecturer[g] domain, and the group's k weekly
// (day, shift, room) tuples still to be decided.
type GroupSpec struct {
	CourseID        string
	CourseIndex     int
	GroupNumber     int
	StudentCount    int
	SessionsPerWeek int // k
	CourseWeeks     int // W
	TotalSessions   int // T
	EligibleLecturers []int // dense lecturer indices, course's potentialLecturerIds
}

// Model is the immutable, solver-ready constraint model. Once Finalize
// returns one, nothing in it is mutated again until the caller discards
// it at the end of the request (spec §5).
type Model struct {
	Groups []GroupSpec

	NumLecturers int
	NumRooms     int
	NumDays      int
	NumShifts    int
	TotalCalendarWeeks int

	RoomCapacities []int

	GroupSizeTarget int

	Calendar  *calendar.Index
	Forbidden *occupancy.Forbidden
	Registry  *registry.Registry

	ObjectiveLoadImbalance   bool
	ObjectiveEarlyStart      bool
	ObjectiveCompactSchedule bool
	ObjectiveRoomFit         bool
}

// Builder accumulates groups before Finalize. It is not safe for
// concurrent use — each request owns exactly one Builder (spec §5).
type Builder struct {
	groups []GroupSpec

	numLecturers int
	numRooms     int
	numDays      int
	numShifts    int
	totalWeeks   int

	roomCapacities []int
	groupSizeTarget int

	cal       *calendar.Index
	forbidden *occupancy.Forbidden
	reg       *registry.Registry

	objLoad, objEarly, objCompact, objRoomFit bool

	err error
}

// NewBuilder starts a model for a request-wide resource space.
func NewBuilder(cal *calendar.Index, forbidden *occupancy.Forbidden, reg *registry.Registry, numLecturers, numRooms, numDays, numShifts int, roomCapacities []int, groupSizeTarget int) *Builder {
	return &Builder{
		cal:             cal,
		forbidden:       forbidden,
		reg:             reg,
		numLecturers:    numLecturers,
		numRooms:        numRooms,
		numDays:         numDays,
		numShifts:       numShifts,
		totalWeeks:      cal.TotalWeeks,
		roomCapacities:  append([]int(nil), roomCapacities...),
		groupSizeTarget: groupSizeTarget,
	}
}

// WithObjectives activates the weighted objective terms named by the
// request's objectiveStrategy set (spec §4.5.3). FEASIBLE_ONLY (or an
// empty set) leaves every term off, making the problem pure feasibility.
func (b *Builder) WithObjectives(loadBalance, earlyStart, compact, roomFit bool) *Builder {
	b.objLoad, b.objEarly, b.objCompact, b.objRoomFit = loadBalance, earlyStart, compact, roomFit
	return b
}

// AddGroup registers one class group's decision variables. eligibleLecturers
// must be non-empty (spec: NoEligibleLecturer).
func (b *Builder) AddGroup(courseID string, courseIndex int, group preprocess.Group, eligibleLecturers []int) {
	if b.err != nil {
		return
	}
	if len(eligibleLecturers) == 0 {
		b.err = fmt.Errorf("course %s has no eligible lecturer", courseID)
		return
	}
	if group.CourseWeeks > b.totalWeeks {
		b.err = fmt.Errorf("course %s group %d needs %d weeks but only %d are available", courseID, group.GroupNumber, group.CourseWeeks, b.totalWeeks)
		return
	}
	b.groups = append(b.groups, GroupSpec{
		CourseID:          courseID,
		CourseIndex:       courseIndex,
		GroupNumber:       group.GroupNumber,
		StudentCount:      group.StudentCount,
		SessionsPerWeek:   group.SessionsPerWeek,
		CourseWeeks:       group.CourseWeeks,
		TotalSessions:     group.TotalSessions,
		EligibleLecturers: append([]int(nil), eligibleLecturers...),
	})
}

// Finalize validates the accumulated state and returns an immutable Model.
// A non-nil error here corresponds to the MODEL_INVALID solver state
// (spec §4.5.4): it indicates a builder invariant was violated.
func (b *Builder) Finalize() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.numLecturers <= 0 || b.numRooms <= 0 || b.numDays <= 0 || b.numShifts <= 0 {
		return nil, fmt.Errorf("model resource dimensions must be positive")
	}
	for _, g := range b.groups {
		for _, l := range g.EligibleLecturers {
			if l < 0 || l >= b.numLecturers {
				return nil, fmt.Errorf("group %s#%d references out-of-range lecturer index %d", g.CourseID, g.GroupNumber, l)
			}
		}
		if g.SessionsPerWeek <= 0 || g.SessionsPerWeek > b.numDays*b.numShifts {
			return nil, fmt.Errorf("group %s#%d has invalid sessions-per-week %d", g.CourseID, g.GroupNumber, g.SessionsPerWeek)
		}
	}
	return &Model{
		Groups:             b.groups,
		NumLecturers:       b.numLecturers,
		NumRooms:           b.numRooms,
		NumDays:            b.numDays,
		NumShifts:          b.numShifts,
		TotalCalendarWeeks: b.totalWeeks,
		RoomCapacities:     b.roomCapacities,
		GroupSizeTarget:    b.groupSizeTarget,
		Calendar:           b.cal,
		Forbidden:          b.forbidden,
		Registry:           b.reg,
		ObjectiveLoadImbalance:   b.objLoad,
		ObjectiveEarlyStart:      b.objEarly,
		ObjectiveCompactSchedule: b.objCompact,
		ObjectiveRoomFit:         b.objRoomFit,
	}, nil
}
