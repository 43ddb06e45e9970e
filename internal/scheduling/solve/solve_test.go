package solve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/calendar"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/model"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/occupancy"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/preprocess"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/registry"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func buildModel(t *testing.T, groups []preprocess.Group, eligible [][]int, numLecturers, numRooms int) *model.Model {
	t.Helper()
	cal, err := calendar.Build(date("2026-02-02"), date("2026-05-25"), []string{"MONDAY", "TUESDAY", "WEDNESDAY"}, 2, nil)
	require.NoError(t, err)

	lecturers := make([]string, numLecturers)
	for i := range lecturers {
		lecturers[i] = lecturerID(i)
	}
	rooms := make([]registry.RoomInput, numRooms)
	for i := range rooms {
		rooms[i] = registry.RoomInput{ID: roomID(i), Label: roomID(i), Capacity: 50}
	}
	reg, err := registry.Build(lecturers, rooms, []registry.TimeSlotInput{{ID: "ts-1", Shift: 0}, {ID: "ts-2", Shift: 1}}, []string{"MONDAY", "TUESDAY", "WEDNESDAY"})
	require.NoError(t, err)

	b := model.NewBuilder(cal, &occupancy.Forbidden{}, reg, numLecturers, numRooms, reg.NumDays(), reg.NumTimeSlots(), reg.RoomCapacities(), 60)
	for i, g := range groups {
		b.AddGroup(g.CourseID, i, g, eligible[i])
	}
	m, err := b.Finalize()
	require.NoError(t, err)
	return m
}

func lecturerID(i int) string { return "lect-" + string(rune('a'+i)) }
func roomID(i int) string     { return "room-" + string(rune('a'+i)) }

func TestSolvePlacesASingleGroup(t *testing.T) {
	m := buildModel(t, []preprocess.Group{
		{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 2, CourseWeeks: 2, TotalSessions: 4},
	}, [][]int{{0}}, 1, 1)

	sol := Solve(context.Background(), m)
	require.Equal(t, model.StatusOptimal, sol.Status)
	require.Len(t, sol.Assignments, 1)
	assert.Len(t, sol.Assignments[0].Weekly, 2)
	assert.Len(t, sol.Assignments[0].SessionGlobalSlots, 2)
}

func TestSolveBalancesLoadAcrossEligibleLecturers(t *testing.T) {
	groups := []preprocess.Group{
		{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 2, TotalSessions: 2},
		{CourseID: "c2", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 2, TotalSessions: 2},
	}
	eligible := [][]int{{0, 1}, {0, 1}}
	m := buildModel(t, groups, eligible, 2, 2)
	m.ObjectiveLoadImbalance = true

	sol := Solve(context.Background(), m)
	require.Equal(t, model.StatusFeasible, sol.Status)
	require.Len(t, sol.Assignments, 2)
	assert.NotEqual(t, sol.Assignments[0].LecturerIdx, sol.Assignments[1].LecturerIdx)
}

func TestSolveReportsInfeasibleWhenNoRoomFits(t *testing.T) {
	m := buildModel(t, []preprocess.Group{
		{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 2, TotalSessions: 2},
	}, [][]int{{0}}, 1, 1)
	// Shrink the only room below the group size so nothing fits.
	m.RoomCapacities[0] = 5

	sol := Solve(context.Background(), m)
	assert.Equal(t, model.StatusInfeasible, sol.Status)
}

func TestSolveTimesOutOnAnExpiredContext(t *testing.T) {
	m := buildModel(t, []preprocess.Group{
		{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 2, TotalSessions: 2},
	}, [][]int{{0}}, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol := Solve(ctx, m)
	assert.Equal(t, model.StatusTimeout, sol.Status)
}

func TestSolveOnNilModelReportsModelInvalid(t *testing.T) {
	sol := Solve(context.Background(), nil)
	assert.Equal(t, model.StatusModelInvalid, sol.Status)
}
