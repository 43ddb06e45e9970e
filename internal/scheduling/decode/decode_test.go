package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/calendar"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/model"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/occupancy"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/preprocess"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/registry"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/solve"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestDecodeResolvesIDsAndOrdersGroups(t *testing.T) {
	cal, err := calendar.Build(date("2026-02-02"), date("2026-05-25"), []string{"MONDAY", "TUESDAY"}, 2, nil)
	require.NoError(t, err)

	reg, err := registry.Build(
		[]string{"lect-1"},
		[]registry.RoomInput{{ID: "room-1", Capacity: 50}},
		[]registry.TimeSlotInput{{ID: "ts-morning", Shift: 0}, {ID: "ts-afternoon", Shift: 1}},
		[]string{"MONDAY", "TUESDAY"},
	)
	require.NoError(t, err)

	b := model.NewBuilder(cal, &occupancy.Forbidden{}, reg, 1, 1, 2, 2, reg.RoomCapacities(), 60)
	b.AddGroup("c1", 0, preprocess.Group{CourseID: "c1", GroupNumber: 2, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 2, TotalSessions: 2}, []int{0})
	b.AddGroup("c1", 0, preprocess.Group{CourseID: "c1", GroupNumber: 1, StudentCount: 25, SessionsPerWeek: 1, CourseWeeks: 2, TotalSessions: 2}, []int{0})
	m, err := b.Finalize()
	require.NoError(t, err)

	sol := &solve.Solution{
		Status: model.StatusOptimal,
		Assignments: []solve.Assignment{
			{
				GroupIndex: 0, LecturerIdx: 0, StartWeek: 0,
				Weekly:             []solve.WeeklyTuple{{DayIdx: 0, ShiftIdx: 0, RoomIdx: 0}},
				SessionGlobalSlots: [][]int{{0}, {4}},
			},
			{
				GroupIndex: 1, LecturerIdx: 0, StartWeek: 0,
				Weekly:             []solve.WeeklyTuple{{DayIdx: 1, ShiftIdx: 1, RoomIdx: 0}},
				SessionGlobalSlots: [][]int{{3}, {7}},
			},
		},
	}

	courses, loads := Decode(m, sol)
	require.Len(t, courses, 1)
	require.Len(t, courses[0].ScheduledClassGroups, 2)

	// Groups must come back ordered by group number, not by solve order.
	assert.Equal(t, 1, courses[0].ScheduledClassGroups[0].GroupNumber)
	assert.Equal(t, 2, courses[0].ScheduledClassGroups[1].GroupNumber)

	firstGroupDetail := courses[0].ScheduledClassGroups[0].WeeklyScheduleDetails[0]
	assert.Equal(t, "TUESDAY", firstGroupDetail.DayOfWeek)
	assert.Equal(t, "ts-afternoon", firstGroupDetail.TimeSlotID)
	assert.Equal(t, "room-1", firstGroupDetail.RoomID)
	require.Len(t, firstGroupDetail.ScheduledDates, 2)
	assert.True(t, firstGroupDetail.ScheduledDates[0].Before(firstGroupDetail.ScheduledDates[1]))

	require.Len(t, loads, 1)
	assert.Equal(t, "lect-1", loads[0].LecturerID)
	assert.Equal(t, 4, loads[0].SessionsAssigned)
}
