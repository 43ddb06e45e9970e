package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/scheduling/calendar"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/occupancy"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/preprocess"
	"github.com/noah-isme/sma-adp-api/internal/scheduling/registry"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func fixtureCalendar(t *testing.T) *calendar.Index {
	t.Helper()
	idx, err := calendar.Build(date("2026-02-02"), date("2026-05-25"), []string{"MONDAY", "TUESDAY"}, 2, nil)
	require.NoError(t, err)
	return idx
}

func TestBuilderRejectsGroupWithNoEligibleLecturer(t *testing.T) {
	cal := fixtureCalendar(t)
	b := NewBuilder(cal, &occupancy.Forbidden{}, nil, 2, 1, 2, 2, []int{40}, 60)
	b.AddGroup("c1", 0, preprocess.Group{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 4, TotalSessions: 4}, nil)

	_, err := b.Finalize()
	assert.Error(t, err)
}

func TestBuilderRejectsGroupNeedingMoreWeeksThanAvailable(t *testing.T) {
	cal := fixtureCalendar(t) // ~16 weeks
	b := NewBuilder(cal, &occupancy.Forbidden{}, nil, 2, 1, 2, 2, []int{40}, 60)
	b.AddGroup("c1", 0, preprocess.Group{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 1000, TotalSessions: 1000}, []int{0})

	_, err := b.Finalize()
	assert.Error(t, err)
}

func TestBuilderFinalizeProducesImmutableModel(t *testing.T) {
	cal := fixtureCalendar(t)
	reg, err := registry.Build([]string{"lect-1"}, []registry.RoomInput{{ID: "room-1", Capacity: 40}}, []registry.TimeSlotInput{{ID: "ts-1", Shift: 0}, {ID: "ts-2", Shift: 1}}, []string{"MONDAY", "TUESDAY"})
	require.NoError(t, err)

	b := NewBuilder(cal, &occupancy.Forbidden{}, reg, 1, 1, 2, 2, []int{40}, 60)
	b.WithObjectives(true, false, true, false)
	b.AddGroup("c1", 0, preprocess.Group{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 1, CourseWeeks: 4, TotalSessions: 4}, []int{0})

	m, err := b.Finalize()
	require.NoError(t, err)
	require.Len(t, m.Groups, 1)
	assert.Equal(t, "c1", m.Groups[0].CourseID)
	assert.True(t, m.ObjectiveLoadImbalance)
	assert.True(t, m.ObjectiveCompactSchedule)
	assert.False(t, m.ObjectiveEarlyStart)
	assert.Same(t, reg, m.Registry)
}

func TestBuilderRejectsInvalidSessionsPerWeek(t *testing.T) {
	cal := fixtureCalendar(t)
	b := NewBuilder(cal, &occupancy.Forbidden{}, nil, 1, 1, 2, 2, []int{40}, 60)
	b.AddGroup("c1", 0, preprocess.Group{CourseID: "c1", GroupNumber: 1, StudentCount: 30, SessionsPerWeek: 0, CourseWeeks: 4, TotalSessions: 4}, []int{0})

	_, err := b.Finalize()
	assert.Error(t, err)
}
