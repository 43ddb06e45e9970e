package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestBuildRejectsInvertedRange(t *testing.T) {
	_, err := Build(date("2026-02-10"), date("2026-02-01"), []string{"MONDAY"}, 2, nil)
	assert.Error(t, err)
}

func TestBuildRejectsEmptyDays(t *testing.T) {
	_, err := Build(date("2026-02-01"), date("2026-02-10"), nil, 2, nil)
	assert.Error(t, err)
}

func TestBuildAssignsDenseSlotsAcrossShifts(t *testing.T) {
	// 2026-02-02 is a Monday; one active week-day * 2 shifts = 2 slots.
	idx, err := Build(date("2026-02-02"), date("2026-02-03"), []string{"MONDAY"}, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.NumSlots())
	s0, ok := idx.SlotOf(0, 0, 0)
	require.True(t, ok)
	s1, ok := idx.SlotOf(0, 0, 1)
	require.True(t, ok)
	assert.NotEqual(t, s0, s1)

	details, ok := idx.DetailsOf(s0)
	require.True(t, ok)
	assert.Equal(t, Details{WeekIdx: 0, DayIdx: 0, ShiftIdx: 0}, details)
}

func TestBuildExcludesHolidays(t *testing.T) {
	holidays := map[string]struct{}{"2026-02-02": {}}
	idx, err := Build(date("2026-02-02"), date("2026-02-09"), []string{"MONDAY"}, 1, holidays)
	require.NoError(t, err)

	// Only the second Monday (2026-02-09) survives.
	assert.False(t, idx.IsActiveWeekDay(0, 0))
	assert.True(t, idx.IsActiveWeekDay(1, 0))
}

func TestBuildErrorsWhenNothingSurvivesFiltering(t *testing.T) {
	holidays := map[string]struct{}{"2026-02-02": {}}
	_, err := Build(date("2026-02-02"), date("2026-02-03"), []string{"MONDAY"}, 1, holidays)
	assert.Error(t, err)
}

func TestWeekDayOfRoundTripsWithDateOf(t *testing.T) {
	idx, err := Build(date("2026-02-02"), date("2026-02-09"), []string{"MONDAY"}, 1, nil)
	require.NoError(t, err)

	d, ok := idx.DateOf(1, 0)
	require.True(t, ok)
	weekIdx, dayIdx, ok := idx.WeekDayOf(d)
	require.True(t, ok)
	assert.Equal(t, 1, weekIdx)
	assert.Equal(t, 0, dayIdx)
}

func TestWeekDayOfRejectsDisallowedWeekday(t *testing.T) {
	idx, err := Build(date("2026-02-02"), date("2026-02-09"), []string{"MONDAY"}, 1, nil)
	require.NoError(t, err)

	_, _, ok := idx.WeekDayOf(date("2026-02-03")) // Tuesday
	assert.False(t, ok)
}
