package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRooms() []RoomInput {
	return []RoomInput{
		{ID: "room-a", Label: "Room A", Capacity: 40},
		{ID: "room-b", Label: "Room B", Capacity: 100},
		{ID: "room-c", Label: "Room C", Capacity: 70},
	}
}

func sampleTimeSlots() []TimeSlotInput {
	return []TimeSlotInput{
		{ID: "ts-morning", Shift: 0},
		{ID: "ts-afternoon", Shift: 1},
	}
}

func TestBuildRejectsEmptyCategories(t *testing.T) {
	_, err := Build(nil, sampleRooms(), sampleTimeSlots(), []string{"MONDAY"})
	assert.Error(t, err)

	_, err = Build([]string{"lect-1"}, nil, sampleTimeSlots(), []string{"MONDAY"})
	assert.Error(t, err)

	_, err = Build([]string{"lect-1"}, sampleRooms(), nil, []string{"MONDAY"})
	assert.Error(t, err)

	_, err = Build([]string{"lect-1"}, sampleRooms(), sampleTimeSlots(), nil)
	assert.Error(t, err)
}

func TestBuildAssignsDenseIndicesInInputOrder(t *testing.T) {
	reg, err := Build([]string{"lect-1", "lect-2"}, sampleRooms(), sampleTimeSlots(), []string{"MONDAY", "TUESDAY"})
	require.NoError(t, err)

	assert.Equal(t, 2, reg.NumLecturers())
	assert.Equal(t, 3, reg.NumRooms())
	assert.Equal(t, 2, reg.NumTimeSlots())
	assert.Equal(t, 2, reg.NumDays())

	idx, ok := reg.LecturerIndex("lect-2")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "lect-2", reg.LecturerID(idx))
}

func TestBuildDeduplicatesRepeatedIDs(t *testing.T) {
	reg, err := Build([]string{"lect-1", "lect-1"}, sampleRooms(), sampleTimeSlots(), []string{"MONDAY"})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.NumLecturers())
}

func TestRoomCapacityAndOrdering(t *testing.T) {
	reg, err := Build([]string{"lect-1"}, sampleRooms(), sampleTimeSlots(), []string{"MONDAY"})
	require.NoError(t, err)

	idx, ok := reg.RoomIndex("room-b")
	require.True(t, ok)
	assert.Equal(t, 100, reg.RoomCapacity(idx))

	ordered := reg.RoomsByCapacityDesc()
	require.Len(t, ordered, 3)
	assert.Equal(t, "room-b", reg.RoomID(ordered[0]))
	assert.Equal(t, "room-c", reg.RoomID(ordered[1]))
	assert.Equal(t, "room-a", reg.RoomID(ordered[2]))
}

func TestTimeSlotIDByShift(t *testing.T) {
	reg, err := Build([]string{"lect-1"}, sampleRooms(), sampleTimeSlots(), []string{"MONDAY"})
	require.NoError(t, err)

	id, ok := reg.TimeSlotIDByShift(1)
	require.True(t, ok)
	assert.Equal(t, "ts-afternoon", id)

	_, ok = reg.TimeSlotIDByShift(5)
	assert.False(t, ok)
}

func TestTimeSlotIDByShiftFirstRegisteredWins(t *testing.T) {
	slots := []TimeSlotInput{
		{ID: "ts-a", Shift: 0},
		{ID: "ts-b", Shift: 0},
	}
	reg, err := Build([]string{"lect-1"}, sampleRooms(), slots, []string{"MONDAY"})
	require.NoError(t, err)

	id, ok := reg.TimeSlotIDByShift(0)
	require.True(t, ok)
	assert.Equal(t, "ts-a", id)
}
