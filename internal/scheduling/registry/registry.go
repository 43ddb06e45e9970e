// Package registry assigns stable dense integer indices to lecturers,
// rooms, time-slots and days of week, per spec §4.2, so the rest of the
// scheduling core can use table/element lookups instead of map hashing in
// its hot loops.
package registry

import "fmt"

// Registry is a set of bidirectional dense-index maps built once per
// request from the input resource lists.
type Registry struct {
	lecturerIDs []string
	lecturerIdx map[string]int

	roomIDs   []string
	roomIdx   map[string]int
	roomCaps  []int
	roomLabel []string

	timeSlotIDs   []string
	timeSlotIdx   map[string]int
	shiftOf       []int
	timeSlotByShift map[int]int

	dayNames []string
	dayIdx   map[string]int
}

// RoomInput mirrors the fields the registry needs from an input room.
type RoomInput struct {
	ID       string
	Label    string
	Capacity int
}

// TimeSlotInput mirrors the fields the registry needs from an input slot.
type TimeSlotInput struct {
	ID    string
	Shift int
}

// Build constructs a Registry, failing with an error if any category is
// empty (spec: EmptyResource).
func Build(lecturerIDs []string, rooms []RoomInput, timeSlots []TimeSlotInput, dayNames []string) (*Registry, error) {
	if len(lecturerIDs) == 0 {
		return nil, fmt.Errorf("lecturer registry is empty")
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("room registry is empty")
	}
	if len(timeSlots) == 0 {
		return nil, fmt.Errorf("time-slot registry is empty")
	}
	if len(dayNames) == 0 {
		return nil, fmt.Errorf("day-of-week registry is empty")
	}

	r := &Registry{
		lecturerIdx:     make(map[string]int, len(lecturerIDs)),
		roomIdx:         make(map[string]int, len(rooms)),
		timeSlotIdx:     make(map[string]int, len(timeSlots)),
		timeSlotByShift: make(map[int]int, len(timeSlots)),
		dayIdx:          make(map[string]int, len(dayNames)),
		dayNames:        append([]string(nil), dayNames...),
	}

	for _, id := range lecturerIDs {
		if _, dup := r.lecturerIdx[id]; dup {
			continue
		}
		r.lecturerIdx[id] = len(r.lecturerIDs)
		r.lecturerIDs = append(r.lecturerIDs, id)
	}

	for _, room := range rooms {
		if _, dup := r.roomIdx[room.ID]; dup {
			continue
		}
		r.roomIdx[room.ID] = len(r.roomIDs)
		r.roomIDs = append(r.roomIDs, room.ID)
		r.roomCaps = append(r.roomCaps, room.Capacity)
		r.roomLabel = append(r.roomLabel, room.Label)
	}

	for _, ts := range timeSlots {
		if _, dup := r.timeSlotIdx[ts.ID]; dup {
			continue
		}
		idx := len(r.timeSlotIDs)
		r.timeSlotIdx[ts.ID] = idx
		r.timeSlotIDs = append(r.timeSlotIDs, ts.ID)
		r.shiftOf = append(r.shiftOf, ts.Shift)
		if _, seen := r.timeSlotByShift[ts.Shift]; !seen {
			r.timeSlotByShift[ts.Shift] = idx
		}
	}

	for i, name := range dayNames {
		r.dayIdx[name] = i
	}

	return r, nil
}

func (r *Registry) NumLecturers() int { return len(r.lecturerIDs) }
func (r *Registry) NumRooms() int     { return len(r.roomIDs) }
func (r *Registry) NumTimeSlots() int { return len(r.timeSlotIDs) }
func (r *Registry) NumDays() int      { return len(r.dayNames) }

func (r *Registry) LecturerIndex(id string) (int, bool) { idx, ok := r.lecturerIdx[id]; return idx, ok }
func (r *Registry) RoomIndex(id string) (int, bool)     { idx, ok := r.roomIdx[id]; return idx, ok }
func (r *Registry) TimeSlotIndex(id string) (int, bool) { idx, ok := r.timeSlotIdx[id]; return idx, ok }
func (r *Registry) DayIndex(name string) (int, bool)    { idx, ok := r.dayIdx[name]; return idx, ok }

func (r *Registry) LecturerID(idx int) string { return r.lecturerIDs[idx] }
func (r *Registry) RoomID(idx int) string     { return r.roomIDs[idx] }
func (r *Registry) TimeSlotID(idx int) string { return r.timeSlotIDs[idx] }
func (r *Registry) DayName(idx int) string    { return r.dayNames[idx] }

// RoomCapacity returns the capacity of the room at the given dense index.
func (r *Registry) RoomCapacity(idx int) int { return r.roomCaps[idx] }

// RoomCapacities returns the capacities_by_room_index vector used by
// room-capacity constraints.
func (r *Registry) RoomCapacities() []int { return append([]int(nil), r.roomCaps...) }

// ShiftOf returns the shift ordinal of the time-slot at the given index.
func (r *Registry) ShiftOf(idx int) int { return r.shiftOf[idx] }

// TimeSlotIDByShift resolves the canonical time-slot ID for a shift
// ordinal, used when reporting scheduled sessions back out by shift index.
// When multiple input time slots share a shift, the first one registered
// wins, keeping the mapping deterministic.
func (r *Registry) TimeSlotIDByShift(shift int) (string, bool) {
	idx, ok := r.timeSlotByShift[shift]
	if !ok {
		return "", false
	}
	return r.timeSlotIDs[idx], true
}

// RoomsByCapacityDesc returns room indices ordered by capacity descending;
// rooms of equal capacity keep their registration order.
func (r *Registry) RoomsByCapacityDesc() []int {
	idxs := make([]int, len(r.roomIDs))
	for i := range idxs {
		idxs[i] = i
	}
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0 && r.roomCaps[idxs[j]] > r.roomCaps[idxs[j-1]]; j-- {
			idxs[j], idxs[j-1] = idxs[j-1], idxs[j]
		}
	}
	return idxs
}
