package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// SemesterScheduleSlotRepository manages slots for semester schedules.
type SemesterScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewSemesterScheduleSlotRepository builds repository.
func NewSemesterScheduleSlotRepository(db *sqlx.DB) *SemesterScheduleSlotRepository {
	return &SemesterScheduleSlotRepository{db: db}
}

func (r *SemesterScheduleSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch inserts or updates concrete session placements for a semester
// schedule. The conflict key is the tuple that can never legally repeat in a
// feasible solution: one room cannot host two sessions on the same date and
// time slot.
func (r *SemesterScheduleSlotRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO semester_schedule_slots (id, semester_schedule_id, course_id, group_number, lecturer_id, room_id, day_of_week, time_slot_id, scheduled_date, created_at)
VALUES (:id, :semester_schedule_id, :course_id, :group_number, :lecturer_id, :room_id, :day_of_week, :time_slot_id, :scheduled_date, :created_at)
ON CONFLICT (semester_schedule_id, room_id, scheduled_date, time_slot_id) DO UPDATE
SET course_id = EXCLUDED.course_id,
    group_number = EXCLUDED.group_number,
    lecturer_id = EXCLUDED.lecturer_id,
    day_of_week = EXCLUDED.day_of_week`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("upsert semester schedule slot: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns every session placement for a schedule, ordered by
// date then time slot.
func (r *SemesterScheduleSlotRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	const query = `SELECT id, semester_schedule_id, course_id, group_number, lecturer_id, room_id, day_of_week, time_slot_id, scheduled_date, created_at
FROM semester_schedule_slots WHERE semester_schedule_id = $1 ORDER BY scheduled_date ASC, time_slot_id ASC`
	var slots []models.SemesterScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list semester schedule slots: %w", err)
	}
	return slots, nil
}
