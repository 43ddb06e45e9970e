package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SemesterScheduleStatus represents lifecycle phases for generated schedules.
type SemesterScheduleStatus string

const (
	SemesterScheduleStatusDraft     SemesterScheduleStatus = "DRAFT"
	SemesterScheduleStatusPublished SemesterScheduleStatus = "PUBLISHED"
	SemesterScheduleStatusArchived  SemesterScheduleStatus = "ARCHIVED"
)

// SemesterSchedule captures a versioned timetable proposal for a semester.
// TermID carries the semester identifier the generator was invoked with;
// ClassID is unused here (the generator schedules a whole semester's
// courses at once, not one class at a time) and kept empty.
type SemesterSchedule struct {
	ID        string                 `db:"id" json:"id"`
	TermID    string                 `db:"term_id" json:"term_id"`
	ClassID   string                 `db:"class_id" json:"class_id"`
	Version   int                    `db:"version" json:"version"`
	Status    SemesterScheduleStatus `db:"status" json:"status"`
	Meta      types.JSONText         `db:"meta" json:"meta"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}

// SemesterScheduleSlot is one concrete teaching session: a single
// (course, group, lecturer, room, date, time slot) placement produced by
// the scheduling core and persisted one row per scheduled date, so that the
// round-trip Validate and LecturerLoad reports can be recomputed directly
// from storage without re-running the solver.
type SemesterScheduleSlot struct {
	ID                 string    `db:"id" json:"id"`
	SemesterScheduleID string    `db:"semester_schedule_id" json:"semester_schedule_id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	GroupNumber        int       `db:"group_number" json:"group_number"`
	LecturerID         string    `db:"lecturer_id" json:"lecturer_id"`
	RoomID             string    `db:"room_id" json:"room_id"`
	DayOfWeek          string    `db:"day_of_week" json:"day_of_week"`
	TimeSlotID         string    `db:"time_slot_id" json:"time_slot_id"`
	ScheduledDate      time.Time `db:"scheduled_date" json:"scheduled_date"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// SemesterScheduleSummary aggregates versions available for a semester.
type SemesterScheduleSummary struct {
	SemesterID string                 `json:"semester_id"`
	ActiveID   *string                `json:"active_id,omitempty"`
	Versions   []SemesterScheduleMeta `json:"versions"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// SemesterScheduleMeta represents lightweight metadata for list views.
type SemesterScheduleMeta struct {
	ID        string                 `json:"id"`
	Version   int                    `json:"version"`
	Status    SemesterScheduleStatus `json:"status"`
	Score     float64                `json:"score"`
	CreatedAt time.Time              `json:"created_at"`
}
