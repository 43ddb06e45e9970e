package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func newSemesterScheduleSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSemesterScheduleSlotRepositoryUpsertBatch(t *testing.T) {
	db, mock, cleanup := newSemesterScheduleSlotRepoMock(t)
	defer cleanup()
	repo := NewSemesterScheduleSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO semester_schedule_slots")).
		WithArgs(sqlmock.AnyArg(), "sched-1", "course-1", 1, "lecturer-1", "room-1", "MONDAY", "slot-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO semester_schedule_slots")).
		WithArgs(sqlmock.AnyArg(), "sched-1", "course-1", 1, "lecturer-1", "room-1", "WEDNESDAY", "slot-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slots := []models.SemesterScheduleSlot{
		{
			SemesterScheduleID: "sched-1",
			CourseID:           "course-1",
			GroupNumber:        1,
			LecturerID:         "lecturer-1",
			RoomID:             "room-1",
			DayOfWeek:          "MONDAY",
			TimeSlotID:         "slot-1",
			ScheduledDate:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			SemesterScheduleID: "sched-1",
			CourseID:           "course-1",
			GroupNumber:        1,
			LecturerID:         "lecturer-1",
			RoomID:             "room-1",
			DayOfWeek:          "WEDNESDAY",
			TimeSlotID:         "slot-1",
			ScheduledDate:      time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
		},
	}

	require.NoError(t, repo.UpsertBatch(context.Background(), nil, slots))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterScheduleSlotRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newSemesterScheduleSlotRepoMock(t)
	defer cleanup()
	repo := NewSemesterScheduleSlotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester_schedule_id", "course_id", "group_number", "lecturer_id", "room_id", "day_of_week", "time_slot_id", "scheduled_date", "created_at"}).
		AddRow("slot-1", "sched-1", "course-1", 1, "lecturer-1", "room-1", "MONDAY", "slot-1", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, semester_schedule_id, course_id, group_number, lecturer_id, room_id, day_of_week, time_slot_id, scheduled_date, created_at FROM semester_schedule_slots WHERE semester_schedule_id = $1 ORDER BY scheduled_date ASC, time_slot_id ASC")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	slots, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
