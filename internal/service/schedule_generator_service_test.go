package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduling"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type fakeRoomLister struct{ rooms []models.Room }

func (f *fakeRoomLister) List(ctx context.Context) ([]models.Room, error) { return f.rooms, nil }

type fakeLecturerLister struct{ teachers []models.Teacher }

func (f *fakeLecturerLister) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	return f.teachers, len(f.teachers), nil
}

type fakeExistingScheduleLoader struct{ schedules []models.Schedule }

func (f *fakeExistingScheduleLoader) ListByTerm(ctx context.Context, termID string) ([]models.Schedule, error) {
	return f.schedules, nil
}

type fakeSemesterScheduleRepo struct {
	schedules map[string]*models.SemesterSchedule
	createErr error
}

func newFakeSemesterScheduleRepo() *fakeSemesterScheduleRepo {
	return &fakeSemesterScheduleRepo{schedules: map[string]*models.SemesterSchedule{}}
}

func (f *fakeSemesterScheduleRepo) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error {
	if f.createErr != nil {
		return f.createErr
	}
	schedule.ID = "sched-1"
	schedule.Version = 1
	f.schedules[schedule.ID] = schedule
	return nil
}

func (f *fakeSemesterScheduleRepo) ListBySemester(ctx context.Context, semesterID string) ([]models.SemesterSchedule, error) {
	var out []models.SemesterSchedule
	for _, s := range f.schedules {
		if s.TermID == semesterID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSemesterScheduleRepo) FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeSemesterScheduleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.schedules[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeSemesterScheduleRepo) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error {
	s, ok := f.schedules[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = status
	return nil
}

type fakeSlotRepo struct {
	slots map[string][]models.SemesterScheduleSlot
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: map[string][]models.SemesterScheduleSlot{}}
}

func (f *fakeSlotRepo) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	f.slots[slots[0].SemesterScheduleID] = append(f.slots[slots[0].SemesterScheduleID], slots...)
	return nil
}

func (f *fakeSlotRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return f.slots[scheduleID], nil
}

type fakeCache struct {
	store map[string]interface{}
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string]interface{}{}} }

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *cachedProposal:
		*d = v.(cachedProposal)
	default:
		return errors.New("unsupported destination type in test stub")
	}
	return nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.store[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.store, key)
	return nil
}

func baseGenerateRequest() dto.GenerateScheduleRequest {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 29, 0, 0, 0, 0, time.UTC)
	return dto.GenerateScheduleRequest{
		SemesterID:        "sem-1",
		SemesterStartDate: start,
		SemesterEndDate:   end,
		Courses: []dto.CourseLoad{
			{CourseID: "CS101", Credits: 3, TotalSemesterSessions: 14, RegisteredStudents: 40, PotentialLecturerIDs: []string{"lect-1"}},
		},
		LecturerIDs: []string{"lect-1"},
		Rooms:       []dto.RoomSpec{{ID: "room-1", Label: "Lab A", Capacity: 60, Type: "LAB"}},
		TimeSlots:   []dto.TimeSlotSpec{{ID: "slot-1", Shift: 1}},
		DaysOfWeek:  []string{"MONDAY", "WEDNESDAY"},
	}
}

func newTestService() (*ScheduleGeneratorService, *fakeSemesterScheduleRepo, *fakeSlotRepo, *fakeCache) {
	semesters := newFakeSemesterScheduleRepo()
	slots := newFakeSlotRepo()
	cache := newFakeCache()
	svc := NewScheduleGeneratorService(
		&fakeRoomLister{},
		&fakeLecturerLister{},
		&fakeExistingScheduleLoader{},
		semesters,
		slots,
		nil,
		cache,
		nil,
		nil,
		nil,
		zap.NewNop(),
		ScheduleGeneratorConfig{},
	)
	return svc, semesters, slots, cache
}

func TestScheduleGeneratorServiceGenerateRejectsInvalidPayload(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScheduleGeneratorServiceGenerateCachesProposal(t *testing.T) {
	svc, _, _, cache := newTestService()
	resp, err := svc.Generate(context.Background(), baseGenerateRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.ProposalID)
	assert.NotEmpty(t, cache.store)
}

func TestScheduleGeneratorServiceSaveRequiresKnownProposal(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "missing"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMapSchedulingErrorMapsUnschedulableKinds(t *testing.T) {
	err := mapSchedulingError(&scheduling.Error{Kind: scheduling.KindCourseDoesNotFit, Message: "does not fit"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnschedulable.Code, appErr.Code)
}

func TestMapSchedulingErrorMapsValidationKinds(t *testing.T) {
	err := mapSchedulingError(&scheduling.Error{Kind: scheduling.KindInvalidInput, Message: "bad input"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestFindDuplicateOccupancyDetectsRoomCollision(t *testing.T) {
	slots := []models.SemesterScheduleSlot{
		{ID: "a", RoomID: "room-1", ScheduledDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), TimeSlotID: "slot-1"},
		{ID: "b", RoomID: "room-1", ScheduledDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), TimeSlotID: "slot-1"},
	}
	conflicts := findDuplicateOccupancy(slots, "ROOM", func(s models.SemesterScheduleSlot) string { return s.RoomID })
	require.Len(t, conflicts, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, conflicts[0].SlotIDs)
}

func TestLecturerLoadComputesDifference(t *testing.T) {
	svc, semesters, slots, _ := newTestService()
	semesters.schedules["sched-1"] = &models.SemesterSchedule{ID: "sched-1", TermID: "sem-1"}
	slots.slots["sched-1"] = []models.SemesterScheduleSlot{
		{ID: "a", LecturerID: "lect-1"},
		{ID: "b", LecturerID: "lect-1"},
		{ID: "c", LecturerID: "lect-2"},
	}
	report, err := svc.LecturerLoad(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.LoadDifference)
}
