package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduling"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/export"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

const proposalCacheKeyPrefix = "scheduler:proposal:"

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListBySemester(ctx context.Context, semesterID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type lecturerLister interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type existingScheduleLoader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.Schedule, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type proposalCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type solveQueue interface {
	Enqueue(job jobs.Job) error
}

type solverMetricsRecorder interface {
	ObserveSolverRun(status string, duration time.Duration)
}

// ScheduleGeneratorService orchestrates the scheduling core (§CORE 2):
// it assembles a scheduling.Request from a validated API payload,
// optionally enriched from the room/lecturer/existing-schedule
// repositories, runs it through the worker pool that wraps
// scheduling.Solve, caches the decoded proposal, and persists it as a
// versioned SemesterSchedule on Save.
type ScheduleGeneratorService struct {
	rooms     roomLister
	lecturers lecturerLister
	existing  existingScheduleLoader
	semesters semesterScheduleRepository
	slots     semesterScheduleSlotRepository
	tx        txProvider
	cache     proposalCache
	queue     solveQueue
	metrics   solverMetricsRecorder
	validator *validator.Validate
	logger    *zap.Logger
	pdf       *export.PDFExporter
	cfg       ScheduleGeneratorConfig
}

// ScheduleGeneratorConfig governs generator defaults and ceilings (§CORE 6).
type ScheduleGeneratorConfig struct {
	ProposalTTL                   time.Duration
	GroupSizeTarget               int
	MaxSessionsPerWeekAllowed     int
	DefaultSolverTimeLimitSeconds int
	MaxSolverTimeLimitSeconds     int
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	rooms roomLister,
	lecturers lecturerLister,
	existing existingScheduleLoader,
	semesters semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	tx txProvider,
	cache proposalCache,
	queue solveQueue,
	metrics solverMetricsRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.GroupSizeTarget <= 0 {
		cfg.GroupSizeTarget = 60
	}
	if cfg.MaxSessionsPerWeekAllowed <= 0 {
		cfg.MaxSessionsPerWeekAllowed = 3
	}
	if cfg.DefaultSolverTimeLimitSeconds <= 0 {
		cfg.DefaultSolverTimeLimitSeconds = 30
	}
	if cfg.MaxSolverTimeLimitSeconds <= 0 {
		cfg.MaxSolverTimeLimitSeconds = 120
	}
	return &ScheduleGeneratorService{
		rooms:     rooms,
		lecturers: lecturers,
		existing:  existing,
		semesters: semesters,
		slots:     slots,
		tx:        tx,
		cache:     cache,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		pdf:       export.NewPDFExporter(),
		cfg:       cfg,
	}
}

// cachedProposal is the decoded solve result stashed under its proposal ID
// so a later Save doesn't have to re-run the solver (mirrors the teacher's
// in-memory proposalStore, backed by pkg/cache/Redis instead).
type cachedProposal struct {
	ProposalID  string              `json:"proposalId"`
	Response    scheduling.Response `json:"response"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// solveJobPayload is the jobs.Job payload the worker pool executes: a
// request and a private result channel, since pkg/jobs.Handler has no
// return-value channel of its own.
type solveJobPayload struct {
	req      scheduling.Request
	resultCh chan solveJobResult
}

type solveJobResult struct {
	resp *scheduling.Response
	err  error
}

// SolveWorker is the jobs.Queue handler that executes queued scheduling
// core solves on a worker goroutine, keeping the CPU-bound CP-style search
// off the gin request goroutine pool (§CORE 5). Stateless; wire its
// Handle method as a jobs.Queue's Handler in cmd/api-gateway/main.go.
type SolveWorker struct {
	logger *zap.Logger
}

// NewSolveWorker constructs a solve worker.
func NewSolveWorker(logger *zap.Logger) *SolveWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolveWorker{logger: logger}
}

// Handle runs one queued solve and delivers the result over its job's
// result channel. It always returns nil: a synchronous caller is already
// waiting on the channel, so pkg/jobs' retry-on-error semantics don't
// apply here — an error is data, not a transient failure to retry.
func (w *SolveWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(*solveJobPayload)
	if !ok {
		w.logger.Error("scheduler solve worker received unexpected payload type", zap.String("job_id", job.ID))
		return nil
	}
	resp, err := scheduling.Solve(ctx, payload.req)
	payload.resultCh <- solveJobResult{resp: resp, err: err}
	close(payload.resultCh)
	return nil
}

// Generate runs the scheduling core against a validated request,
// optionally enriched with rooms/lecturers/existing-commitments read from
// the database, and caches the decoded proposal for a later Save.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	schedReq := s.toSchedulingRequest(req)
	s.enrichResources(ctx, &schedReq)
	s.enrichExistingSchedules(ctx, req.SemesterID, req.SemesterStartDate, req.SemesterEndDate, &schedReq)

	start := time.Now()
	resp, err := s.runSolve(ctx, schedReq)
	duration := time.Since(start)

	if err != nil {
		s.logger.Warn("schedule generation failed",
			zap.String("semesterId", req.SemesterID),
			zap.Error(err),
		)
		return nil, mapSchedulingError(err)
	}

	if s.metrics != nil {
		s.metrics.ObserveSolverRun(string(resp.SolverStatus), duration)
	}
	s.logger.Info("schedule generation finished",
		zap.String("semesterId", req.SemesterID),
		zap.String("status", string(resp.SolverStatus)),
		zap.Int("courses", len(resp.ScheduledCourses)),
		zap.Float64("durationSeconds", resp.SolverDurationSeconds),
	)

	proposalID := uuid.NewString()
	proposal := cachedProposal{ProposalID: proposalID, Response: *resp, GeneratedAt: time.Now().UTC()}
	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, proposalCacheKeyPrefix+proposalID, proposal, s.cfg.ProposalTTL); cacheErr != nil {
			s.logger.Warn("failed to cache schedule proposal", zap.String("proposalId", proposalID), zap.Error(cacheErr))
		}
	}

	out := toGenerateScheduleResponse(resp)
	out.ProposalID = proposalID
	return out, nil
}

// runSolve executes the scheduling core, dispatching through the worker
// pool when one is configured and falling back to a direct in-goroutine
// call otherwise (the path exercised by unit tests).
func (s *ScheduleGeneratorService) runSolve(ctx context.Context, req scheduling.Request) (*scheduling.Response, error) {
	if s.queue == nil {
		return scheduling.Solve(ctx, req)
	}

	resultCh := make(chan solveJobResult, 1)
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "scheduler.solve",
		Payload: &solveJobPayload{req: req, resultCh: resultCh},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue schedule generation")
	}
	select {
	case result := <-resultCh:
		return result.resp, result.err
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, http.StatusGatewayTimeout, "schedule generation cancelled before completion")
	}
}

// Save persists a previously generated proposal as a new semester schedule
// version, writing one SemesterScheduleSlot row per concrete scheduled
// date produced by the solve.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	if s.cache == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "proposal cache unavailable")
	}

	var proposal cachedProposal
	if err := s.cache.Get(ctx, proposalCacheKeyPrefix+req.ProposalID, &proposal); err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if proposal.Response.SolverStatus != scheduling.StatusOptimal && proposal.Response.SolverStatus != scheduling.StatusFeasible {
		return "", appErrors.Clone(appErrors.ErrConflict, "proposal did not reach a schedulable solution")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"solverStatus":          proposal.Response.SolverStatus,
		"solverDurationSeconds": proposal.Response.SolverDurationSeconds,
		"loadDifference":        proposal.Response.LoadDifference,
		"generatedAt":           proposal.GeneratedAt,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
		return "", err
	}

	record := &models.SemesterSchedule{
		TermID: proposal.Response.SemesterID,
		Status: models.SemesterScheduleStatusDraft,
		Meta:   types.JSONText(metaBytes),
	}
	if err = s.semesters.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
		return "", err
	}

	slotModels := slotsFromResponse(record.ID, proposal.Response)
	if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
		return "", err
	}

	if req.Publish {
		if err = s.semesters.UpdateStatus(ctx, tx, record.ID, models.SemesterScheduleStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish semester schedule")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return "", err
	}

	if cacheErr := s.cache.Delete(ctx, proposalCacheKeyPrefix+req.ProposalID); cacheErr != nil {
		s.logger.Warn("failed to evict saved proposal from cache", zap.String("proposalId", req.ProposalID), zap.Error(cacheErr))
	}
	return record.ID, nil
}

// List returns every version stored for a semester.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.SemesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semesterId is required")
	}
	list, err := s.semesters.ListBySemester(ctx, query.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	return list, nil
}

// GetSlots returns every persisted session placement for a schedule.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.semesters.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
	}
	return slots, nil
}

// Delete removes a draft schedule version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.semesters.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.semesters.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

// Validate re-derives occupancy from a persisted semester schedule's slots
// and reports any duplicate-occupancy violation it finds, operationalising
// §CORE 8's round-trip property as a callable rather than just a test.
func (s *ScheduleGeneratorService) Validate(ctx context.Context, scheduleID string) (*dto.ValidateScheduleResult, error) {
	slots, err := s.GetSlots(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]dto.ScheduleConflictRecord, 0)
	conflicts = append(conflicts, findDuplicateOccupancy(slots, "ROOM", func(s models.SemesterScheduleSlot) string { return s.RoomID })...)
	conflicts = append(conflicts, findDuplicateOccupancy(slots, "LECTURER", func(s models.SemesterScheduleSlot) string { return s.LecturerID })...)

	return &dto.ValidateScheduleResult{
		SemesterScheduleID: scheduleID,
		Valid:              len(conflicts) == 0,
		Conflicts:          conflicts,
	}, nil
}

// LecturerLoad recomputes each lecturer's assigned session count directly
// from a persisted semester schedule's slots, the same count
// internal/scheduling/decode produces for a live solve.
func (s *ScheduleGeneratorService) LecturerLoad(ctx context.Context, scheduleID string) (*dto.LecturerLoadReport, error) {
	slots, err := s.GetSlots(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, slot := range slots {
		if _, seen := counts[slot.LecturerID]; !seen {
			order = append(order, slot.LecturerID)
		}
		counts[slot.LecturerID]++
	}
	sort.Strings(order)

	loads := make([]dto.LecturerLoadResult, 0, len(order))
	for _, lecturerID := range order {
		loads = append(loads, dto.LecturerLoadResult{LecturerID: lecturerID, SessionsAssigned: counts[lecturerID]})
	}

	diff := 0
	if len(loads) > 0 {
		lo, hi := loads[0].SessionsAssigned, loads[0].SessionsAssigned
		for _, l := range loads[1:] {
			if l.SessionsAssigned < lo {
				lo = l.SessionsAssigned
			}
			if l.SessionsAssigned > hi {
				hi = l.SessionsAssigned
			}
		}
		diff = hi - lo
	}

	return &dto.LecturerLoadReport{SemesterScheduleID: scheduleID, LecturerLoad: loads, LoadDifference: diff}, nil
}

// ExportPDF renders a persisted semester schedule's session placements as
// a printable table, reusing pkg/export's gofpdf wiring.
func (s *ScheduleGeneratorService) ExportPDF(ctx context.Context, scheduleID string) ([]byte, error) {
	slots, err := s.GetSlots(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Course", "Group", "Lecturer", "Room", "Day", "Time Slot", "Date"},
		Rows:    make([]map[string]string, 0, len(slots)),
	}
	for _, slot := range slots {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":    slot.CourseID,
			"Group":     fmt.Sprintf("%d", slot.GroupNumber),
			"Lecturer":  slot.LecturerID,
			"Room":      slot.RoomID,
			"Day":       slot.DayOfWeek,
			"Time Slot": slot.TimeSlotID,
			"Date":      slot.ScheduledDate.Format("2006-01-02"),
		})
	}

	pdf, err := s.pdf.Render(dataset, "Semester Timetable")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule pdf")
	}
	return pdf, nil
}

// enrichResources additively merges DB-known rooms and active lecturers
// into the request's candidate pools, so a generator call can widen its
// search beyond the resources a caller happened to name explicitly.
func (s *ScheduleGeneratorService) enrichResources(ctx context.Context, req *scheduling.Request) {
	if s.rooms != nil {
		known := make(map[string]struct{}, len(req.Rooms))
		for _, r := range req.Rooms {
			known[r.ID] = struct{}{}
		}
		if dbRooms, err := s.rooms.List(ctx); err == nil {
			for _, r := range dbRooms {
				if _, ok := known[r.ID]; ok {
					continue
				}
				req.Rooms = append(req.Rooms, scheduling.Room{ID: r.ID, Label: r.Label, Capacity: r.Capacity, Type: r.Type})
			}
		} else {
			s.logger.Warn("failed to enrich candidate rooms from repository", zap.Error(err))
		}
	}

	if s.lecturers != nil {
		known := make(map[string]struct{}, len(req.LecturerIDs))
		for _, id := range req.LecturerIDs {
			known[id] = struct{}{}
		}
		active := true
		if dbTeachers, _, err := s.lecturers.List(ctx, models.TeacherFilter{Active: &active, PageSize: 500}); err == nil {
			for _, t := range dbTeachers {
				if _, ok := known[t.ID]; ok {
					continue
				}
				req.LecturerIDs = append(req.LecturerIDs, t.ID)
			}
		} else {
			s.logger.Warn("failed to enrich candidate lecturers from repository", zap.Error(err))
		}
	}
}

// enrichExistingSchedules appends committed weekly-recurring schedules
// from other departments (§CORE 3) to the request's occupancy input,
// treating each as active across the full requested semester span.
func (s *ScheduleGeneratorService) enrichExistingSchedules(ctx context.Context, semesterID string, start, end time.Time, req *scheduling.Request) {
	if s.existing == nil {
		return
	}
	rows, err := s.existing.ListByTerm(ctx, semesterID)
	if err != nil {
		s.logger.Warn("failed to load existing schedules for occupancy seeding", zap.Error(err))
		return
	}
	for _, row := range rows {
		req.ExistingSchedules = append(req.ExistingSchedules, scheduling.ExistingScheduleRecord{
			RoomID:     row.Room,
			LecturerID: row.TeacherID,
			TimeSlotID: row.TimeSlot,
			DayOfWeek:  row.DayOfWeek,
			StartDate:  start,
			EndDate:    end,
		})
	}
}

func (s *ScheduleGeneratorService) toSchedulingRequest(req dto.GenerateScheduleRequest) scheduling.Request {
	groupSizeTarget := req.GroupSizeTarget
	if groupSizeTarget <= 0 {
		groupSizeTarget = s.cfg.GroupSizeTarget
	}
	maxSessionsPerWeek := req.MaxSessionsPerWeekAllowed
	if maxSessionsPerWeek <= 0 {
		maxSessionsPerWeek = s.cfg.MaxSessionsPerWeekAllowed
	}
	timeLimit := req.SolverTimeLimitSeconds
	if timeLimit <= 0 {
		timeLimit = s.cfg.DefaultSolverTimeLimitSeconds
	}
	if timeLimit > s.cfg.MaxSolverTimeLimitSeconds {
		timeLimit = s.cfg.MaxSolverTimeLimitSeconds
	}

	courses := make([]scheduling.Course, len(req.Courses))
	for i, c := range req.Courses {
		courses[i] = scheduling.Course{
			ID:                    c.CourseID,
			Credits:               c.Credits,
			TotalSemesterSessions: c.TotalSemesterSessions,
			RegisteredStudents:    c.RegisteredStudents,
			PotentialLecturerIDs:  c.PotentialLecturerIDs,
		}
	}
	rooms := make([]scheduling.Room, len(req.Rooms))
	for i, r := range req.Rooms {
		rooms[i] = scheduling.Room{ID: r.ID, Label: r.Label, Capacity: r.Capacity, Type: r.Type}
	}
	timeSlots := make([]scheduling.TimeSlot, len(req.TimeSlots))
	for i, t := range req.TimeSlots {
		timeSlots[i] = scheduling.TimeSlot{ID: t.ID, Shift: t.Shift}
	}
	occupied := make([]scheduling.OccupiedResourceSlot, len(req.OccupiedSlots))
	for i, o := range req.OccupiedSlots {
		occupied[i] = scheduling.OccupiedResourceSlot{
			Kind:       scheduling.ResourceKind(o.Kind),
			ResourceID: o.ResourceID,
			Date:       o.Date,
			TimeSlotID: o.TimeSlotID,
		}
	}
	existingSchedules := make([]scheduling.ExistingScheduleRecord, len(req.ExistingSchedules))
	for i, e := range req.ExistingSchedules {
		existingSchedules[i] = scheduling.ExistingScheduleRecord{
			RoomID:     e.RoomID,
			LecturerID: e.LecturerID,
			TimeSlotID: e.TimeSlotID,
			DayOfWeek:  e.DayOfWeek,
			StartDate:  e.StartDate,
			EndDate:    e.EndDate,
		}
	}
	strategies := make([]scheduling.ObjectiveStrategy, len(req.ObjectiveStrategy))
	for i, s := range req.ObjectiveStrategy {
		strategies[i] = scheduling.ObjectiveStrategy(s)
	}

	return scheduling.Request{
		SemesterID:                req.SemesterID,
		SemesterStart:             req.SemesterStartDate,
		SemesterEnd:               req.SemesterEndDate,
		Courses:                   courses,
		LecturerIDs:               append([]string(nil), req.LecturerIDs...),
		Rooms:                     rooms,
		TimeSlots:                 timeSlots,
		DaysOfWeek:                append([]string(nil), req.DaysOfWeek...),
		ExceptionDates:            append([]time.Time(nil), req.ExceptionDates...),
		OccupiedSlots:             occupied,
		ExistingSchedules:         existingSchedules,
		GroupSizeTarget:           groupSizeTarget,
		MaxSessionsPerWeekAllowed: maxSessionsPerWeek,
		SolverTimeLimitSeconds:    timeLimit,
		ObjectiveStrategy:         strategies,
	}
}

func toGenerateScheduleResponse(resp *scheduling.Response) *dto.GenerateScheduleResponse {
	courses := make([]dto.CourseResult, len(resp.ScheduledCourses))
	for i, c := range resp.ScheduledCourses {
		groups := make([]dto.ClassGroupResult, len(c.ScheduledClassGroups))
		for j, g := range c.ScheduledClassGroups {
			details := make([]dto.WeeklyScheduleDetailResult, len(g.WeeklyScheduleDetails))
			for k, d := range g.WeeklyScheduleDetails {
				details[k] = dto.WeeklyScheduleDetailResult{
					DayOfWeek:      d.DayOfWeek,
					TimeSlotID:     d.TimeSlotID,
					RoomID:         d.RoomID,
					ScheduledDates: d.ScheduledDates,
				}
			}
			groups[j] = dto.ClassGroupResult{
				GroupNumber:                g.GroupNumber,
				MaxStudents:                g.MaxStudents,
				LecturerID:                 g.LecturerID,
				GroupStartDate:             g.GroupStartDate,
				GroupEndDate:               g.GroupEndDate,
				TotalTeachingWeeksForGroup: g.TotalTeachingWeeksForGroup,
				SessionsPerWeekForGroup:    g.SessionsPerWeekForGroup,
				WeeklyScheduleDetails:      details,
			}
		}
		courses[i] = dto.CourseResult{
			CourseID:                c.CourseID,
			TotalRegisteredStudents: c.TotalRegisteredStudents,
			TotalSessionsForCourse:  c.TotalSessionsForCourse,
			ScheduledClassGroups:    groups,
		}
	}
	loads := make([]dto.LecturerLoadResult, len(resp.LecturerLoad))
	for i, l := range resp.LecturerLoad {
		loads[i] = dto.LecturerLoadResult{LecturerID: l.LecturerID, SessionsAssigned: l.SessionsAssigned}
	}

	return &dto.GenerateScheduleResponse{
		SemesterID:                      resp.SemesterID,
		SemesterStartDate:               resp.SemesterStartDate,
		SemesterEndDate:                 resp.SemesterEndDate,
		ScheduledCourses:                courses,
		LecturerLoad:                    loads,
		LoadDifference:                  resp.LoadDifference,
		TotalOriginalSessionsToSchedule: resp.TotalOriginalSessionsToSchedule,
		SolverDurationSeconds:           resp.SolverDurationSeconds,
		SolverStatus:                    string(resp.SolverStatus),
		SolverMessage:                   resp.SolverMessage,
	}
}

// slotsFromResponse flattens a solved response into one row per concrete
// scheduled date, the storage grain Save persists.
func slotsFromResponse(scheduleID string, resp scheduling.Response) []models.SemesterScheduleSlot {
	var rows []models.SemesterScheduleSlot
	for _, course := range resp.ScheduledCourses {
		for _, group := range course.ScheduledClassGroups {
			for _, detail := range group.WeeklyScheduleDetails {
				for _, date := range detail.ScheduledDates {
					rows = append(rows, models.SemesterScheduleSlot{
						ID:                 uuid.NewString(),
						SemesterScheduleID: scheduleID,
						CourseID:           course.CourseID,
						GroupNumber:        group.GroupNumber,
						LecturerID:         group.LecturerID,
						RoomID:             detail.RoomID,
						DayOfWeek:          detail.DayOfWeek,
						TimeSlotID:         detail.TimeSlotID,
						ScheduledDate:      date,
					})
				}
			}
		}
	}
	return rows
}

func findDuplicateOccupancy(slots []models.SemesterScheduleSlot, dimension string, resourceID func(models.SemesterScheduleSlot) string) []dto.ScheduleConflictRecord {
	type key struct {
		resource string
		date     string
		slot     string
	}
	buckets := make(map[key][]models.SemesterScheduleSlot)
	for _, slot := range slots {
		k := key{resource: resourceID(slot), date: slot.ScheduledDate.Format("2006-01-02"), slot: slot.TimeSlotID}
		buckets[k] = append(buckets[k], slot)
	}

	var conflicts []dto.ScheduleConflictRecord
	for k, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		ids := make([]string, len(bucket))
		for i, slot := range bucket {
			ids[i] = slot.ID
		}
		conflicts = append(conflicts, dto.ScheduleConflictRecord{
			Dimension:  dimension,
			ResourceID: k.resource,
			Date:       bucket[0].ScheduledDate,
			TimeSlotID: k.slot,
			SlotIDs:    ids,
		})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].ResourceID != conflicts[j].ResourceID {
			return conflicts[i].ResourceID < conflicts[j].ResourceID
		}
		return conflicts[i].Date.Before(conflicts[j].Date)
	})
	return conflicts
}

// mapSchedulingError maps the scheduling core's Kind-based error onto this
// codebase's HTTP-aware *appErrors.Error (§CORE 7): InvalidInput/EmptyResource
// are client errors, CourseDoesNotFit/NoEligibleLecturer/EmptyCalendar are
// unschedulable requests (422), everything else is internal.
func mapSchedulingError(err error) error {
	var schedErr *scheduling.Error
	if !errors.As(err, &schedErr) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
	}
	switch schedErr.Kind {
	case scheduling.KindInvalidInput, scheduling.KindEmptyResource:
		return appErrors.Wrap(schedErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, schedErr.Message)
	case scheduling.KindCourseDoesNotFit, scheduling.KindNoEligibleLecturer, scheduling.KindEmptyCalendar:
		return appErrors.Wrap(schedErr, appErrors.ErrUnschedulable.Code, appErrors.ErrUnschedulable.Status, schedErr.Message)
	default:
		return appErrors.Wrap(schedErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, schedErr.Message)
	}
}
