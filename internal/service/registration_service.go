package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/TQanh23/course-registration-api/internal/dto"
	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/repository"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
	"github.com/TQanh23/course-registration-api/pkg/export"
)

type registrationLedger interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	ExistsNonDropped(ctx context.Context, studentID, offeringID string) (bool, error)
	Enroll(ctx context.Context, reg *models.Registration, schedules []models.CourseSchedule) error
	Drop(ctx context.Context, id string) (*models.Registration, error)
	ChangeStatus(ctx context.Context, id string, to models.RegistrationStatus, grade *string) (*models.Registration, error)
	Delete(ctx context.Context, id string) error
}

type registrationAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type registrationCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type registrationTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type registrationOfferingRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
	FindByCourseAndTerm(ctx context.Context, courseID, termID string) (*models.CourseOffering, error)
}

type registrationScheduleRepository interface {
	ListByOffering(ctx context.Context, offeringID string) ([]models.CourseSchedule, error)
	FindConflicts(ctx context.Context, studentID string, slotIDs []string, start, end time.Time) ([]models.ScheduleConflict, error)
	Timetable(ctx context.Context, studentID string) ([]models.TimetableEntry, error)
}

// CreateRegistrationRequest registers a student for a course in a term. The
// offering is resolved from the (course, term) pair.
type CreateRegistrationRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required_without=OfferingID"`
	TermID    string `json:"term_id" validate:"required_without=OfferingID"`
	// OfferingID targets a specific section directly; the student signup
	// endpoint uses it instead of the course/term pair.
	OfferingID string `json:"course_offering_id" validate:"required_without_all=CourseID TermID"`
}

// UpdateRegistrationStatusRequest applies an admin status transition.
type UpdateRegistrationStatusRequest struct {
	Status models.RegistrationStatus `json:"registration_status" validate:"required,oneof=enrolled waitlisted dropped completed"`
	Grade  *string                   `json:"grade,omitempty"`
}

// RegistrationService implements the registration workflows on top of the
// transactional ledger. All business checks run here; the capacity and
// duplicate checks are repeated inside the ledger transaction.
type RegistrationService struct {
	ledger    registrationLedger
	accounts  registrationAccountRepository
	courses   registrationCourseRepository
	terms     registrationTermRepository
	offerings registrationOfferingRepository
	schedules registrationScheduleRepository
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService creates an instance of RegistrationService.
func NewRegistrationService(
	ledger registrationLedger,
	accounts registrationAccountRepository,
	courses registrationCourseRepository,
	terms registrationTermRepository,
	offerings registrationOfferingRepository,
	schedules registrationScheduleRepository,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{
		ledger:    ledger,
		accounts:  accounts,
		courses:   courses,
		terms:     terms,
		offerings: offerings,
		schedules: schedules,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns paginated registrations with contextual info.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error) {
	registrations, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one registration. Students may only read their own.
func (s *RegistrationService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RegistrationDetail, error) {
	detail, err := s.ledger.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if actor.Role == models.RoleStudent && detail.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}
	return detail, nil
}

// Register enrolls a student in a course for a term. The checks run in a
// fixed order so clients always get the most specific failure: student,
// authorization, course, term and window, offering, duplicate, capacity,
// schedule conflict.
func (s *RegistrationService) Register(ctx context.Context, actor *models.JWTClaims, req CreateRegistrationRequest, meta models.LoginRequest) (*models.RegistrationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	offering, schedules, err := s.checkRegistration(ctx, actor, req)
	if err != nil {
		s.metrics.RecordRegistration(false)
		return nil, err
	}

	reg := &models.Registration{
		StudentID:        req.StudentID,
		CourseOfferingID: offering.ID,
		Status:           models.RegistrationEnrolled,
	}

	if err := s.ledger.Enroll(ctx, reg, schedules); err != nil {
		s.metrics.RecordRegistration(false)
		return nil, s.mapLedgerError(err, offering)
	}
	s.metrics.RecordRegistration(true)

	s.audit(ctx, actor.UserID, models.AuditActionRegister, reg.ID, map[string]interface{}{
		"student_id": req.StudentID, "course_offering_id": offering.ID,
	}, meta)

	detail, err := s.ledger.FindDetailByID(ctx, reg.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created registration")
	}
	return detail, nil
}

// BatchRegister processes each entry independently and reports per-entry
// outcomes. A failed entry never rolls back the others.
func (s *RegistrationService) BatchRegister(ctx context.Context, actor *models.JWTClaims, req dto.BatchRegisterRequest, meta models.LoginRequest) (*dto.BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch registration payload")
	}

	result := &dto.BatchResult{TotalRequested: len(req.Registrations)}
	result.Details.Success = []models.RegistrationDetail{}
	result.Details.Failed = []dto.BatchFailure{}

	for _, entry := range req.Registrations {
		detail, err := s.Register(ctx, actor, CreateRegistrationRequest{
			StudentID: req.StudentID,
			CourseID:  entry.CourseID,
			TermID:    entry.TermID,
		}, meta)
		if err != nil {
			result.FailedRegistrations++
			result.Details.Failed = append(result.Details.Failed, dto.BatchFailure{
				CourseID: entry.CourseID,
				TermID:   entry.TermID,
				Reason:   appErrors.FromError(err).Message,
			})
			continue
		}
		result.SuccessfulRegistrations++
		result.Details.Success = append(result.Details.Success, *detail)
	}

	return result, nil
}

// Drop moves a registration to dropped. Students may only drop their own
// registrations while the term's registration window is open; admins bypass
// both restrictions.
func (s *RegistrationService) Drop(ctx context.Context, actor *models.JWTClaims, id string, meta models.LoginRequest) (*models.Registration, error) {
	reg, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if actor.Role == models.RoleStudent {
		if reg.StudentID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
		}
		if err := s.checkWindowForOffering(ctx, reg.CourseOfferingID); err != nil {
			return nil, err
		}
	}

	dropped, err := s.ledger.Drop(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyDropped) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration is already dropped")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop registration")
	}

	s.audit(ctx, actor.UserID, models.AuditActionDrop, id, map[string]interface{}{
		"student_id": reg.StudentID, "course_offering_id": reg.CourseOfferingID,
	}, meta)

	return dropped, nil
}

// BatchDrop drops several registrations with per-entry outcomes.
func (s *RegistrationService) BatchDrop(ctx context.Context, actor *models.JWTClaims, req dto.BatchDropRequest, meta models.LoginRequest) (*dto.BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch drop payload")
	}

	if actor.Role == models.RoleStudent && req.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot drop registrations for another student")
	}

	result := &dto.BatchResult{TotalRequested: len(req.RegistrationIDs)}
	result.Details.Success = []models.RegistrationDetail{}
	result.Details.Failed = []dto.BatchFailure{}

	for _, regID := range req.RegistrationIDs {
		reg, err := s.ledger.FindByID(ctx, regID)
		if err == nil && reg.StudentID != req.StudentID {
			err = appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
		}
		if err == nil {
			_, err = s.Drop(ctx, actor, regID, meta)
		} else if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}

		if err != nil {
			result.FailedRegistrations++
			result.Details.Failed = append(result.Details.Failed, dto.BatchFailure{
				RegistrationID: regID,
				Reason:         appErrors.FromError(err).Message,
			})
			continue
		}

		result.SuccessfulRegistrations++
		if detail, detailErr := s.ledger.FindDetailByID(ctx, regID); detailErr == nil {
			result.Details.Success = append(result.Details.Success, *detail)
		}
	}

	return result, nil
}

// UpdateStatus applies an admin transition on a registration.
func (s *RegistrationService) UpdateStatus(ctx context.Context, actorID, id string, req UpdateRegistrationStatusRequest, meta models.LoginRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	reg, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	from := reg.Status

	updated, err := s.ledger.ChangeStatus(ctx, id, req.Status, req.Grade)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBadTransition):
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("cannot move registration from %s to %s", from, req.Status))
		case errors.Is(err, repository.ErrOfferingFull):
			return nil, appErrors.Clone(appErrors.ErrCourseFull, "course offering has reached maximum enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}

	s.audit(ctx, actorID, models.AuditActionStatusChange, id, map[string]interface{}{
		"from": from, "to": req.Status,
	}, meta)

	return updated, nil
}

// Delete hard-deletes a registration (admin only).
func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	return nil
}

// Timetable returns the weekly timetable of a student's registered classes.
func (s *RegistrationService) Timetable(ctx context.Context, studentID string) ([]models.TimetableEntry, error) {
	entries, err := s.schedules.Timetable(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if entries == nil {
		entries = []models.TimetableEntry{}
	}
	return entries, nil
}

// ExportTimetable renders the student's timetable as CSV or PDF bytes.
func (s *RegistrationService) ExportTimetable(ctx context.Context, studentID, format string) ([]byte, string, error) {
	entries, err := s.Timetable(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Code", "Subject", "Room", "Teacher"},
	}
	for _, e := range entries {
		data.Rows = append(data.Rows, map[string]string{
			"Day":     weekdayName(e.Day),
			"Start":   e.StartTime,
			"End":     e.EndTime,
			"Code":    e.SubjectCode,
			"Subject": e.SubjectName,
			"Room":    e.Room,
			"Teacher": e.Teacher,
		})
	}

	switch format {
	case "pdf":
		payload, err := s.pdf.Render(data, "Weekly Timetable")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// ExportRegistrations renders the filtered registration list as CSV bytes.
func (s *RegistrationService) ExportRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]byte, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	registrations, _, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}

	data := export.Dataset{
		Headers: []string{"Registration ID", "Student", "Course", "Title", "Term", "Section", "Status", "Registered At"},
	}
	for _, r := range registrations {
		data.Rows = append(data.Rows, map[string]string{
			"Registration ID": r.ID,
			"Student":         r.StudentName,
			"Course":          r.CourseCode,
			"Title":           r.CourseTitle,
			"Term":            r.TermName,
			"Section":         strconv.Itoa(r.Section),
			"Status":          string(r.Status),
			"Registered At":   r.RegistrationDate.Format(time.RFC3339),
		})
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render registrations csv")
	}
	return payload, nil
}

// checkRegistration runs the ordered pre-enrollment checks and resolves the
// target offering and its schedules. The offering may be addressed directly
// by id (student signup) or by course/term pair (admin path).
func (s *RegistrationService) checkRegistration(ctx context.Context, actor *models.JWTClaims, req CreateRegistrationRequest) (*models.CourseOffering, []models.CourseSchedule, error) {
	studentID, courseID, termID := req.StudentID, req.CourseID, req.TermID

	var offering *models.CourseOffering
	if req.OfferingID != "" {
		found, err := s.offerings.FindByID(ctx, req.OfferingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course offering not found")
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
		}
		offering = found
		courseID, termID = offering.CourseID, offering.TermID
	}

	student, err := s.accounts.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "account is not a student")
	}
	if !student.Active {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "student account is inactive")
	}

	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "cannot register another student")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is inactive", course.Code))
	}

	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if actor.Role == models.RoleStudent && !term.WindowOpen(time.Now().UTC()) {
		return nil, nil, appErrors.Clone(appErrors.ErrWindowClosed,
			fmt.Sprintf("registration window for %s is closed", term.TermName))
	}

	if offering == nil {
		offering, err = s.offerings.FindByCourseAndTerm(ctx, courseID, termID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound,
					fmt.Sprintf("course %s is not offered in %s", course.Code, term.TermName))
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
		}
	}

	exists, err := s.ledger.ExistsNonDropped(ctx, studentID, offering.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}
	if exists {
		return nil, nil, appErrors.Clone(appErrors.ErrDuplicateRegistration,
			fmt.Sprintf("student is already registered for %s in %s", course.Code, term.TermName))
	}

	if offering.CurrentEnrollment >= offering.MaxEnrollment {
		return nil, nil, appErrors.Clone(appErrors.ErrCourseFull,
			fmt.Sprintf("course %s is full (%d/%d)", course.Code, offering.CurrentEnrollment, offering.MaxEnrollment))
	}

	schedules, err := s.schedules.ListByOffering(ctx, offering.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering schedules")
	}

	// Each schedule is checked against its own slot and date range so an
	// existing row on one slot cannot be matched against another schedule's
	// dates.
	for _, sched := range schedules {
		conflicts, err := s.schedules.FindConflicts(ctx, studentID,
			[]string{sched.TimetableSlotID}, sched.StartDate, sched.EndDate)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
		}
		if len(conflicts) > 0 {
			c := conflicts[0]
			return nil, nil, appErrors.Clone(appErrors.ErrScheduleConflict,
				fmt.Sprintf("schedule conflict with %s (%s)", c.CourseCode, c.CourseTitle))
		}
	}

	return offering, schedules, nil
}

// checkWindowForOffering enforces the registration window for student drops.
func (s *RegistrationService) checkWindowForOffering(ctx context.Context, offeringID string) error {
	offering, err := s.offerings.FindByID(ctx, offeringID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	term, err := s.terms.FindByID(ctx, offering.TermID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if !term.WindowOpen(time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrWindowClosed,
			fmt.Sprintf("registration window for %s is closed", term.TermName))
	}
	return nil
}

func (s *RegistrationService) mapLedgerError(err error, offering *models.CourseOffering) error {
	switch {
	case errors.Is(err, repository.ErrOfferingFull):
		return appErrors.Clone(appErrors.ErrCourseFull,
			fmt.Sprintf("course offering is full (%d/%d)", offering.MaxEnrollment, offering.MaxEnrollment))
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return appErrors.Clone(appErrors.ErrDuplicateRegistration, "student is already registered for this offering")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
}

func (s *RegistrationService) audit(ctx context.Context, actorID, action, resourceID string, payload map[string]interface{}, meta models.LoginRequest) {
	values, _ := json.Marshal(payload)
	if err := s.accounts.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actorID,
		Action:     action,
		Resource:   "registrations",
		ResourceID: &resourceID,
		NewValues:  values,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}
}

func weekdayName(day int) string {
	names := map[int]string{
		1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday",
		5: "Friday", 6: "Saturday", 7: "Sunday",
	}
	if name, ok := names[day]; ok {
		return name
	}
	return strconv.Itoa(day)
}
