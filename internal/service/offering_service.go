package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/TQanh23/course-registration-api/internal/models"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

type offeringRepository interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseOffering, error)
	FindDetailByID(ctx context.Context, id string) (*models.OfferingDetail, error)
	ExistsSection(ctx context.Context, courseID, termID string, section int, excludeID string) (bool, error)
	Create(ctx context.Context, offering *models.CourseOffering) error
	Update(ctx context.Context, offering *models.CourseOffering) error
	Delete(ctx context.Context, id string) error
	HasRegistrations(ctx context.Context, offeringID string) (bool, error)
}

type offeringCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type offeringTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type offeringScheduleRepository interface {
	FindSlotByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	ListSlots(ctx context.Context) ([]models.TimetableSlot, error)
	FindClassroomByID(ctx context.Context, id string) (*models.Classroom, error)
	ListByOffering(ctx context.Context, offeringID string) ([]models.CourseSchedule, error)
	CreateCourseSchedule(ctx context.Context, schedule *models.CourseSchedule) error
	DeleteCourseSchedule(ctx context.Context, id string) error
}

// CreateOfferingRequest represents payload for opening a course section in a term.
type CreateOfferingRequest struct {
	CourseID      string `json:"course_id" validate:"required"`
	TermID        string `json:"term_id" validate:"required"`
	SectionNumber int    `json:"section_number" validate:"required,min=1"`
	MaxEnrollment int    `json:"max_enrollment" validate:"required,min=1"`
}

// UpdateOfferingRequest payload for adjusting a section. The enrollment
// counter is never writable through this path.
type UpdateOfferingRequest struct {
	SectionNumber int `json:"section_number" validate:"required,min=1"`
	MaxEnrollment int `json:"max_enrollment" validate:"required,min=1"`
}

// AttachScheduleRequest attaches a weekly meeting to an offering.
type AttachScheduleRequest struct {
	TimetableSlotID string    `json:"timetable_slot_id" validate:"required"`
	ClassroomID     string    `json:"classroom_id" validate:"required"`
	TeacherName     string    `json:"teacher_name" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
}

// OfferingService handles course offering and schedule workflows.
type OfferingService struct {
	repo      offeringRepository
	courses   offeringCourseRepository
	terms     offeringTermRepository
	schedules offeringScheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOfferingService creates an instance of OfferingService.
func NewOfferingService(repo offeringRepository, courses offeringCourseRepository, terms offeringTermRepository, schedules offeringScheduleRepository, validate *validator.Validate, logger *zap.Logger) *OfferingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OfferingService{repo: repo, courses: courses, terms: terms, schedules: schedules, validator: validate, logger: logger}
}

// List returns paginated offerings with course and term context.
func (s *OfferingService) List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an offering with its attached schedules.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.OfferingDetail, []models.CourseSchedule, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	schedules, err := s.schedules.ListByOffering(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering schedules")
	}
	return detail, schedules, nil
}

// Create opens a new section of a course within a term.
func (s *OfferingService) Create(ctx context.Context, req CreateOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create offering payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is inactive")
	}

	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	if req.MaxEnrollment > course.MaxCapacity {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("max_enrollment %d exceeds course capacity %d", req.MaxEnrollment, course.MaxCapacity))
	}

	exists, err := s.repo.ExistsSection(ctx, req.CourseID, req.TermID, req.SectionNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %d already exists for this course and term", req.SectionNumber))
	}

	offering := &models.CourseOffering{
		CourseID:      req.CourseID,
		TermID:        req.TermID,
		SectionNumber: req.SectionNumber,
		MaxEnrollment: req.MaxEnrollment,
	}

	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}

// Update adjusts section number and capacity of an offering. Capacity can
// never be lowered under the current enrollment.
func (s *OfferingService) Update(ctx context.Context, id string, req UpdateOfferingRequest) (*models.CourseOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update offering payload")
	}

	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	if req.MaxEnrollment < offering.CurrentEnrollment {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("max_enrollment %d is below current enrollment %d", req.MaxEnrollment, offering.CurrentEnrollment))
	}

	if req.SectionNumber != offering.SectionNumber {
		exists, err := s.repo.ExistsSection(ctx, offering.CourseID, offering.TermID, req.SectionNumber, offering.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section uniqueness")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %d already exists for this course and term", req.SectionNumber))
		}
	}

	offering.SectionNumber = req.SectionNumber
	offering.MaxEnrollment = req.MaxEnrollment

	if err := s.repo.Update(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	return offering, nil
}

// Delete removes an offering that has no registrations.
func (s *OfferingService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	referenced, err := s.repo.HasRegistrations(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering registrations")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrConflict, "offering has registrations attached")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offering")
	}
	return nil
}

// AttachSchedule links an offering to a timetable slot and classroom for a
// date range.
func (s *OfferingService) AttachSchedule(ctx context.Context, offeringID string, req AttachScheduleRequest) (*models.CourseSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	if _, err := s.repo.FindByID(ctx, offeringID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	if _, err := s.schedules.FindSlotByID(ctx, req.TimetableSlotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}

	if _, err := s.schedules.FindClassroomByID(ctx, req.ClassroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	existing, err := s.schedules.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering schedules")
	}
	for _, sched := range existing {
		if sched.TimetableSlotID == req.TimetableSlotID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "offering already meets in this timetable slot")
		}
	}

	schedule := &models.CourseSchedule{
		CourseOfferingID: offeringID,
		TimetableSlotID:  req.TimetableSlotID,
		ClassroomID:      req.ClassroomID,
		TeacherName:      req.TeacherName,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}

	if err := s.schedules.CreateCourseSchedule(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// DetachSchedule removes a schedule row from an offering.
func (s *OfferingService) DetachSchedule(ctx context.Context, offeringID, scheduleID string) error {
	schedules, err := s.schedules.ListByOffering(ctx, offeringID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering schedules")
	}

	for _, sched := range schedules {
		if sched.ID == scheduleID {
			if err := s.schedules.DeleteCourseSchedule(ctx, scheduleID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
			}
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "schedule not found on this offering")
}

// ListSlots returns the timetable slot catalog.
func (s *OfferingService) ListSlots(ctx context.Context) ([]models.TimetableSlot, error) {
	slots, err := s.schedules.ListSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return slots, nil
}
