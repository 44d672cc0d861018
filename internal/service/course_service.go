package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/repository"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

const courseCachePattern = "catalog:courses:*"

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	HasRegistrations(ctx context.Context, courseID string) (bool, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest represents payload for creating catalog courses.
type CreateCourseRequest struct {
	Code        string  `json:"code" validate:"required,min=2,max=20"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Credits     int     `json:"credits" validate:"required,min=1,max=10"`
	CategoryID  *string `json:"category_id,omitempty"`
	MaxCapacity int     `json:"max_capacity" validate:"required,min=1"`
	Active      bool    `json:"active"`
}

// UpdateCourseRequest payload for updating catalog courses. The course code
// is immutable once created.
type UpdateCourseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Credits     int     `json:"credits" validate:"required,min=1,max=10"`
	CategoryID  *string `json:"category_id,omitempty"`
	MaxCapacity int     `json:"max_capacity" validate:"required,min=1"`
	Active      *bool   `json:"active"`
}

// courseListPayload is the cached shape for course list responses.
type courseListPayload struct {
	Courses []models.Course `json:"courses"`
	Total   int             `json:"total"`
}

// CourseService handles catalog course workflows with read-through caching.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates an instance of CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated courses, serving repeat queries from cache.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	key := courseListCacheKey(filter)

	var cached courseListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Courses, paginationFor(filter.Page, filter.PageSize, cached.Total), nil
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, key, courseListPayload{Courses: courses, Total: total}, 0); err != nil {
		s.logger.Debug("course list cache write failed", zap.Error(err))
	}

	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a new catalog course with a unique code.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create course payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course code %s already exists", code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code uniqueness")
	}

	course := &models.Course{
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Credits:     req.Credits,
		CategoryID:  req.CategoryID,
		MaxCapacity: req.MaxCapacity,
		Active:      req.Active,
	}

	if err := s.repo.Create(ctx, course); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course code %s already exists", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Update modifies the mutable attributes of a course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Credits = req.Credits
	course.CategoryID = req.CategoryID
	course.MaxCapacity = req.MaxCapacity
	if req.Active != nil {
		course.Active = *req.Active
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Delete removes a course. Courses referenced by registrations are
// deactivated instead of hard-deleted so history stays intact.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	referenced, err := s.repo.HasRegistrations(ctx, course.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course references")
	}

	if referenced {
		if err := s.repo.Deactivate(ctx, course.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
		}
	} else {
		if err := s.repo.Delete(ctx, course.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
		}
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, courseCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
}

func courseListCacheKey(filter models.CourseFilter) string {
	active := "any"
	if filter.Active != nil {
		active = fmt.Sprintf("%t", *filter.Active)
	}
	return fmt.Sprintf("catalog:courses:%s:%s:%s:%d:%d:%s:%s",
		strings.ToLower(filter.Search), filter.CategoryID, active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
