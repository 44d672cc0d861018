package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TQanh23/course-registration-api/internal/models"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

type mockCourseRepo struct {
	courses       map[string]models.Course
	registrations map[string]bool
	deactivated   []string
	deleted       []string
	listCalls     int
	nextID        int
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	m.listCalls++
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			result := c
			return &result, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.nextID++
	course.ID = "course-new"
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) HasRegistrations(ctx context.Context, courseID string) (bool, error) {
	return m.registrations[courseID], nil
}

func (m *mockCourseRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if c, ok := m.courses[id]; ok {
		c.Active = false
		m.courses[id] = c
	}
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.courses, id)
	return nil
}

// memoryCache is an in-memory CacheRepository for exercising the read-through path.
type memoryCache struct {
	values  map[string][]byte
	deletes []string
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	m.values = make(map[string][]byte)
	return nil
}

func newCourseFixture(cacheRepo CacheRepository) (*mockCourseRepo, *CourseService) {
	repo := &mockCourseRepo{
		courses: map[string]models.Course{
			"course-1": {ID: "course-1", Code: "CS101", Title: "Intro to CS", Credits: 3, MaxCapacity: 100, Active: true},
		},
		registrations: make(map[string]bool),
	}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)
	return repo, NewCourseService(repo, cache, validator.New(), zap.NewNop())
}

func TestCourseServiceCreate(t *testing.T) {
	repo, svc := newCourseFixture(nil)

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Code:        " ma201 ",
		Title:       "Linear Algebra",
		Credits:     4,
		MaxCapacity: 60,
		Active:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "MA201", course.Code)
	assert.Len(t, repo.courses, 2)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	_, svc := newCourseFixture(nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code:        "cs101",
		Title:       "Shadow course",
		Credits:     3,
		MaxCapacity: 50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdateKeepsCode(t *testing.T) {
	_, svc := newCourseFixture(nil)

	updated, err := svc.Update(context.Background(), "course-1", UpdateCourseRequest{
		Title:       "Intro to Computer Science",
		Credits:     3,
		MaxCapacity: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, "CS101", updated.Code)
	assert.Equal(t, 120, updated.MaxCapacity)
}

func TestCourseServiceDeleteWithHistoryDeactivates(t *testing.T) {
	repo, svc := newCourseFixture(nil)
	repo.registrations["course-1"] = true

	err := svc.Delete(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Contains(t, repo.deactivated, "course-1")
	assert.Empty(t, repo.deleted)
	assert.False(t, repo.courses["course-1"].Active)
}

func TestCourseServiceDeleteWithoutHistoryRemoves(t *testing.T) {
	repo, svc := newCourseFixture(nil)

	err := svc.Delete(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "course-1")
	assert.Empty(t, repo.deactivated)
}

func TestCourseServiceListUsesCache(t *testing.T) {
	cacheRepo := &memoryCache{}
	repo, svc := newCourseFixture(cacheRepo)

	_, _, err := svc.List(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	// Second call is served from cache.
	assert.Equal(t, 1, repo.listCalls)
}

func TestCourseServiceWritesInvalidateCache(t *testing.T) {
	cacheRepo := &memoryCache{}
	repo, svc := newCourseFixture(cacheRepo)

	_, _, err := svc.List(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateCourseRequest{
		Code: "PH101", Title: "Physics", Credits: 3, MaxCapacity: 40, Active: true,
	})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.deletes, "catalog:courses:*")

	_, _, err = svc.List(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}
