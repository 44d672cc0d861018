package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TQanh23/course-registration-api/internal/dto"
	"github.com/TQanh23/course-registration-api/internal/middleware"
	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/service"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

type registrationServiceMock struct {
	listResp      []models.RegistrationDetail
	listErr       error
	registerResp  *models.RegistrationDetail
	registerErr   error
	batchResp     *dto.BatchResult
	dropResp      *models.Registration
	dropErr       error
	exportPayload []byte

	lastFilter   models.RegistrationFilter
	lastRegister service.CreateRegistrationRequest
	lastBatch    dto.BatchRegisterRequest
	listCalled   bool
	dropCalled   bool
}

func (m *registrationServiceMock) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error) {
	m.listCalled = true
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.listResp)}, m.listErr
}

func (m *registrationServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RegistrationDetail, error) {
	return m.registerResp, m.registerErr
}

func (m *registrationServiceMock) Register(ctx context.Context, actor *models.JWTClaims, req service.CreateRegistrationRequest, meta models.LoginRequest) (*models.RegistrationDetail, error) {
	m.lastRegister = req
	return m.registerResp, m.registerErr
}

func (m *registrationServiceMock) BatchRegister(ctx context.Context, actor *models.JWTClaims, req dto.BatchRegisterRequest, meta models.LoginRequest) (*dto.BatchResult, error) {
	m.lastBatch = req
	return m.batchResp, nil
}

func (m *registrationServiceMock) Drop(ctx context.Context, actor *models.JWTClaims, id string, meta models.LoginRequest) (*models.Registration, error) {
	m.dropCalled = true
	return m.dropResp, m.dropErr
}

func (m *registrationServiceMock) BatchDrop(ctx context.Context, actor *models.JWTClaims, req dto.BatchDropRequest, meta models.LoginRequest) (*dto.BatchResult, error) {
	return m.batchResp, nil
}

func (m *registrationServiceMock) UpdateStatus(ctx context.Context, actorID, id string, req service.UpdateRegistrationStatusRequest, meta models.LoginRequest) (*models.Registration, error) {
	return m.dropResp, m.dropErr
}

func (m *registrationServiceMock) Delete(ctx context.Context, id string) error { return nil }

func (m *registrationServiceMock) Timetable(ctx context.Context, studentID string) ([]models.TimetableEntry, error) {
	return []models.TimetableEntry{}, nil
}

func (m *registrationServiceMock) ExportTimetable(ctx context.Context, studentID, format string) ([]byte, string, error) {
	return m.exportPayload, "text/csv", nil
}

func (m *registrationServiceMock) ExportRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]byte, error) {
	m.lastFilter = filter
	return m.exportPayload, nil
}

func studentContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "stu-1", Username: "alice", Role: models.RoleStudent}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestRegistrationHandlerListForcesStudentFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/registrations?student_id=stu-2&status=enrolled", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, "stu-1", mockSvc.lastFilter.StudentID)
	assert.Equal(t, models.RegistrationEnrolled, mockSvc.lastFilter.Status)
}

func TestRegistrationHandlerListAdminKeepsFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	req, _ := http.NewRequest(http.MethodGet, "/registrations?student_id=stu-2", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-2", mockSvc.lastFilter.StudentID)
}

func TestRegistrationHandlerSignUpUsesClaimsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{
		registerResp: &models.RegistrationDetail{Registration: models.Registration{ID: "reg-1"}},
	}
	handler := NewRegistrationHandler(mockSvc)

	payload, _ := json.Marshal(courseSignupRequest{OfferingID: "off-1"})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations/course-signup", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.SignUp(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastRegister.StudentID)
	assert.Equal(t, "off-1", mockSvc.lastRegister.OfferingID)
}

func TestRegistrationHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewBufferString(`{"student_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerBatchRegisterOverridesStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{batchResp: &dto.BatchResult{TotalRequested: 1}}
	handler := NewRegistrationHandler(mockSvc)

	payload, _ := json.Marshal(dto.BatchRegisterRequest{
		StudentID:     "stu-2",
		Registrations: []dto.BatchRegistrationEntry{{CourseID: "course-1", TermID: "term-1"}},
	})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations/batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BatchRegister(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastBatch.StudentID)
}

func TestRegistrationHandlerDropWindowClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{dropErr: appErrors.ErrWindowClosed}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations/reg-1/drop", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "reg-1"}}

	handler.Drop(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, mockSvc.dropCalled)
}

func TestRegistrationHandlerExportSetsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{exportPayload: []byte("Student,Course\n")}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	req, _ := http.NewRequest(http.MethodGet, "/registrations/export", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=registrations-")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Student,Course\n", w.Body.String())
}

func TestRegistrationHandlerMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/my-timetable", nil)
	c.Request = req

	handler.MyTimetable(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
