package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TQanh23/course-registration-api/internal/dto"
	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/service"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
	"github.com/TQanh23/course-registration-api/pkg/response"
)

type registrationService interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RegistrationDetail, error)
	Register(ctx context.Context, actor *models.JWTClaims, req service.CreateRegistrationRequest, meta models.LoginRequest) (*models.RegistrationDetail, error)
	BatchRegister(ctx context.Context, actor *models.JWTClaims, req dto.BatchRegisterRequest, meta models.LoginRequest) (*dto.BatchResult, error)
	Drop(ctx context.Context, actor *models.JWTClaims, id string, meta models.LoginRequest) (*models.Registration, error)
	BatchDrop(ctx context.Context, actor *models.JWTClaims, req dto.BatchDropRequest, meta models.LoginRequest) (*dto.BatchResult, error)
	UpdateStatus(ctx context.Context, actorID, id string, req service.UpdateRegistrationStatusRequest, meta models.LoginRequest) (*models.Registration, error)
	Delete(ctx context.Context, id string) error
	Timetable(ctx context.Context, studentID string) ([]models.TimetableEntry, error)
	ExportTimetable(ctx context.Context, studentID, format string) ([]byte, string, error)
	ExportRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]byte, error)
}

type courseSignupRequest struct {
	OfferingID string `json:"course_offering_id" binding:"required"`
}

// RegistrationHandler handles registration, drop and timetable endpoints.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler creates a new registration handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// List godoc
// @Summary List registrations
// @Description List registrations; students only see their own
// @Tags Registrations
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param student_id query string false "Student filter"
// @Param offering_id query string false "Offering filter"
// @Param term_id query string false "Term filter"
// @Param status query string false "Status filter"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := h.parseFilter(c)
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	registrations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registrations, pagination)
}

// Get godoc
// @Summary Get registration
// @Description Get a registration; students only their own
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	registration, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registration, nil)
}

// Create godoc
// @Summary Register a student
// @Description Register a student for a course in a term (admin path)
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	registration, err := h.service.Register(c.Request.Context(), claims, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, registration)
}

// SignUp godoc
// @Summary Course signup
// @Description Register the authenticated student for a specific course offering
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Target offering id"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/course-signup [post]
func (h *RegistrationHandler) SignUp(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req courseSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	registration, err := h.service.Register(c.Request.Context(), claims, service.CreateRegistrationRequest{
		StudentID:  claims.UserID,
		OfferingID: req.OfferingID,
	}, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, registration)
}

// BatchRegister godoc
// @Summary Batch register
// @Description Register a student for several courses; entries succeed or fail independently
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.BatchRegisterRequest true "Batch registration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registrations/batch [post]
func (h *RegistrationHandler) BatchRegister(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.BatchRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims.Role == models.RoleStudent {
		req.StudentID = claims.UserID
	}

	result, err := h.service.BatchRegister(c.Request.Context(), claims, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// BatchDrop godoc
// @Summary Batch drop
// @Description Drop several registrations; entries succeed or fail independently
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.BatchDropRequest true "Batch drop payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registrations/batch-drop [post]
func (h *RegistrationHandler) BatchDrop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.BatchDropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims.Role == models.RoleStudent {
		req.StudentID = claims.UserID
	}

	result, err := h.service.BatchDrop(c.Request.Context(), claims, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Drop godoc
// @Summary Drop registration
// @Description Move a registration to dropped status
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/drop [put]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	registration, err := h.service.Drop(c.Request.Context(), claims, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registration, nil)
}

// UpdateStatus godoc
// @Summary Update registration status
// @Description Apply an admin status transition on a registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body service.UpdateRegistrationStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [put]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	registration, err := h.service.UpdateStatus(c.Request.Context(), claims.UserID, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registration, nil)
}

// Delete godoc
// @Summary Delete registration
// @Description Hard-delete a registration, releasing its seat
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export registrations
// @Description Export the filtered registration list as CSV
// @Tags Registrations
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /registrations/export [get]
func (h *RegistrationHandler) Export(c *gin.Context) {
	filter := h.parseFilter(c)

	payload, err := h.service.ExportRegistrations(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("registrations-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}

// MyTimetable godoc
// @Summary My timetable
// @Description Weekly timetable of the authenticated student's registered classes
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations/my-timetable [get]
func (h *RegistrationHandler) MyTimetable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.service.Timetable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportMyTimetable godoc
// @Summary Export my timetable
// @Description Export the authenticated student's timetable as CSV or PDF
// @Tags Registrations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {string} string "Export payload"
// @Router /registrations/my-timetable/export [get]
func (h *RegistrationHandler) ExportMyTimetable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportTimetable(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if format == "pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("timetable-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}

func (h *RegistrationHandler) parseFilter(c *gin.Context) models.RegistrationFilter {
	var filter models.RegistrationFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	filter.StudentID = c.Query("student_id")
	filter.OfferingID = c.Query("offering_id")
	filter.TermID = c.Query("term_id")
	if status := c.Query("status"); status != "" {
		filter.Status = models.RegistrationStatus(status)
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	return filter
}
