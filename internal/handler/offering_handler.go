package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/service"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
	"github.com/TQanh23/course-registration-api/pkg/response"
)

// OfferingHandler handles course offering endpoints.
type OfferingHandler struct {
	service *service.OfferingService
}

// NewOfferingHandler creates a new offering handler.
func NewOfferingHandler(svc *service.OfferingService) *OfferingHandler {
	return &OfferingHandler{service: svc}
}

// List godoc
// @Summary List offerings
// @Description List course offerings with course and term context
// @Tags Offerings
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param course_id query string false "Course filter"
// @Param term_id query string false "Term filter"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *OfferingHandler) List(c *gin.Context) {
	var filter models.OfferingFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	filter.CourseID = c.Query("course_id")
	filter.TermID = c.Query("term_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	offerings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, offerings, pagination)
}

// Get godoc
// @Summary Get offering
// @Description Get an offering with its schedules
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *OfferingHandler) Get(c *gin.Context) {
	offering, schedules, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"offering": offering, "schedules": schedules}, nil)
}

// Create godoc
// @Summary Create offering
// @Description Open a section of a course within a term
// @Tags Offerings
// @Accept json
// @Produce json
// @Param payload body service.CreateOfferingRequest true "Create offering payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offerings [post]
func (h *OfferingHandler) Create(c *gin.Context) {
	var req service.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	offering, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, offering)
}

// Update godoc
// @Summary Update offering
// @Description Adjust section number and capacity of an offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body service.UpdateOfferingRequest true "Update offering payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offerings/{id} [put]
func (h *OfferingHandler) Update(c *gin.Context) {
	var req service.UpdateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	offering, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, offering, nil)
}

// Delete godoc
// @Summary Delete offering
// @Description Delete an offering without registrations
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offerings/{id} [delete]
func (h *OfferingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AttachSchedule godoc
// @Summary Attach schedule
// @Description Attach a timetable slot and classroom to an offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body service.AttachScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offerings/{id}/schedules [post]
func (h *OfferingHandler) AttachSchedule(c *gin.Context) {
	var req service.AttachScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	schedule, err := h.service.AttachSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, schedule)
}

// DetachSchedule godoc
// @Summary Detach schedule
// @Description Remove a schedule row from an offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Param scheduleId path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offerings/{id}/schedules/{scheduleId} [delete]
func (h *OfferingHandler) DetachSchedule(c *gin.Context) {
	if err := h.service.DetachSchedule(c.Request.Context(), c.Param("id"), c.Param("scheduleId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListSlots godoc
// @Summary List timetable slots
// @Description List the fixed weekly timetable slot catalog
// @Tags Offerings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable-slots [get]
func (h *OfferingHandler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, slots, nil)
}
