package dto

import "github.com/TQanh23/course-registration-api/internal/models"

// BatchRegistrationEntry identifies one course/term pair in a batch request.
type BatchRegistrationEntry struct {
	CourseID string `json:"courseId" validate:"required"`
	TermID   string `json:"termId" validate:"required"`
}

// BatchRegisterRequest registers a student for several courses at once.
type BatchRegisterRequest struct {
	StudentID     string                   `json:"student_id" validate:"required"`
	Registrations []BatchRegistrationEntry `json:"registrations" validate:"required,min=1,dive"`
}

// BatchDropRequest drops several registrations at once.
type BatchDropRequest struct {
	StudentID       string   `json:"student_id" validate:"required"`
	RegistrationIDs []string `json:"registration_ids" validate:"required,min=1"`
}

// BatchFailure records why one batch entry was rejected.
type BatchFailure struct {
	CourseID       string `json:"courseId,omitempty"`
	TermID         string `json:"termId,omitempty"`
	RegistrationID string `json:"registrationId,omitempty"`
	Reason         string `json:"reason"`
}

// BatchDetails splits the per-entry outcomes of a batch operation.
type BatchDetails struct {
	Success []models.RegistrationDetail `json:"success"`
	Failed  []BatchFailure              `json:"failed"`
}

// BatchResult aggregates a batch registration or drop. Partial success is the
// documented behavior: entries are processed independently, never rolled back
// as a group.
type BatchResult struct {
	TotalRequested          int          `json:"totalRequested"`
	SuccessfulRegistrations int          `json:"successfulRegistrations"`
	FailedRegistrations     int          `json:"failedRegistrations"`
	Details                 BatchDetails `json:"details"`
}
