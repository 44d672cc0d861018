package models

import "time"

// RegistrationStatus represents the lifecycle of a registration.
type RegistrationStatus string

// Possible registration statuses.
const (
	RegistrationEnrolled   RegistrationStatus = "enrolled"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationDropped    RegistrationStatus = "dropped"
	RegistrationCompleted  RegistrationStatus = "completed"
)

// Registration is the ledger record linking a student to a course offering.
// Status transitions are in-place updates; history is not preserved.
type Registration struct {
	ID               string             `db:"id" json:"id"`
	StudentID        string             `db:"student_id" json:"student_id"`
	CourseOfferingID string             `db:"course_offering_id" json:"course_offering_id"`
	RegistrationDate time.Time          `db:"registration_date" json:"registration_date"`
	Status           RegistrationStatus `db:"registration_status" json:"registration_status"`
	Grade            *string            `db:"grade" json:"grade,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationDetail enriches a registration with student, course and term info.
type RegistrationDetail struct {
	Registration
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
	TermID      string `db:"term_id" json:"term_id"`
	TermName    string `db:"term_name" json:"term_name"`
	Section     int    `db:"section_number" json:"section_number"`
}

// RegistrationFilter provides filters for listing registrations.
type RegistrationFilter struct {
	StudentID  string
	OfferingID string
	TermID     string
	Status     RegistrationStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ValidTransition reports whether the admin status update may move a
// registration from one status to another: enrolled and waitlisted swap
// freely, either may be dropped, and only enrolled completes.
func ValidTransition(from, to RegistrationStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case RegistrationEnrolled:
		return to == RegistrationWaitlisted || to == RegistrationDropped || to == RegistrationCompleted
	case RegistrationWaitlisted:
		return to == RegistrationEnrolled || to == RegistrationDropped
	default:
		return false
	}
}

// EnrollmentDelta returns the adjustment to apply to an offering's
// current_enrollment counter for a status change. This is the single place
// that rule lives.
func EnrollmentDelta(from, to RegistrationStatus) int {
	switch {
	case from != RegistrationEnrolled && to == RegistrationEnrolled:
		return 1
	case from == RegistrationEnrolled && to != RegistrationEnrolled:
		return -1
	default:
		return 0
	}
}
