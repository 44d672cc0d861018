package models

import "time"

// CourseOffering is a scheduled section of a course within a term. The
// current_enrollment column is a denormalized counter kept equal to the count
// of enrolled registrations; it is mutated only by the registration ledger.
type CourseOffering struct {
	ID                string    `db:"id" json:"id"`
	CourseID          string    `db:"course_id" json:"course_id"`
	TermID            string    `db:"term_id" json:"term_id"`
	SectionNumber     int       `db:"section_number" json:"section_number"`
	MaxEnrollment     int       `db:"max_enrollment" json:"max_enrollment"`
	CurrentEnrollment int       `db:"current_enrollment" json:"current_enrollment"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// OfferingDetail enriches an offering with course and term info.
type OfferingDetail struct {
	CourseOffering
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
	TermName    string `db:"term_name" json:"term_name"`
}

// OfferingFilter provides filters for listing offerings.
type OfferingFilter struct {
	CourseID  string
	TermID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
