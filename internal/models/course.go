package models

import "time"

// Course is a catalog template from which per-term offerings are created.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Credits     int       `db:"credits" json:"credits"`
	CategoryID  *string   `db:"category_id" json:"category_id,omitempty"`
	MaxCapacity int       `db:"max_capacity" json:"max_capacity"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filters supported by the course list endpoint.
type CourseFilter struct {
	Search     string
	CategoryID string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
