package models

import "time"

// Term models an academic term with its registration window.
type Term struct {
	ID                string    `db:"id" json:"id"`
	TermName          string    `db:"term_name" json:"term_name"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	EndDate           time.Time `db:"end_date" json:"end_date"`
	RegistrationStart time.Time `db:"registration_start" json:"registration_start"`
	RegistrationEnd   time.Time `db:"registration_end" json:"registration_end"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// WindowOpen reports whether student-initiated registration or drop is
// permitted at the given instant. Admin paths bypass this check.
func (t Term) WindowOpen(now time.Time) bool {
	return !now.Before(t.RegistrationStart) && !now.After(t.RegistrationEnd)
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
