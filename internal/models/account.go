package models

import "time"

// AccountRole discriminates the two account families stored in the accounts table.
type AccountRole string

const (
	RoleAdmin   AccountRole = "ADMIN"
	RoleStudent AccountRole = "STUDENT"
)

// Account represents an application user, admin or student.
type Account struct {
	ID           string      `db:"id" json:"id"`
	Username     string      `db:"username" json:"username"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	FullName     string      `db:"full_name" json:"full_name"`
	Role         AccountRole `db:"role" json:"role"`
	Active       bool        `db:"active" json:"active"`
	LastLogin    *time.Time  `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// StudentProfile carries the academic fields that only student accounts have.
type StudentProfile struct {
	AccountID   string     `db:"account_id" json:"-"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ClassName   string     `db:"class_name" json:"class_name"`
	ProgramID   *string    `db:"program_id" json:"program_id,omitempty"`
}

// AccountDetail joins an account with its optional student profile.
type AccountDetail struct {
	Account
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ClassName   *string    `db:"class_name" json:"class_name,omitempty"`
	ProgramID   *string    `db:"program_id" json:"program_id,omitempty"`
}

// AccountFilter captures filtering criteria for listing accounts.
type AccountFilter struct {
	Role      *AccountRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
