package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/TQanh23/course-registration-api/internal/models"
)

// Ledger errors surfaced from transactional registration operations.
var (
	ErrOfferingFull      = errors.New("offering has reached maximum enrollment")
	ErrAlreadyRegistered = errors.New("student already holds a registration for this offering")
	ErrAlreadyDropped    = errors.New("registration is already dropped")
	ErrBadTransition     = errors.New("status transition not allowed")
)

// RegistrationRepository is the enrollment ledger. Every mutation of an
// offering's current_enrollment counter happens here, inside a transaction
// that locks the offering row, so the capacity check and the counter update
// are atomic and the increment/decrement rule lives in one place.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.student_id, r.course_offering_id, r.registration_date, r.registration_status, r.grade, r.created_at, r.updated_at`

const registrationDetailQuery = `SELECT ` + registrationColumns + `,
a.full_name AS student_name, c.code AS course_code, c.title AS course_title,
o.term_id, t.term_name, o.section_number
FROM registrations r
JOIN accounts a ON a.id = r.student_id
JOIN course_offerings o ON o.id = r.course_offering_id
JOIN courses c ON c.id = o.course_id
JOIN academic_terms t ON t.id = o.term_id`

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.id = ? LIMIT 1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration by id: %w", err)
	}
	return &reg, nil
}

// FindDetailByID returns a registration with contextual info.
func (r *RegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	query := registrationDetailQuery + ` WHERE r.id = ?`
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration detail: %w", err)
	}
	return &detail, nil
}

// ExistsNonDropped checks if the student already holds a registration for the
// offering in any status other than dropped.
func (r *RegistrationRepository) ExistsNonDropped(ctx context.Context, studentID, offeringID string) (bool, error) {
	const query = `SELECT 1 FROM registrations WHERE student_id = ? AND course_offering_id = ? AND registration_status <> ? LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, offeringID, models.RegistrationDropped); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check existing registration: %w", err)
	}
	return true, nil
}

// List returns registrations filtered by the provided criteria.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	base := `FROM registrations r
JOIN accounts a ON a.id = r.student_id
JOIN course_offerings o ON o.id = r.course_offering_id
JOIN courses c ON c.id = o.course_id
JOIN academic_terms t ON t.id = o.term_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, "r.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, "r.course_offering_id = ?")
		args = append(args, filter.OfferingID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, "o.term_id = ?")
		args = append(args, filter.TermID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "r.registration_status = ?")
		args = append(args, filter.Status)
	}

	clause := base
	if len(conditions) > 0 {
		clause += " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"registration_date": "r.registration_date",
		"student_name":      "a.full_name",
		"course_code":       "c.code",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "r.registration_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf(`SELECT `+registrationColumns+`,
a.full_name AS student_name, c.code AS course_code, c.title AS course_title,
o.term_id, t.term_name, o.section_number
%s ORDER BY %s %s LIMIT %d OFFSET %d`, clause, orderBy, order, size, offset)

	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}

// lockedOffering is the subset of offering columns read under FOR UPDATE.
type lockedOffering struct {
	ID                string `db:"id"`
	MaxEnrollment     int    `db:"max_enrollment"`
	CurrentEnrollment int    `db:"current_enrollment"`
}

func lockOffering(ctx context.Context, tx *sqlx.Tx, offeringID string) (*lockedOffering, error) {
	const query = `SELECT id, max_enrollment, current_enrollment FROM course_offerings WHERE id = ? FOR UPDATE`
	var offering lockedOffering
	if err := tx.GetContext(ctx, &offering, query, offeringID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock offering: %w", err)
	}
	return &offering, nil
}

func adjustEnrollment(ctx context.Context, tx *sqlx.Tx, offeringID string, delta int) error {
	if delta == 0 {
		return nil
	}
	const query = `UPDATE course_offerings SET current_enrollment = current_enrollment + ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, delta, time.Now().UTC(), offeringID); err != nil {
		return fmt.Errorf("adjust enrollment counter: %w", err)
	}
	return nil
}

// Enroll inserts a registration in status enrolled, increments the offering
// counter and materializes one schedule row per course schedule, all in one
// transaction with the offering row locked. The capacity and duplicate checks
// are re-run under the lock so concurrent requests cannot overshoot capacity.
func (r *RegistrationRepository) Enroll(ctx context.Context, reg *models.Registration, schedules []models.CourseSchedule) (err error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.RegistrationDate.IsZero() {
		reg.RegistrationDate = now
	}
	if reg.Status == "" {
		reg.Status = models.RegistrationEnrolled
	}
	reg.CreatedAt = now
	reg.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	offering, err := lockOffering(ctx, tx, reg.CourseOfferingID)
	if err != nil {
		return err
	}
	if offering.CurrentEnrollment >= offering.MaxEnrollment {
		err = ErrOfferingFull
		return err
	}

	const dupQuery = `SELECT 1 FROM registrations WHERE student_id = ? AND course_offering_id = ? AND registration_status <> ? LIMIT 1`
	var exists int
	if err = tx.GetContext(ctx, &exists, dupQuery, reg.StudentID, reg.CourseOfferingID, models.RegistrationDropped); err == nil {
		err = ErrAlreadyRegistered
		return err
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("check duplicate registration: %w", err)
	}
	err = nil

	const insertReg = `INSERT INTO registrations (id, student_id, course_offering_id, registration_date, registration_status, grade, created_at, updated_at)
VALUES (:id, :student_id, :course_offering_id, :registration_date, :registration_status, :grade, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertReg, reg); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = adjustEnrollment(ctx, tx, reg.CourseOfferingID, 1); err != nil {
		return err
	}

	const insertSchedule = `INSERT INTO student_class_schedules (id, student_id, course_offering_id, timetable_slot_id, classroom_id, start_date, end_date, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, s := range schedules {
		if _, err = tx.ExecContext(ctx, insertSchedule,
			uuid.NewString(), reg.StudentID, reg.CourseOfferingID, s.TimetableSlotID, s.ClassroomID,
			s.StartDate, s.EndDate, models.ClassScheduleRegistered); err != nil {
			return fmt.Errorf("insert student schedule: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll: %w", err)
	}
	return nil
}

// Drop flips a registration to dropped, decrements the counter when it was
// enrolled and marks the student's schedule rows dropped. Dropping an already
// dropped registration fails with ErrAlreadyDropped.
func (r *RegistrationRepository) Drop(ctx context.Context, id string) (reg *models.Registration, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin drop: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	reg = &models.Registration{}
	const selectReg = `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.id = ? FOR UPDATE`
	if err = tx.GetContext(ctx, reg, selectReg, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock registration: %w", err)
	}
	if reg.Status == models.RegistrationDropped {
		err = ErrAlreadyDropped
		return nil, err
	}

	wasEnrolled := reg.Status == models.RegistrationEnrolled
	now := time.Now().UTC()

	const updateReg = `UPDATE registrations SET registration_status = ?, updated_at = ? WHERE id = ?`
	if _, err = tx.ExecContext(ctx, updateReg, models.RegistrationDropped, now, id); err != nil {
		return nil, fmt.Errorf("update registration status: %w", err)
	}

	if wasEnrolled {
		if _, err = lockOffering(ctx, tx, reg.CourseOfferingID); err != nil {
			return nil, err
		}
		if err = adjustEnrollment(ctx, tx, reg.CourseOfferingID, -1); err != nil {
			return nil, err
		}
	}

	if err = markSchedules(ctx, tx, reg.StudentID, reg.CourseOfferingID, models.ClassScheduleDropped); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drop: %w", err)
	}
	reg.Status = models.RegistrationDropped
	reg.UpdatedAt = now
	return reg, nil
}

// ChangeStatus applies an admin status transition. The transition table and
// the counter delta are computed from the models package so every path shares
// the same rule. Entering enrolled re-checks capacity under the lock and
// re-activates schedule rows; leaving enrolled marks them dropped.
func (r *RegistrationRepository) ChangeStatus(ctx context.Context, id string, to models.RegistrationStatus, grade *string) (reg *models.Registration, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status change: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	reg = &models.Registration{}
	const selectReg = `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.id = ? FOR UPDATE`
	if err = tx.GetContext(ctx, reg, selectReg, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock registration: %w", err)
	}

	if !models.ValidTransition(reg.Status, to) {
		err = ErrBadTransition
		return nil, err
	}

	delta := models.EnrollmentDelta(reg.Status, to)
	if delta != 0 {
		offering, lockErr := lockOffering(ctx, tx, reg.CourseOfferingID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		if delta > 0 && offering.CurrentEnrollment >= offering.MaxEnrollment {
			err = ErrOfferingFull
			return nil, err
		}
		if err = adjustEnrollment(ctx, tx, reg.CourseOfferingID, delta); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	const updateReg = `UPDATE registrations SET registration_status = ?, grade = ?, updated_at = ? WHERE id = ?`
	newGrade := reg.Grade
	if grade != nil {
		newGrade = grade
	}
	if _, err = tx.ExecContext(ctx, updateReg, to, newGrade, now, id); err != nil {
		return nil, fmt.Errorf("update registration status: %w", err)
	}

	switch {
	case delta > 0:
		if err = markSchedules(ctx, tx, reg.StudentID, reg.CourseOfferingID, models.ClassScheduleRegistered); err != nil {
			return nil, err
		}
	case delta < 0 && to == models.RegistrationDropped:
		if err = markSchedules(ctx, tx, reg.StudentID, reg.CourseOfferingID, models.ClassScheduleDropped); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}
	reg.Status = to
	reg.Grade = newGrade
	reg.UpdatedAt = now
	return reg, nil
}

// Delete hard-deletes a registration, decrementing the counter when it was
// enrolled and marking schedule rows dropped.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var reg models.Registration
	const selectReg = `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.id = ? FOR UPDATE`
	if err = tx.GetContext(ctx, &reg, selectReg, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock registration: %w", err)
	}

	if reg.Status == models.RegistrationEnrolled {
		if _, err = lockOffering(ctx, tx, reg.CourseOfferingID); err != nil {
			return err
		}
		if err = adjustEnrollment(ctx, tx, reg.CourseOfferingID, -1); err != nil {
			return err
		}
	}

	if err = markSchedules(ctx, tx, reg.StudentID, reg.CourseOfferingID, models.ClassScheduleDropped); err != nil {
		return err
	}

	const deleteReg = `DELETE FROM registrations WHERE id = ?`
	if _, err = tx.ExecContext(ctx, deleteReg, id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete registration: %w", err)
	}
	return nil
}

func markSchedules(ctx context.Context, tx *sqlx.Tx, studentID, offeringID string, status models.ClassScheduleStatus) error {
	const query = `UPDATE student_class_schedules SET status = ? WHERE student_id = ? AND course_offering_id = ?`
	if _, err := tx.ExecContext(ctx, query, status, studentID, offeringID); err != nil {
		return fmt.Errorf("mark student schedules: %w", err)
	}
	return nil
}
