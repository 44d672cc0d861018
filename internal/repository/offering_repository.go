package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/TQanh23/course-registration-api/internal/models"
)

// OfferingRepository handles persistence of course offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

const offeringDetailColumns = `o.id, o.course_id, o.term_id, o.section_number, o.max_enrollment, o.current_enrollment, o.created_at, o.updated_at,
c.code AS course_code, c.title AS course_title, t.term_name`

// FindByID returns an offering by its ID.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	const query = `SELECT id, course_id, term_id, section_number, max_enrollment, current_enrollment, created_at, updated_at FROM course_offerings WHERE id = ? LIMIT 1`
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find offering by id: %w", err)
	}
	return &offering, nil
}

// FindDetailByID returns an offering with course and term context.
func (r *OfferingRepository) FindDetailByID(ctx context.Context, id string) (*models.OfferingDetail, error) {
	const query = `SELECT ` + offeringDetailColumns + `
FROM course_offerings o
JOIN courses c ON c.id = o.course_id
JOIN academic_terms t ON t.id = o.term_id
WHERE o.id = ?`
	var detail models.OfferingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find offering detail: %w", err)
	}
	return &detail, nil
}

// FindByCourseAndTerm returns the offering linking a course and a term.
// When several sections exist the lowest section number wins, matching the
// admin registration path that addresses offerings by (course, term).
func (r *OfferingRepository) FindByCourseAndTerm(ctx context.Context, courseID, termID string) (*models.CourseOffering, error) {
	const query = `SELECT id, course_id, term_id, section_number, max_enrollment, current_enrollment, created_at, updated_at
FROM course_offerings WHERE course_id = ? AND term_id = ? ORDER BY section_number ASC LIMIT 1`
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, query, courseID, termID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find offering by course and term: %w", err)
	}
	return &offering, nil
}

// List returns offerings filtered by the provided criteria.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, int, error) {
	base := `FROM course_offerings o
JOIN courses c ON c.id = o.course_id
JOIN academic_terms t ON t.id = o.term_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, "o.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, "o.term_id = ?")
		args = append(args, filter.TermID)
	}

	clause := base
	if len(conditions) > 0 {
		clause += " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"course_code": "c.code",
		"term_name":   "t.term_name",
		"section":     "o.section_number",
		"created_at":  "o.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	listQuery := fmt.Sprintf(`SELECT `+offeringDetailColumns+` %s ORDER BY %s %s, o.section_number ASC LIMIT %d OFFSET %d`,
		clause, orderBy, order, size, offset)

	var offerings []models.OfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}
	return offerings, total, nil
}

// ExistsSection reports whether a (course, term, section) combination exists.
func (r *OfferingRepository) ExistsSection(ctx context.Context, courseID, termID string, section int, excludeID string) (bool, error) {
	query := `SELECT 1 FROM course_offerings WHERE course_id = ? AND term_id = ? AND section_number = ?`
	args := []interface{}{courseID, termID, section}
	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check offering section: %w", err)
	}
	return true, nil
}

// Create persists a new offering with a zeroed enrollment counter.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now
	offering.CurrentEnrollment = 0
	const query = `INSERT INTO course_offerings (id, course_id, term_id, section_number, max_enrollment, current_enrollment, created_at, updated_at)
VALUES (:id, :course_id, :term_id, :section_number, :max_enrollment, :current_enrollment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// Update updates section number and max enrollment. The current_enrollment
// counter belongs to the registration ledger and is never written here.
func (r *OfferingRepository) Update(ctx context.Context, offering *models.CourseOffering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_offerings SET section_number = :section_number, max_enrollment = :max_enrollment, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	return nil
}

// Delete removes an offering with no registrations.
func (r *OfferingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_offerings WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete offering: %w", err)
	}
	return nil
}

// HasRegistrations reports whether any registration references the offering.
func (r *OfferingRepository) HasRegistrations(ctx context.Context, offeringID string) (bool, error) {
	const query = `SELECT 1 FROM registrations WHERE course_offering_id = ? LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, offeringID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check offering registrations: %w", err)
	}
	return true, nil
}
