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

// ScheduleRepository handles timetable slots, classrooms, course schedules
// and the per-student schedule rows used for conflict detection.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindSlotByID returns a timetable slot.
func (r *ScheduleRepository) FindSlotByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	const query = `SELECT id, day_of_week, start_time, end_time FROM timetable_slots WHERE id = ? LIMIT 1`
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timetable slot: %w", err)
	}
	return &slot, nil
}

// ListSlots returns all timetable slots ordered by day and start time.
func (r *ScheduleRepository) ListSlots(ctx context.Context) ([]models.TimetableSlot, error) {
	const query = `SELECT id, day_of_week, start_time, end_time FROM timetable_slots ORDER BY day_of_week, start_time`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// FindClassroomByID returns a classroom.
func (r *ScheduleRepository) FindClassroomByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, room_number, building, capacity FROM classrooms WHERE id = ? LIMIT 1`
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find classroom: %w", err)
	}
	return &room, nil
}

// ListByOffering returns the course schedules attached to an offering.
func (r *ScheduleRepository) ListByOffering(ctx context.Context, offeringID string) ([]models.CourseSchedule, error) {
	const query = `SELECT id, course_offering_id, timetable_slot_id, classroom_id, teacher_name, start_date, end_date
FROM course_schedules WHERE course_offering_id = ?`
	var schedules []models.CourseSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, offeringID); err != nil {
		return nil, fmt.Errorf("list course schedules: %w", err)
	}
	return schedules, nil
}

// CreateCourseSchedule attaches an offering to a slot and classroom.
func (r *ScheduleRepository) CreateCourseSchedule(ctx context.Context, schedule *models.CourseSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	const query = `INSERT INTO course_schedules (id, course_offering_id, timetable_slot_id, classroom_id, teacher_name, start_date, end_date)
VALUES (:id, :course_offering_id, :timetable_slot_id, :classroom_id, :teacher_name, :start_date, :end_date)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create course schedule: %w", err)
	}
	return nil
}

// DeleteCourseSchedule removes a schedule row from an offering.
func (r *ScheduleRepository) DeleteCourseSchedule(ctx context.Context, id string) error {
	const query = `DELETE FROM course_schedules WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course schedule: %w", err)
	}
	return nil
}

// FindConflicts returns the student's registered schedule rows that occupy
// any of the given timetable slots with an overlapping date range.
//
// Conflicts are detected by slot identity only: two schedules clash when they
// reference the same timetable_slot_id. Distinct slots with identical
// wall-clock times are not considered conflicting.
func (r *ScheduleRepository) FindConflicts(ctx context.Context, studentID string, slotIDs []string, start, end time.Time) ([]models.ScheduleConflict, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(slotIDs))
	args := []interface{}{studentID, models.ClassScheduleRegistered}
	for i, id := range slotIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, end, start)

	query := fmt.Sprintf(`SELECT s.timetable_slot_id, c.code AS course_code, c.title AS course_title
FROM student_class_schedules s
JOIN course_offerings o ON o.id = s.course_offering_id
JOIN courses c ON c.id = o.course_id
WHERE s.student_id = ? AND s.status = ? AND s.timetable_slot_id IN (%s)
AND s.start_date <= ? AND s.end_date >= ?`, strings.Join(placeholders, ","))

	var conflicts []models.ScheduleConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("find schedule conflicts: %w", err)
	}
	return conflicts, nil
}

// Timetable returns the flattened weekly timetable for a student's
// registered schedule rows.
func (r *ScheduleRepository) Timetable(ctx context.Context, studentID string) ([]models.TimetableEntry, error) {
	const query = `SELECT ts.day_of_week, ts.start_time, ts.end_time, c.code AS course_code, c.title AS course_title,
cr.room_number, cs.teacher_name
FROM student_class_schedules s
JOIN timetable_slots ts ON ts.id = s.timetable_slot_id
JOIN course_offerings o ON o.id = s.course_offering_id
JOIN courses c ON c.id = o.course_id
JOIN classrooms cr ON cr.id = s.classroom_id
JOIN course_schedules cs ON cs.course_offering_id = s.course_offering_id AND cs.timetable_slot_id = s.timetable_slot_id
WHERE s.student_id = ? AND s.status = ?
ORDER BY ts.day_of_week, ts.start_time`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, models.ClassScheduleRegistered); err != nil {
		return nil, fmt.Errorf("load student timetable: %w", err)
	}
	return entries, nil
}
