package models

import "time"

// TimetableSlot is a fixed weekly meeting block (day + wall-clock range).
type TimetableSlot struct {
	ID        string `db:"id" json:"id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// Classroom describes a physical room.
type Classroom struct {
	ID         string `db:"id" json:"id"`
	RoomNumber string `db:"room_number" json:"room_number"`
	Building   string `db:"building" json:"building"`
	Capacity   int    `db:"capacity" json:"capacity"`
}

// CourseSchedule links an offering to a timetable slot and classroom for a
// date range.
type CourseSchedule struct {
	ID               string    `db:"id" json:"id"`
	CourseOfferingID string    `db:"course_offering_id" json:"course_offering_id"`
	TimetableSlotID  string    `db:"timetable_slot_id" json:"timetable_slot_id"`
	ClassroomID      string    `db:"classroom_id" json:"classroom_id"`
	TeacherName      string    `db:"teacher_name" json:"teacher_name"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
}

// ClassScheduleStatus tracks whether a student schedule row still occupies
// its slot.
type ClassScheduleStatus string

const (
	ClassScheduleRegistered ClassScheduleStatus = "registered"
	ClassScheduleDropped    ClassScheduleStatus = "dropped"
)

// StudentClassSchedule is the materialized "what meets when for this student"
// row used for conflict detection. Rows are marked dropped, never deleted.
type StudentClassSchedule struct {
	ID               string              `db:"id" json:"id"`
	StudentID        string              `db:"student_id" json:"student_id"`
	CourseOfferingID string              `db:"course_offering_id" json:"course_offering_id"`
	TimetableSlotID  string              `db:"timetable_slot_id" json:"timetable_slot_id"`
	ClassroomID      string              `db:"classroom_id" json:"classroom_id"`
	StartDate        time.Time           `db:"start_date" json:"start_date"`
	EndDate          time.Time           `db:"end_date" json:"end_date"`
	Status           ClassScheduleStatus `db:"status" json:"status"`
}

// ScheduleConflict describes an existing registered schedule row that blocks
// a new registration on the same timetable slot.
type ScheduleConflict struct {
	TimetableSlotID string `db:"timetable_slot_id" json:"timetable_slot_id"`
	CourseCode      string `db:"course_code" json:"course_code"`
	CourseTitle     string `db:"course_title" json:"course_title"`
}

// TimetableEntry is the flattened row returned by the my-timetable endpoint.
type TimetableEntry struct {
	Day         int    `db:"day_of_week" json:"day"`
	StartTime   string `db:"start_time" json:"startTime"`
	EndTime     string `db:"end_time" json:"endTime"`
	SubjectCode string `db:"course_code" json:"subjectCode"`
	SubjectName string `db:"course_title" json:"subjectName"`
	Room        string `db:"room_number" json:"room"`
	Teacher     string `db:"teacher_name" json:"teacher"`
}
