package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TQanh23/course-registration-api/internal/dto"
	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/repository"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

type mockLedger struct {
	registrations map[string]models.Registration
	details       map[string]models.RegistrationDetail
	nonDropped    map[string]bool
	enrollErr     error
	dropErr       error
	statusErr     error
	nextID        int
	enrolled      []models.Registration
}

func (m *mockLedger) key(studentID, offeringID string) string {
	return studentID + "|" + offeringID
}

func (m *mockLedger) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	out := make([]models.RegistrationDetail, 0, len(m.details))
	for _, d := range m.details {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockLedger) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if reg, ok := m.registrations[id]; ok {
		return &reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedger) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	if reg, ok := m.registrations[id]; ok {
		return &models.RegistrationDetail{Registration: reg}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedger) ExistsNonDropped(ctx context.Context, studentID, offeringID string) (bool, error) {
	return m.nonDropped[m.key(studentID, offeringID)], nil
}

func (m *mockLedger) Enroll(ctx context.Context, reg *models.Registration, schedules []models.CourseSchedule) error {
	if m.enrollErr != nil {
		return m.enrollErr
	}
	m.nextID++
	reg.ID = "reg-" + strconv.Itoa(m.nextID)
	reg.RegistrationDate = time.Now()
	if m.registrations == nil {
		m.registrations = make(map[string]models.Registration)
	}
	m.registrations[reg.ID] = *reg
	if m.nonDropped == nil {
		m.nonDropped = make(map[string]bool)
	}
	m.nonDropped[m.key(reg.StudentID, reg.CourseOfferingID)] = true
	m.enrolled = append(m.enrolled, *reg)
	return nil
}

func (m *mockLedger) Drop(ctx context.Context, id string) (*models.Registration, error) {
	if m.dropErr != nil {
		return nil, m.dropErr
	}
	reg, ok := m.registrations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if reg.Status == models.RegistrationDropped {
		return nil, repository.ErrAlreadyDropped
	}
	reg.Status = models.RegistrationDropped
	m.registrations[id] = reg
	return &reg, nil
}

func (m *mockLedger) ChangeStatus(ctx context.Context, id string, to models.RegistrationStatus, grade *string) (*models.Registration, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	reg, ok := m.registrations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if !models.ValidTransition(reg.Status, to) {
		return nil, repository.ErrBadTransition
	}
	reg.Status = to
	reg.Grade = grade
	m.registrations[id] = reg
	return &reg, nil
}

func (m *mockLedger) Delete(ctx context.Context, id string) error {
	if _, ok := m.registrations[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.registrations, id)
	return nil
}

type mockRegAccountRepo struct {
	accounts map[string]models.Account
	audits   []models.AuditLog
}

func (m *mockRegAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegAccountRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

type mockRegCourseRepo struct {
	courses map[string]models.Course
}

func (m *mockRegCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockRegTermRepo struct {
	terms map[string]models.Term
}

func (m *mockRegTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.terms[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type mockRegOfferingRepo struct {
	offerings map[string]models.CourseOffering
}

func (m *mockRegOfferingRepo) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	if o, ok := m.offerings[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegOfferingRepo) FindByCourseAndTerm(ctx context.Context, courseID, termID string) (*models.CourseOffering, error) {
	for _, o := range m.offerings {
		if o.CourseID == courseID && o.TermID == termID {
			result := o
			return &result, nil
		}
	}
	return nil, sql.ErrNoRows
}

// registeredRow mirrors one registered student_class_schedules row; the mock
// matches it on slot identity and date overlap the way the real query does.
type registeredRow struct {
	slotID   string
	start    time.Time
	end      time.Time
	conflict models.ScheduleConflict
}

type mockRegScheduleRepo struct {
	byOffering map[string][]models.CourseSchedule
	registered []registeredRow
	timetable  []models.TimetableEntry
}

func (m *mockRegScheduleRepo) ListByOffering(ctx context.Context, offeringID string) ([]models.CourseSchedule, error) {
	return m.byOffering[offeringID], nil
}

func (m *mockRegScheduleRepo) FindConflicts(ctx context.Context, studentID string, slotIDs []string, start, end time.Time) ([]models.ScheduleConflict, error) {
	var out []models.ScheduleConflict
	for _, row := range m.registered {
		for _, slotID := range slotIDs {
			if row.slotID == slotID && !row.start.After(end) && !row.end.Before(start) {
				out = append(out, row.conflict)
			}
		}
	}
	return out, nil
}

func (m *mockRegScheduleRepo) Timetable(ctx context.Context, studentID string) ([]models.TimetableEntry, error) {
	return m.timetable, nil
}

type registrationFixture struct {
	ledger    *mockLedger
	accounts  *mockRegAccountRepo
	courses   *mockRegCourseRepo
	terms     *mockRegTermRepo
	offerings *mockRegOfferingRepo
	schedules *mockRegScheduleRepo
	svc       *RegistrationService
}

func newRegistrationFixture() *registrationFixture {
	now := time.Now().UTC()
	f := &registrationFixture{
		ledger: &mockLedger{
			registrations: make(map[string]models.Registration),
			details:       make(map[string]models.RegistrationDetail),
			nonDropped:    make(map[string]bool),
		},
		accounts: &mockRegAccountRepo{accounts: map[string]models.Account{
			"stu-1":   {ID: "stu-1", Username: "alice", Role: models.RoleStudent, Active: true},
			"stu-2":   {ID: "stu-2", Username: "bob", Role: models.RoleStudent, Active: true},
			"admin-1": {ID: "admin-1", Username: "root", Role: models.RoleAdmin, Active: true},
		}},
		courses: &mockRegCourseRepo{courses: map[string]models.Course{
			"course-1": {ID: "course-1", Code: "CS101", Title: "Intro to CS", Active: true, MaxCapacity: 100},
			"course-2": {ID: "course-2", Code: "CS202", Title: "Algorithms", Active: true, MaxCapacity: 100},
		}},
		terms: &mockRegTermRepo{terms: map[string]models.Term{
			"term-1": {
				ID: "term-1", TermName: "Fall 2026",
				StartDate: now.AddDate(0, 1, 0), EndDate: now.AddDate(0, 5, 0),
				RegistrationStart: now.AddDate(0, 0, -7), RegistrationEnd: now.AddDate(0, 0, 7),
				IsActive: true,
			},
		}},
		offerings: &mockRegOfferingRepo{offerings: map[string]models.CourseOffering{
			"off-1": {ID: "off-1", CourseID: "course-1", TermID: "term-1", SectionNumber: 1, MaxEnrollment: 30, CurrentEnrollment: 0},
			"off-2": {ID: "off-2", CourseID: "course-2", TermID: "term-1", SectionNumber: 1, MaxEnrollment: 30, CurrentEnrollment: 0},
		}},
		schedules: &mockRegScheduleRepo{byOffering: map[string][]models.CourseSchedule{
			"off-1": {{ID: "sched-1", CourseOfferingID: "off-1", TimetableSlotID: "slot-1", ClassroomID: "room-1", StartDate: now, EndDate: now.AddDate(0, 4, 0)}},
		}},
	}
	f.svc = NewRegistrationService(f.ledger, f.accounts, f.courses, f.terms, f.offerings, f.schedules, nil, validator.New(), zap.NewNop())
	return f
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestRegistrationServiceRegister(t *testing.T) {
	f := newRegistrationFixture()

	detail, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationEnrolled, detail.Status)
	assert.Equal(t, "off-1", detail.CourseOfferingID)
	require.Len(t, f.accounts.audits, 1)
	assert.Equal(t, models.AuditActionRegister, f.accounts.audits[0].Action)
}

func TestRegistrationServiceRegisterByOfferingID(t *testing.T) {
	f := newRegistrationFixture()

	detail, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", OfferingID: "off-2",
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "off-2", detail.CourseOfferingID)
}

func TestRegistrationServiceRegisterUnknownOffering(t *testing.T) {
	f := newRegistrationFixture()

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", OfferingID: "off-999",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterForAnotherStudent(t *testing.T) {
	f := newRegistrationFixture()

	_, err := f.svc.Register(context.Background(), studentClaims("stu-2"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterAdminForStudent(t *testing.T) {
	f := newRegistrationFixture()

	_, err := f.svc.Register(context.Background(), adminClaims(), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.NoError(t, err)
}

func TestRegistrationServiceRegisterInactiveCourse(t *testing.T) {
	f := newRegistrationFixture()
	course := f.courses.courses["course-1"]
	course.Active = false
	f.courses.courses["course-1"] = course

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "inactive")
}

func TestRegistrationServiceRegisterWindowClosed(t *testing.T) {
	f := newRegistrationFixture()
	term := f.terms.terms["term-1"]
	term.RegistrationEnd = time.Now().UTC().AddDate(0, 0, -1)
	f.terms.terms["term-1"] = term

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterWindowClosedAdminBypass(t *testing.T) {
	f := newRegistrationFixture()
	term := f.terms.terms["term-1"]
	term.RegistrationEnd = time.Now().UTC().AddDate(0, 0, -1)
	f.terms.terms["term-1"] = term

	_, err := f.svc.Register(context.Background(), adminClaims(), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.NoError(t, err)
}

func TestRegistrationServiceRegisterDuplicate(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.nonDropped["stu-1|off-1"] = true

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateRegistration.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterCapacityAtLimit(t *testing.T) {
	f := newRegistrationFixture()
	offering := f.offerings.offerings["off-1"]
	offering.CurrentEnrollment = offering.MaxEnrollment
	f.offerings.offerings["off-1"] = offering

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterScheduleConflict(t *testing.T) {
	f := newRegistrationFixture()
	sched := f.schedules.byOffering["off-1"][0]
	f.schedules.registered = []registeredRow{
		{
			slotID: "slot-1", start: sched.StartDate, end: sched.EndDate,
			conflict: models.ScheduleConflict{TimetableSlotID: "slot-1", CourseCode: "MA101", CourseTitle: "Calculus"},
		},
	}

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "MA101")
}

func TestRegistrationServiceRegisterConflictCheckedPerSchedule(t *testing.T) {
	f := newRegistrationFixture()
	first := f.schedules.byOffering["off-1"][0]
	// Second schedule on a different slot, meeting after the first one ends.
	laterStart := first.EndDate.AddDate(0, 1, 0)
	f.schedules.byOffering["off-1"] = append(f.schedules.byOffering["off-1"], models.CourseSchedule{
		ID: "sched-2", CourseOfferingID: "off-1", TimetableSlotID: "slot-2",
		ClassroomID: "room-1", StartDate: laterStart, EndDate: laterStart.AddDate(0, 4, 0),
	})
	// Existing registered row on slot-1 overlapping only the second
	// schedule's dates: slot and range never line up, so no conflict.
	f.schedules.registered = []registeredRow{
		{
			slotID: "slot-1", start: laterStart, end: laterStart.AddDate(0, 4, 0),
			conflict: models.ScheduleConflict{TimetableSlotID: "slot-1", CourseCode: "MA101", CourseTitle: "Calculus"},
		},
	}

	detail, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "off-1", detail.CourseOfferingID)
}

func TestRegistrationServiceRegisterNotOffered(t *testing.T) {
	f := newRegistrationFixture()
	delete(f.offerings.offerings, "off-1")

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not offered")
}

func TestRegistrationServiceRegisterRaceLostMapsLedgerError(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.enrollErr = repository.ErrOfferingFull

	_, err := f.svc.Register(context.Background(), studentClaims("stu-1"), CreateRegistrationRequest{
		StudentID: "stu-1", CourseID: "course-1", TermID: "term-1",
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceBatchRegisterPartialSuccess(t *testing.T) {
	f := newRegistrationFixture()
	offering := f.offerings.offerings["off-2"]
	offering.CurrentEnrollment = offering.MaxEnrollment
	f.offerings.offerings["off-2"] = offering

	result, err := f.svc.BatchRegister(context.Background(), studentClaims("stu-1"), dto.BatchRegisterRequest{
		StudentID: "stu-1",
		Registrations: []dto.BatchRegistrationEntry{
			{CourseID: "course-1", TermID: "term-1"},
			{CourseID: "course-2", TermID: "term-1"},
		},
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRequested)
	assert.Equal(t, 1, result.SuccessfulRegistrations)
	assert.Equal(t, 1, result.FailedRegistrations)
	require.Len(t, result.Details.Failed, 1)
	assert.Equal(t, "course-2", result.Details.Failed[0].CourseID)
	// The successful entry must survive the failed one.
	require.Len(t, f.ledger.enrolled, 1)
	assert.Equal(t, "off-1", f.ledger.enrolled[0].CourseOfferingID)
}

func TestRegistrationServiceDropOwn(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationEnrolled,
	}

	dropped, err := f.svc.Drop(context.Background(), studentClaims("stu-1"), "reg-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationDropped, dropped.Status)
}

func TestRegistrationServiceDropForeign(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationEnrolled,
	}

	_, err := f.svc.Drop(context.Background(), studentClaims("stu-2"), "reg-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceDropAlreadyDropped(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationDropped,
	}

	_, err := f.svc.Drop(context.Background(), adminClaims(), "reg-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceDropWindowClosedForStudent(t *testing.T) {
	f := newRegistrationFixture()
	term := f.terms.terms["term-1"]
	term.RegistrationEnd = time.Now().UTC().AddDate(0, 0, -1)
	f.terms.terms["term-1"] = term
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationEnrolled,
	}

	_, err := f.svc.Drop(context.Background(), studentClaims("stu-1"), "reg-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErrors.FromError(err).Code)

	// Admins bypass the window.
	_, err = f.svc.Drop(context.Background(), adminClaims(), "reg-1", models.LoginRequest{})
	require.NoError(t, err)
}

func TestRegistrationServiceBatchDropMixedOutcomes(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationEnrolled,
	}
	f.ledger.registrations["reg-2"] = models.Registration{
		ID: "reg-2", StudentID: "stu-2", CourseOfferingID: "off-2", Status: models.RegistrationEnrolled,
	}

	result, err := f.svc.BatchDrop(context.Background(), studentClaims("stu-1"), dto.BatchDropRequest{
		StudentID:       "stu-1",
		RegistrationIDs: []string{"reg-1", "reg-2", "missing"},
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRequested)
	assert.Equal(t, 1, result.SuccessfulRegistrations)
	assert.Equal(t, 2, result.FailedRegistrations)
}

func TestRegistrationServiceBatchDropForOtherStudent(t *testing.T) {
	f := newRegistrationFixture()

	_, err := f.svc.BatchDrop(context.Background(), studentClaims("stu-2"), dto.BatchDropRequest{
		StudentID:       "stu-1",
		RegistrationIDs: []string{"reg-1"},
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateStatus(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationEnrolled,
	}

	grade := "A"
	updated, err := f.svc.UpdateStatus(context.Background(), "admin-1", "reg-1", UpdateRegistrationStatusRequest{
		Status: models.RegistrationCompleted, Grade: &grade,
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCompleted, updated.Status)
	require.NotNil(t, updated.Grade)
	assert.Equal(t, "A", *updated.Grade)
}

func TestRegistrationServiceUpdateStatusInvalidTransition(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.registrations["reg-1"] = models.Registration{
		ID: "reg-1", StudentID: "stu-1", CourseOfferingID: "off-1", Status: models.RegistrationDropped,
	}

	_, err := f.svc.UpdateStatus(context.Background(), "admin-1", "reg-1", UpdateRegistrationStatusRequest{
		Status: models.RegistrationEnrolled,
	}, models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "dropped")
}

func TestRegistrationServiceGetEnforcesOwnership(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.details["reg-1"] = models.RegistrationDetail{
		Registration: models.Registration{ID: "reg-1", StudentID: "stu-1", Status: models.RegistrationEnrolled},
	}

	_, err := f.svc.Get(context.Background(), studentClaims("stu-2"), "reg-1")
	require.Error(t, err)

	detail, err := f.svc.Get(context.Background(), studentClaims("stu-1"), "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "reg-1", detail.ID)
}

func TestRegistrationServiceTimetableNeverNil(t *testing.T) {
	f := newRegistrationFixture()

	entries, err := f.svc.Timetable(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRegistrationServiceExportTimetableCSV(t *testing.T) {
	f := newRegistrationFixture()
	f.schedules.timetable = []models.TimetableEntry{
		{Day: 1, StartTime: "07:30", EndTime: "09:00", SubjectCode: "CS101", SubjectName: "Intro to CS", Room: "A-101", Teacher: "Dr. Smith"},
	}

	payload, contentType, err := f.svc.ExportTimetable(context.Background(), "stu-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Monday")
	assert.Contains(t, string(payload), "CS101")
}

func TestRegistrationServiceExportTimetablePDF(t *testing.T) {
	f := newRegistrationFixture()

	payload, contentType, err := f.svc.ExportTimetable(context.Background(), "stu-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, payload)
}

func TestRegistrationServiceExportTimetableBadFormat(t *testing.T) {
	f := newRegistrationFixture()

	_, _, err := f.svc.ExportTimetable(context.Background(), "stu-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceExportRegistrations(t *testing.T) {
	f := newRegistrationFixture()
	f.ledger.details["reg-1"] = models.RegistrationDetail{
		Registration: models.Registration{ID: "reg-1", StudentID: "stu-1", Status: models.RegistrationEnrolled, RegistrationDate: time.Now()},
		StudentName:  "Alice",
		CourseCode:   "CS101",
		CourseTitle:  "Intro to CS",
		TermName:     "Fall 2026",
		Section:      1,
	}

	payload, err := f.svc.ExportRegistrations(context.Background(), models.RegistrationFilter{})
	require.NoError(t, err)
	assert.Contains(t, string(payload), "CS101")
	assert.Contains(t, string(payload), "Alice")
}
