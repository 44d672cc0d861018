package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/repository"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

type mockAccountRepo struct {
	accounts    map[string]models.Account
	profiles    map[string]models.StudentProfile
	guardResult repository.DeleteGuardResult
	audits      []models.AuditLog
	listTotal   int
}

func (m *mockAccountRepo) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountDetail, int, error) {
	details := make([]models.AccountDetail, 0, len(m.accounts))
	for _, a := range m.accounts {
		details = append(details, models.AccountDetail{Account: a})
	}
	return details, m.listTotal, nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindDetailByID(ctx context.Context, id string) (*models.AccountDetail, error) {
	if a, ok := m.accounts[id]; ok {
		return &models.AccountDetail{Account: a}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			result := a
			return &result, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account, profile *models.StudentProfile) error {
	if m.accounts == nil {
		m.accounts = make(map[string]models.Account)
	}
	m.accounts[account.ID] = *account
	if profile != nil {
		if m.profiles == nil {
			m.profiles = make(map[string]models.StudentProfile)
		}
		m.profiles[account.ID] = *profile
	}
	return nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account *models.Account, profile *models.StudentProfile) error {
	m.accounts[account.ID] = *account
	if profile != nil {
		if m.profiles == nil {
			m.profiles = make(map[string]models.StudentProfile)
		}
		m.profiles[account.ID] = *profile
	}
	return nil
}

func (m *mockAccountRepo) DeleteWithGuards(ctx context.Context, account *models.Account, now time.Time) (repository.DeleteGuardResult, error) {
	if m.guardResult.Deleted {
		delete(m.accounts, account.ID)
	}
	return m.guardResult, nil
}

func (m *mockAccountRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func TestAccountServiceCreateStudent(t *testing.T) {
	repo := &mockAccountRepo{accounts: make(map[string]models.Account)}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	account, err := svc.Create(context.Background(), CreateAccountRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		FullName: "Alice Nguyen",
		Role:     models.RoleStudent,
		Active:   true,
		Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "alice@example.com", account.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("secret123")))
	// Student accounts get a profile row.
	_, ok := repo.profiles[account.ID]
	assert.True(t, ok)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionAccountCreate, repo.audits[0].Action)
}

func TestAccountServiceCreateAdminSkipsProfile(t *testing.T) {
	repo := &mockAccountRepo{accounts: make(map[string]models.Account)}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	account, err := svc.Create(context.Background(), CreateAccountRequest{
		Username: "root",
		Email:    "root@example.com",
		FullName: "Root Admin",
		Role:     models.RoleAdmin,
		Active:   true,
		Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	_, ok := repo.profiles[account.ID]
	assert.False(t, ok)
}

func TestAccountServiceCreateDuplicateUsername(t *testing.T) {
	repo := &mockAccountRepo{accounts: map[string]models.Account{
		"acc-1": {ID: "acc-1", Username: "alice"},
	}}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateAccountRequest{
		Username: "alice",
		Email:    "other@example.com",
		FullName: "Other",
		Role:     models.RoleStudent,
		Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceCreateInvalidRole(t *testing.T) {
	repo := &mockAccountRepo{accounts: make(map[string]models.Account)}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateAccountRequest{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice",
		Role:     "TEACHER",
		Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
}

func TestAccountServiceUpdateKeepsRole(t *testing.T) {
	repo := &mockAccountRepo{accounts: map[string]models.Account{
		"acc-1": {ID: "acc-1", Username: "alice", Email: "old@example.com", Role: models.RoleStudent, Active: true},
	}}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	inactive := false
	updated, err := svc.Update(context.Background(), "acc-1", UpdateAccountRequest{
		Email:    "new@example.com",
		FullName: "Alice Nguyen",
		Active:   &inactive,
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, models.RoleStudent, updated.Role)
	assert.False(t, updated.Active)
}

func TestAccountServiceDeleteLastAdmin(t *testing.T) {
	repo := &mockAccountRepo{
		accounts:    map[string]models.Account{"acc-1": {ID: "acc-1", Role: models.RoleAdmin, Active: true}},
		guardResult: repository.DeleteGuardResult{Deleted: false, RemainingAdmins: 1},
	}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "acc-1", "acc-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLastAdmin.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceDeleteStudentWithActiveRegistrations(t *testing.T) {
	repo := &mockAccountRepo{
		accounts:    map[string]models.Account{"acc-1": {ID: "acc-1", Role: models.RoleStudent, Active: true}},
		guardResult: repository.DeleteGuardResult{Deleted: false, ActiveRegistrations: 3},
	}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "acc-1", "admin-1", models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrActiveRegistrations.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "3")
}

func TestAccountServiceDelete(t *testing.T) {
	repo := &mockAccountRepo{
		accounts:    map[string]models.Account{"acc-1": {ID: "acc-1", Role: models.RoleStudent, Active: true}},
		guardResult: repository.DeleteGuardResult{Deleted: true},
	}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "acc-1", "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Empty(t, repo.accounts)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionAccountDelete, repo.audits[0].Action)
}

func TestAccountServiceDeleteMissing(t *testing.T) {
	repo := &mockAccountRepo{accounts: make(map[string]models.Account)}
	svc := NewAccountService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "missing", "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
