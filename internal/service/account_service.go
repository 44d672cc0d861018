package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TQanh23/course-registration-api/internal/models"
	"github.com/TQanh23/course-registration-api/internal/repository"
	appErrors "github.com/TQanh23/course-registration-api/pkg/errors"
)

type accountRepository interface {
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindDetailByID(ctx context.Context, id string) (*models.AccountDetail, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account, profile *models.StudentProfile) error
	Update(ctx context.Context, account *models.Account, profile *models.StudentProfile) error
	DeleteWithGuards(ctx context.Context, account *models.Account, now time.Time) (repository.DeleteGuardResult, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAccountRequest represents payload for creating accounts. Student
// accounts additionally carry the profile fields.
type CreateAccountRequest struct {
	Username    string             `json:"username" validate:"required,min=3"`
	Email       string             `json:"email" validate:"required,email"`
	FullName    string             `json:"full_name" validate:"required"`
	Role        models.AccountRole `json:"role" validate:"required,oneof=ADMIN STUDENT"`
	Active      bool               `json:"active"`
	Password    string             `json:"password" validate:"required,min=6"`
	DateOfBirth *time.Time         `json:"date_of_birth,omitempty"`
	ClassName   string             `json:"class_name,omitempty"`
	ProgramID   *string            `json:"program_id,omitempty"`
}

// UpdateAccountRequest payload for updating accounts. The role is fixed at
// creation time and cannot be changed afterwards.
type UpdateAccountRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	FullName    string     `json:"full_name" validate:"required"`
	Active      *bool      `json:"active"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	ClassName   string     `json:"class_name,omitempty"`
	ProgramID   *string    `json:"program_id,omitempty"`
}

// AccountService handles account management workflows.
type AccountService struct {
	repo      accountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService creates an instance of AccountService.
func NewAccountService(repo accountRepository, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated accounts and pagination metadata.
func (s *AccountService) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountDetail, *models.Pagination, error) {
	accounts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}

	return accounts, pagination, nil
}

// Get returns an account with profile data by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*models.AccountDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return detail, nil
}

// Create adds a new account. Student accounts get a profile row.
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest, actorID string, meta models.LoginRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create account payload")
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       req.Active,
		PasswordHash: string(passwordHash),
	}

	var profile *models.StudentProfile
	if req.Role == models.RoleStudent {
		profile = &models.StudentProfile{
			DateOfBirth: req.DateOfBirth,
			ClassName:   req.ClassName,
			ProgramID:   req.ProgramID,
		}
	}

	if err := s.repo.Create(ctx, account, profile); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": account.ID, "username": account.Username, "role": account.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actorID,
		Action:     models.AuditActionAccountCreate,
		Resource:   "accounts",
		ResourceID: &account.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record account create audit log", zap.Error(err))
	}

	return account, nil
}

// Update modifies account attributes and, for students, profile fields.
func (s *AccountService) Update(ctx context.Context, id string, req UpdateAccountRequest, actorID string, meta models.LoginRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"email": account.Email, "active": account.Active})

	account.Email = strings.ToLower(req.Email)
	account.FullName = req.FullName
	if req.Active != nil {
		account.Active = *req.Active
	}

	var profile *models.StudentProfile
	if account.Role == models.RoleStudent {
		profile = &models.StudentProfile{
			DateOfBirth: req.DateOfBirth,
			ClassName:   req.ClassName,
			ProgramID:   req.ProgramID,
		}
	}

	if err := s.repo.Update(ctx, account, profile); err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"email": account.Email, "active": account.Active})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actorID,
		Action:     models.AuditActionAccountUpdate,
		Resource:   "accounts",
		ResourceID: &account.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record account update audit log", zap.Error(err))
	}

	return account, nil
}

// Delete removes an account. The last active admin is never deleted, and a
// student keeping enrolled registrations in terms that have not ended is
// refused with the blocking count.
func (s *AccountService) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	result, err := s.repo.DeleteWithGuards(ctx, account, time.Now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	if !result.Deleted {
		if account.Role == models.RoleAdmin {
			return appErrors.Clone(appErrors.ErrLastAdmin, "cannot delete the last remaining admin account")
		}
		return appErrors.Clone(appErrors.ErrActiveRegistrations,
			fmt.Sprintf("account has %d enrolled registration(s) in unfinished terms", result.ActiveRegistrations))
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"username": account.Username, "role": account.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &actorID,
		Action:     models.AuditActionAccountDelete,
		Resource:   "accounts",
		ResourceID: &account.ID,
		OldValues:  oldPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record account delete audit log", zap.Error(err))
	}

	return nil
}
