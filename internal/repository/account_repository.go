package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/TQanh23/course-registration-api/internal/models"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// IsDuplicateEntry reports whether err is a MySQL unique constraint violation.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// AccountRepository provides database access for accounts and auth state.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `a.id, a.username, a.email, a.password_hash, a.full_name, a.role, a.active, a.last_login, a.created_at, a.updated_at`

const accountDetailQuery = `SELECT ` + accountColumns + `, p.date_of_birth, p.class_name, p.program_id
FROM accounts a
LEFT JOIN student_profiles p ON p.account_id = a.id`

// FindByUsername returns an account by username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts a WHERE a.username = ? LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by username: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = ? LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// FindDetailByID returns an account joined with its student profile.
func (r *AccountRepository) FindDetailByID(ctx context.Context, id string) (*models.AccountDetail, error) {
	query := accountDetailQuery + ` WHERE a.id = ? LIMIT 1`
	var detail models.AccountDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account detail: %w", err)
	}
	return &detail, nil
}

// List returns accounts based on filters with total count.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountDetail, int, error) {
	base := `FROM accounts a LEFT JOIN student_profiles p ON p.account_id = a.id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, "a.role = ?")
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, "a.active = ?")
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(a.username) LIKE ? OR LOWER(a.email) LIKE ? OR LOWER(a.full_name) LIKE ?)")
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	clause := base
	if len(conditions) > 0 {
		clause += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"username":   "a.username",
		"email":      "a.email",
		"full_name":  "a.full_name",
		"created_at": "a.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "a.created_at"
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

	listQuery := fmt.Sprintf(`SELECT `+accountColumns+`, p.date_of_birth, p.class_name, p.program_id %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		clause, orderBy, order, size, offset)

	var accounts []models.AccountDetail
	if err := r.db.SelectContext(ctx, &accounts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	return accounts, total, nil
}

// Create inserts a new account and, for students, its profile row.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account, profile *models.StudentProfile) (err error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create account: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertAccount = `INSERT INTO accounts (id, username, email, password_hash, full_name, role, active, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertAccount, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	if profile != nil {
		profile.AccountID = account.ID
		const insertProfile = `INSERT INTO student_profiles (account_id, date_of_birth, class_name, program_id)
VALUES (:account_id, :date_of_birth, :class_name, :program_id)`
		if _, err = tx.NamedExecContext(ctx, insertProfile, profile); err != nil {
			return fmt.Errorf("create student profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create account: %w", err)
	}
	return nil
}

// Update updates mutable fields of an account and its profile.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account, profile *models.StudentProfile) (err error) {
	account.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update account: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateAccount = `UPDATE accounts SET email = :email, full_name = :full_name, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateAccount, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	if profile != nil {
		profile.AccountID = account.ID
		const upsertProfile = `INSERT INTO student_profiles (account_id, date_of_birth, class_name, program_id)
VALUES (:account_id, :date_of_birth, :class_name, :program_id)
ON DUPLICATE KEY UPDATE date_of_birth = VALUES(date_of_birth), class_name = VALUES(class_name), program_id = VALUES(program_id)`
		if _, err = tx.NamedExecContext(ctx, upsertProfile, profile); err != nil {
			return fmt.Errorf("upsert student profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update account: %w", err)
	}
	return nil
}

// DeleteGuardResult reports why a guarded delete was refused.
type DeleteGuardResult struct {
	Deleted             bool
	RemainingAdmins     int
	ActiveRegistrations int
}

// DeleteWithGuards removes an account after re-checking the deletion
// preconditions inside one transaction: the last active admin cannot be
// deleted, and a student with enrolled registrations in unfinished terms
// cannot be deleted.
func (r *AccountRepository) DeleteWithGuards(ctx context.Context, account *models.Account, now time.Time) (result DeleteGuardResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin delete account: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	switch account.Role {
	case models.RoleAdmin:
		// Counts the active admins that would remain, so an inactive admin
		// can be removed while a single active admin exists.
		const countAdmins = `SELECT COUNT(*) FROM accounts WHERE role = ? AND active = TRUE AND id <> ? FOR UPDATE`
		if err = tx.GetContext(ctx, &result.RemainingAdmins, countAdmins, models.RoleAdmin, account.ID); err != nil {
			return result, fmt.Errorf("count admins: %w", err)
		}
		if result.RemainingAdmins == 0 {
			err = tx.Rollback()
			return result, err
		}
	case models.RoleStudent:
		const countActive = `SELECT COUNT(*) FROM registrations r
JOIN course_offerings o ON o.id = r.course_offering_id
JOIN academic_terms t ON t.id = o.term_id
WHERE r.student_id = ? AND r.registration_status = ? AND t.end_date > ? FOR UPDATE`
		if err = tx.GetContext(ctx, &result.ActiveRegistrations, countActive, account.ID, models.RegistrationEnrolled, now); err != nil {
			return result, fmt.Errorf("count active registrations: %w", err)
		}
		if result.ActiveRegistrations > 0 {
			err = tx.Rollback()
			return result, err
		}
	}

	const deleteProfile = `DELETE FROM student_profiles WHERE account_id = ?`
	if _, err = tx.ExecContext(ctx, deleteProfile, account.ID); err != nil {
		return result, fmt.Errorf("delete student profile: %w", err)
	}
	const deleteAccount = `DELETE FROM accounts WHERE id = ?`
	if _, err = tx.ExecContext(ctx, deleteAccount, account.ID); err != nil {
		return result, fmt.Errorf("delete account: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit delete account: %w", err)
	}
	result.Deleted = true
	return result, nil
}

// UpdateLastLogin updates the last_login timestamp for an account.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE accounts SET last_login = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, ts, ts, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, updatedAt, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *AccountRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, account_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent)
VALUES (:id, :account_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *AccountRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, account_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = ? LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *AccountRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, revokedAt, id); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAccountRefreshTokens revokes all refresh tokens for an account.
func (r *AccountRepository) RevokeAccountRefreshTokens(ctx context.Context, accountID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = ? WHERE account_id = ? AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), accountID); err != nil {
		return fmt.Errorf("revoke account refresh tokens: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *AccountRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, account_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at)
VALUES (:id, :account_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
