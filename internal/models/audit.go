package models

import "time"

// Audit actions recorded by the API.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionRegister       = "REGISTER"
	AuditActionDrop           = "DROP"
	AuditActionStatusChange   = "STATUS_CHANGE"
	AuditActionCatalogChange  = "CATALOG_CHANGE"
	AuditActionAccountCreate  = "ACCOUNT_CREATE"
	AuditActionAccountUpdate  = "ACCOUNT_UPDATE"
	AuditActionAccountDelete  = "ACCOUNT_DELETE"
)

// AuditLog records a mutation performed through the API.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	AccountID  *string   `db:"account_id" json:"account_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
