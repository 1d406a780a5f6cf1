package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. RoleVisitor exists for completeness but is never used for
// authentication; visitors are tracked as Visitor records, not users.
const (
	RoleSuperadmin   = "superadmin"
	RoleCompanyAdmin = "company_admin"
	RoleReceptionist = "receptionist"
	RoleEmployee     = "employee"
	RoleVisitor      = "visitor"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     *uuid.UUID `json:"tenant_id" db:"tenant_id"` // nil only for superadmin
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	Name         string     `json:"name" db:"name"`
	Role         string     `json:"role" db:"role"`
	Phone        *string    `json:"phone" db:"phone"`
	Department   *string    `json:"department" db:"department"`
	Designation  *string    `json:"designation" db:"designation"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperadmin, RoleCompanyAdmin, RoleReceptionist, RoleEmployee, RoleVisitor:
		return true
	}
	return false
}
