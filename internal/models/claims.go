package models

import "github.com/golang-jwt/jwt/v5"

// Admin API permissions
const (
	PermissionLedgerRead       = "ledger:read"
	PermissionLedgerWrite      = "ledger:write"
	PermissionWithdrawalReview = "withdrawal:review"
	PermissionWithdrawalCreate = "withdrawal:create"
	PermissionSettlementWrite  = "settlement:write"
	PermissionRetryWrite       = "retry:write"
)

// RoleAdmin is the only role allowed to drive settlement transitions.
const RoleAdmin = "admin"

// AdminClaims is the JWT payload issued by the external auth service.
type AdminClaims struct {
	jwt.RegisteredClaims
	AdminID     uint     `json:"admin_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission.
// Admins without an explicit list get every permission.
func (c *AdminClaims) HasPermission(permission string) bool {
	if c.Role == RoleAdmin && len(c.Permissions) == 0 {
		return true
	}
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
