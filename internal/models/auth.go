package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for API access control.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleOrgStaff UserRole = "ORG_STAFF"
)

// APIClaims is the JWT payload for access tokens issued by the external
// identity system. Org staff are scoped to the organizations listed in Orgs;
// admins see everything.
type APIClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Orgs   []string `json:"orgs"`
	jwt.RegisteredClaims
}

// HasOrg reports whether the claims grant access to the given organization.
func (c *APIClaims) HasOrg(orgKey string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	for _, org := range c.Orgs {
		if org == orgKey {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
