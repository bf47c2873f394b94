package model

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Principal is the authenticated caller behind a request.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
