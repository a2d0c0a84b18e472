package domain

import "time"

// SubjectType differentiates reporter vs staff tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeStaff SubjectType = "STAFF"
	// SubjectTypeSystem marks events raised by background workers rather
	// than an authenticated principal. No token is ever issued for it.
	SubjectTypeSystem SubjectType = "SYSTEM"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *StaffRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
