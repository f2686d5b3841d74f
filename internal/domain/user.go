// Package domain contains entities without logic, just meta-data.
package domain

type UserID string

// MaxUserNameLen caps a display name; longer names are truncated, not
// rejected.
const MaxUserNameLen = 64

// NormalizeUserName enforces the display-name rules. An empty name gets
// the guest placeholder so a join never fails on identity the core does
// not verify anyway.
func NormalizeUserName(name string) string {
	if name == "" {
		return "guest"
	}
	if len(name) > MaxUserNameLen {
		return name[:MaxUserNameLen]
	}
	return name
}

// Role is the participant role as declared by the client. The core
// trusts it as-is; authorization belongs to a different service.
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleInterviewer, RoleAdmin:
		return true
	}
	return false
}
