package auth

import "github.com/google/uuid"

// Identity is the authenticated caller resolved from a verified token
type Identity struct {
	AccountID uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
}

// Decision is the outcome of an ownership check
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonNotOwner        = "only the owner or an administrator may modify this resource"
	ReasonUnauthenticated = "no authenticated identity"
)

// Allow returns an allowing Decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying Decision with reason
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether identity may mutate a resource owned by ownerID.
// Admins may mutate anything; everyone else only what they own.
func Authorize(identity Identity, ownerID uuid.UUID) Decision {
	if identity.AccountID == uuid.Nil {
		return Deny(ReasonUnauthenticated)
	}
	if identity.IsAdmin || identity.AccountID == ownerID {
		return Allow()
	}
	return Deny(ReasonNotOwner)
}
