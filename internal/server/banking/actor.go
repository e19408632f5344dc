package banking

import "github.com/google/uuid"

// Actor identifies who is driving a payment-request transition: a member
// acting on their own behalf, or the system overriding the authorization
// check during dispute resolution. The tagged form replaces a nullable
// user id, so the bypass path is explicit at every call site.
type Actor struct {
	userID uuid.UUID
	system bool
}

// UserActor acts as the given member; the member must be the request's
// debtor to approve or reject it.
func UserActor(id uuid.UUID) Actor {
	return Actor{userID: id}
}

// SystemOverride bypasses the debtor check. Only administrative dispute
// resolution uses it.
func SystemOverride() Actor {
	return Actor{system: true}
}

// mayActFor reports whether the actor is allowed to resolve a request
// owned by the given debtor.
func (a Actor) mayActFor(debtorID uuid.UUID) bool {
	return a.system || a.userID == debtorID
}

// RequestAction is the debtor's (or the system's) decision on a pending
// payment request.
type RequestAction string

const (
	ActionApprove RequestAction = "APPROVE"
	ActionReject  RequestAction = "REJECT"
)
