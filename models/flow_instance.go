package models

import "time"

// Flow instance statuses. A flow moves Initiated -> Completed on a
// successful callback, or Initiated -> Failed on a rejected one. Both end
// states are terminal; retrying means starting a fresh instance.
const (
	FlowInitiated = "initiated"
	FlowCompleted = "completed"
	FlowFailed    = "failed"
)

// FlowInstance represents one in-progress browser authorization attempt.
// It is created when the explorer starts the implicit flow and is used to
// hold the anti-forgery state across the provider redirect.
type FlowInstance struct {
	ID              string    `json:"id"`
	Scheme          string    `json:"scheme"`
	ClientID        string    `json:"client_id"`
	RedirectURI     string    `json:"redirect_uri"`
	RequestedScopes []string  `json:"requested_scopes"`
	State           string    `json:"state"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// IsExpired checks if the flow instance has expired.
func (f *FlowInstance) IsExpired() bool {
	return time.Now().After(f.ExpiresAt)
}

// Terminal reports whether the instance reached an end state.
func (f *FlowInstance) Terminal() bool {
	return f.Status == FlowCompleted || f.Status == FlowFailed
}
