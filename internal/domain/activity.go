package domain

import "time"

// Activity actions written to the activity log.
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionActivate   = "ACTIVATE"
	ActionDeactivate = "DEACTIVATE"
	ActionPoints     = "ADD_POINTS"
	ActionPromote    = "PROMOTE"
	ActionEmployees  = "UPDATE_EMPLOYEES"
	ActionImport     = "IMPORT"
	ActionVerify     = "VERIFY"
)

// Activity is one entry of the append-only activity log.
type Activity struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Lifecycle event types published after a successful write.
const (
	EventCreated     = "customer.created"
	EventUpdated     = "customer.updated"
	EventDeleted     = "customer.deleted"
	EventActivated   = "customer.activated"
	EventDeactivated = "customer.deactivated"
)

// Event is the payload of a lifecycle event.
type Event struct {
	Type       string    `json:"type"`
	CustomerID string    `json:"customer_id"`
	Variant    Variant   `json:"variant"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent describes c for the given event type.
func NewEvent(eventType string, c *Customer, at time.Time) Event {
	return Event{
		Type:       eventType,
		CustomerID: c.ID,
		Variant:    c.Variant,
		Email:      c.Email,
		OccurredAt: at,
	}
}

// IdentityRequest is what gets sent to the identity verification service.
type IdentityRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	TaxID string `json:"tax_id,omitempty"`
}

// IdentityResult is the verdict of an identity check. Source is "remote"
// when the external service answered and "local" for the fallback heuristic.
type IdentityResult struct {
	Valid   bool    `json:"valid"`
	Message string  `json:"message"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// DeliveryReport tells what happened to an outbound notification.
type DeliveryReport struct {
	Sent      bool   `json:"sent"`
	Simulated bool   `json:"simulated"`
	Message   string `json:"message"`
}
