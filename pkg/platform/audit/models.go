// Package audit captures the structured trail of identity operations.
// Compensation failures in particular have no other durable signal: the end
// caller only sees the original failure, so operators find the orphaned
// credential record through this trail.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose. It drives
// routing and retention downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance, such as
	// account creation. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events that feed monitoring and alerting:
	// ownership denials, failed compensations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine events useful for debugging. Short
	// retention, may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to record a key action. It is
// transport-agnostic so sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	Username      string
	Action        string
	Reason        string
	RequestID     string
	CorrelationID string
	// Device is a human-readable device description parsed from the
	// User-Agent on login events.
	Device string
}

type AuditEvent string

const (
	EventUserProvisioned           AuditEvent = "user_provisioned"
	EventProvisioningFailed        AuditEvent = "provisioning_failed"
	EventProvisioningCompensated   AuditEvent = "provisioning_compensated"
	EventCompensationFailed        AuditEvent = "compensation_failed"
	EventAttributeSynced           AuditEvent = "attribute_synced"
	EventAttributeSyncInconsistent AuditEvent = "attribute_sync_inconsistent"
	EventOwnershipDenied           AuditEvent = "ownership_denied"
	EventUserLogin                 AuditEvent = "user_login"
)

// eventCategories is the source of truth for routing events to categories.
var eventCategories = map[AuditEvent]EventCategory{
	EventUserProvisioned:           CategoryCompliance,
	EventProvisioningFailed:        CategoryOperations,
	EventProvisioningCompensated:   CategoryOperations,
	EventCompensationFailed:        CategorySecurity,
	EventAttributeSynced:           CategoryOperations,
	EventAttributeSyncInconsistent: CategorySecurity,
	EventOwnershipDenied:           CategorySecurity,
	EventUserLogin:                 CategoryOperations,
}

// Category returns the category an event routes to, defaulting to operations
// for unknown actions.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
