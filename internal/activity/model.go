package activity

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind tags the subject of an activity entry. Readers can match on the
// kind exhaustively instead of comparing free-form strings.
type EntityKind string

const (
	EntityLead           EntityKind = "LEAD"
	EntityDeal           EntityKind = "DEAL"
	EntityAccount        EntityKind = "ACCOUNT"
	EntityContact        EntityKind = "CONTACT"
	EntityServiceRequest EntityKind = "SERVICE_REQUEST"
	EntityContract       EntityKind = "CONTRACT"
	EntityInstallation   EntityKind = "INSTALLATION"
	EntityQuote          EntityKind = "QUOTE"
	EntitySalesOrder     EntityKind = "SALES_ORDER"
)

// Entry types written by the record services.
const (
	TypeCreated      = "CREATED"
	TypeStatusChange = "STATUS_CHANGE"
	TypeComment      = "COMMENT"
)

// Entry is one append-only audit record. Entries are never updated or deleted;
// the subject reference is a weak one and survives subject deletion.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	Kind        EntityKind `json:"entity_kind"`
	EntityID    uuid.UUID  `json:"entity_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ActorID     uuid.UUID  `json:"actor_id"`
	CreatedAt   time.Time  `json:"created_at"`
}
