package domain

import "time"

type CatalogEventType string

const (
	EventListingCreated CatalogEventType = "listing.created"
	EventListingDeleted CatalogEventType = "listing.deleted"
	EventUserRemoved    CatalogEventType = "user.removed"
)

// CatalogEvent records a completed mutation of the shared catalog or roster.
type CatalogEvent struct {
	Type      CatalogEventType `json:"type"`
	ListingID string           `json:"listing_id,omitempty"`
	UserID    string           `json:"user_id,omitempty"`
	Kind      ListingKind      `json:"kind,omitempty"`
	ActorID   string           `json:"actor_id,omitempty"`
	At        time.Time        `json:"at"`
}

// Key is the value events are sharded on; events sharing a key keep their order.
func (e CatalogEvent) Key() string {
	if e.ListingID != "" {
		return e.ListingID
	}
	return e.UserID
}
