package listing

import (
	"time"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

type EventKind string

const (
	EventKindCreated   EventKind = "created"
	EventKindPurchased EventKind = "purchased"
	EventKindUpdated   EventKind = "updated"
	EventKindCancelled EventKind = "cancelled"
	EventKindCleaned   EventKind = "cleaned"
)

// Event is the structured record emitted after every successful lifecycle
// operation, carrying the full listing snapshot for off-chain indexing.
type Event struct {
	Id        string           `json:"id" bson:"id"`
	Kind      EventKind        `json:"kind" bson:"kind"`
	ListingId domain.ListingId `json:"listingId" bson:"listingId"`
	// Listing is the snapshot after the operation (for created/updated)
	// or before deletion (for cancelled/cleaned).
	Listing  *Listing  `json:"listing,omitempty" bson:"listing,omitempty"`
	Purchase *Purchase `json:"purchase,omitempty" bson:"purchase,omitempty"`
	// DisplayPrice is the human-oriented decimal rendering of the
	// operation's price.
	DisplayPrice string    `json:"displayPrice" bson:"displayPrice"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

// EventRepo archives lifecycle events. Appends happen only after the
// operation succeeded and are best-effort: archive failures are logged,
// never surfaced, because the archive is indexing, not core state.
type EventRepo interface {
	Append(c ctx.Ctx, e *Event) error
	FindByListing(c ctx.Ctx, id domain.ListingId) ([]*Event, error)
}
