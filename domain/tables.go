package domain

// Table names a mongo collection.
type Table string

// mongo collection names
const (
	TableListingEvents Table = "listing_events"
)
