package models

// Guide is the subset of a guide profile the availability engine reads.
type Guide struct {
	ID                  string      `bson:"id" json:"id"`
	UserID              string      `bson:"userId" json:"userId"`
	Name                string      `bson:"name" json:"name"`
	NotAvailable        []DateRange `bson:"notAvailable" json:"notAvailable"`
	AvailabilityVersion int64       `bson:"availabilityVersion" json:"-"`
}

// GuideAvailability is a versioned snapshot of a guide's busy ranges.
type GuideAvailability struct {
	GuideID      string
	NotAvailable []DateRange
	Version      int64
}
