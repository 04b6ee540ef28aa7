package models

// Tour carries the fields needed to price and route a booking.
type Tour struct {
	ID             string  `bson:"id" json:"id"`
	GuideID        string  `bson:"guideId" json:"guideId"`
	Title          string  `bson:"title" json:"title"`
	PricePerPerson float64 `bson:"pricePerPerson" json:"pricePerPerson"`
	MaxTravelers   int     `bson:"maxTravelers,omitempty" json:"maxTravelers,omitempty"`
}
