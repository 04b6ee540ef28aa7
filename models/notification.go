package models

// BookingConfirmedPayload is queued after a booking's payment is recorded.
type BookingConfirmedPayload struct {
	BookingID  string  `json:"bookingId"`
	UserID     string  `json:"userId"`
	GuideID    string  `json:"guideId"`
	TourID     string  `json:"tourId"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Travelers  int     `json:"travelers"`
	TotalPrice float64 `json:"totalPrice"`
}
