package handlers

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Booking      *BookingHandler
	Availability *AvailabilityHandler
	Webhook      *WebhookHandler
	Admin        *AdminHandler
	Health       *HealthHandler
}
