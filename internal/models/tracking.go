package models

import "time"

// Tracking is one shipment record. Created once by an admin, read many times
// by the public lookup, never updated by this service.
type Tracking struct {
	TrackingID          string     `json:"tracking_id"`
	CreatedBy           string     `json:"created_by"`
	FromLocation        string     `json:"from_location"`
	ToLocation          string     `json:"to_location"`
	Port1               string     `json:"port1"`
	Port2               string     `json:"port2"`
	Port3               string     `json:"port3"`
	Port4               string     `json:"port4"`
	Status              string     `json:"status"`
	StatusMessage       string     `json:"status_message"`
	RecipientName       string     `json:"recipient_name"`
	RecipientAddress    string     `json:"recipient_address"`
	RecipientEmail      string     `json:"recipient_email"`
	SenderFullname      string     `json:"sender_fullname,omitempty"`
	ShipmentDescription string     `json:"shipment_description,omitempty"`
	DeliveryDate        time.Time  `json:"delivery_date"`
	CreatedAt           time.Time  `json:"created_at"`
}

type TrackingCreateInput struct {
	CreatedBy           string
	FromLocation        string
	ToLocation          string
	Port1               string
	Port2               string
	Port3               string
	Port4               string
	Status              string
	StatusMessage       string
	RecipientName       string
	RecipientAddress    string
	RecipientEmail      string
	SenderFullname      string
	ShipmentDescription string
	DeliveryDate        time.Time
}

// UserProfile mirrors the users_info table filled from the signup form.
type UserProfile struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	Street      string    `json:"street,omitempty"`
	HouseNumber string    `json:"house_number,omitempty"`
	FullAddress string    `json:"full_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
