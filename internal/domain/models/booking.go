package models

import "time"

// BookingStatus enumerates the booking lifecycle.
type BookingStatus string

const (
	StatusPendingEmailConfirmation BookingStatus = "pending_email_confirmation"
	StatusConfirmed                BookingStatus = "confirmed"
	StatusCompleted                BookingStatus = "completed"
	StatusCancelled                BookingStatus = "cancelled"
)

// Booking is the central entity. Exactly one of UserID and GuestEmail is set;
// distance, duration and price are always derived from a route lookup plus the
// price calculator, never taken from the client.
type Booking struct {
	ID int64 `json:"id"`

	// Registered customer, or guest snapshot captured at creation time.
	UserID         *int64  `json:"userId,omitempty"`
	GuestEmail     *string `json:"guestEmail,omitempty"`
	GuestFirstName *string `json:"guestFirstName,omitempty"`
	GuestLastName  *string `json:"guestLastName,omitempty"`
	GuestPhone     *string `json:"guestPhone,omitempty"`

	PickupAt      time.Time `json:"pickupAt"`
	PickupAddress string    `json:"pickupAddress"`
	PickupLat     float64   `json:"pickupLat"`
	PickupLng     float64   `json:"pickupLng"`

	Stop1Address *string  `json:"stop1Address,omitempty"`
	Stop1Lat     *float64 `json:"stop1Lat,omitempty"`
	Stop1Lng     *float64 `json:"stop1Lng,omitempty"`

	Stop2Address *string  `json:"stop2Address,omitempty"`
	Stop2Lat     *float64 `json:"stop2Lat,omitempty"`
	Stop2Lng     *float64 `json:"stop2Lng,omitempty"`

	DropoffAddress string  `json:"dropoffAddress"`
	DropoffLat     float64 `json:"dropoffLat"`
	DropoffLng     float64 `json:"dropoffLng"`

	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`

	FlightNumber *string `json:"flightNumber,omitempty"`
	Comment      *string `json:"comment,omitempty"`

	// Price in öre (minor units), formatted to 2dp at the HTTP boundary.
	PriceOre int64 `json:"priceOre"`

	Status            BookingStatus `json:"status"`
	ConfirmationToken *string       `json:"-"`
	TokenExpiresAt    *time.Time    `json:"-"`
	IsConfirmed       bool          `json:"isConfirmed"`
	IsAvailable       bool          `json:"isAvailable"`

	DriverID *int64 `json:"driverId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsGuest reports whether the booking carries a guest snapshot.
func (b Booking) IsGuest() bool {
	return b.UserID == nil && b.GuestEmail != nil
}

// Itinerary returns all addresses in trip order.
func (b Booking) Itinerary() []string {
	out := []string{b.PickupAddress}
	if b.Stop1Address != nil {
		out = append(out, *b.Stop1Address)
	}
	if b.Stop2Address != nil {
		out = append(out, *b.Stop2Address)
	}
	return append(out, b.DropoffAddress)
}
