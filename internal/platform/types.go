package platform

import (
	"fmt"
	"time"

	"github.com/example/tablebook/internal/schedule"
)

// Restaurant is the platform's restaurant record. WorkHours uses the wire
// shape the slot engine ingests.
type Restaurant struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	City        string           `json:"city"`
	Cuisine     string           `json:"cuisine"`
	Description string           `json:"description"`
	PriceRange  string           `json:"priceRange"`
	WorkHours   []schedule.Entry `json:"workHours"`
}

type Table struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

// Reservation statuses are owned by the platform; these are the values its
// API documents.
const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusCancelled = "CANCELLED"
	StatusCheckedIn = "CHECKED_IN"
)

type Reservation struct {
	ID             string    `json:"id"`
	RestaurantID   string    `json:"restaurantId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	StartTime      time.Time `json:"startTime"`
	AmountOfPeople int       `json:"amountOfPeople"`
	Notes          string    `json:"notes,omitempty"`
	Status         string    `json:"status"`
	TableID        string    `json:"tableId,omitempty"`
}

// ReservationRequest is the guest booking payload.
type ReservationRequest struct {
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	StartTime      time.Time `json:"startTime"`
	AmountOfPeople int       `json:"amountOfPeople"`
	Notes          string    `json:"notes,omitempty"`
}

// Action is a reservation lifecycle transition requested of the platform.
// The state machine itself lives server-side; we only name the transition.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionCancel  Action = "cancel"
	ActionCheckIn Action = "checkin"
)

// APIError carries the platform's message field for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform: %s (status=%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("platform: request failed (status=%d)", e.Status)
}
