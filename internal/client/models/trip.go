package models

import "time"

type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripStarted    TripStatus = "started"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

type Trip struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignmentId"`
	DriverID     string     `json:"driverId"`
	VehicleID    string     `json:"vehicleId"`
	Status       TripStatus `json:"status"`
	Pickup       string     `json:"pickup"`
	Drop         string     `json:"drop"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Location is a GPS fix reported while a trip is in progress.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed,omitempty"`
	Heading   float64   `json:"heading,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
