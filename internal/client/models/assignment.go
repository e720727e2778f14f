package models

import "time"

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentDeclined  AssignmentStatus = "declined"
	AssignmentCancelled AssignmentStatus = "cancelled"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment binds one truck of a broadcast to a vehicle and driver.
type Assignment struct {
	ID            string           `json:"id"`
	BroadcastID   string           `json:"broadcastId"`
	TransporterID string           `json:"transporterId"`
	DriverID      string           `json:"driverId"`
	VehicleID     string           `json:"vehicleId"`
	TripID        string           `json:"tripId,omitempty"`
	Status        AssignmentStatus `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type AssignmentInput struct {
	BroadcastID string `json:"broadcastId"`
	DriverID    string `json:"driverId"`
	VehicleID   string `json:"vehicleId"`
}
