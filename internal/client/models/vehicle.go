package models

import "time"

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleInTransit   VehicleStatus = "in_transit"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleInactive    VehicleStatus = "inactive"
)

// Vehicle is a truck registered to a transporter's fleet.
type Vehicle struct {
	ID               string        `json:"id"`
	TransporterID    string        `json:"transporterId"`
	VehicleNumber    string        `json:"vehicleNumber"`
	VehicleType      string        `json:"vehicleType"`
	CapacityTons     float64       `json:"capacityTons"`
	Status           VehicleStatus `json:"status"`
	AssignedDriverID string        `json:"assignedDriverId,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// VehicleInput is the payload for registering or updating a vehicle.
type VehicleInput struct {
	VehicleNumber string  `json:"vehicleNumber"`
	VehicleType   string  `json:"vehicleType"`
	CapacityTons  float64 `json:"capacityTons"`
}
