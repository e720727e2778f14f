package models

import "time"

type DriverStatus string

const (
	DriverActive   DriverStatus = "active"
	DriverOnTrip   DriverStatus = "on_trip"
	DriverInactive DriverStatus = "inactive"
)

type Driver struct {
	ID                string       `json:"id"`
	TransporterID     string       `json:"transporterId"`
	Name              string       `json:"name"`
	Phone             string       `json:"phone"`
	LicenseNumber     string       `json:"licenseNumber"`
	Status            DriverStatus `json:"status"`
	AssignedVehicleID string       `json:"assignedVehicleId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type DriverInput struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"licenseNumber"`
}
