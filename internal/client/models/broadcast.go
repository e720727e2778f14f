package models

import "time"

type BroadcastStatus string

const (
	BroadcastActive          BroadcastStatus = "active"
	BroadcastPartiallyFilled BroadcastStatus = "partially_filled"
	BroadcastFilled          BroadcastStatus = "filled"
	BroadcastExpired         BroadcastStatus = "expired"
	BroadcastCancelled       BroadcastStatus = "cancelled"
)

// BroadcastTrip is a customer booking offered to transporters; each
// transporter may accept some of the trucks it still needs.
type BroadcastTrip struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	PickupAddress string          `json:"pickupAddress"`
	DropAddress   string          `json:"dropAddress"`
	VehicleType   string          `json:"vehicleType"`
	TrucksNeeded  int             `json:"trucksNeeded"`
	TrucksFilled  int             `json:"trucksFilled"`
	FarePerTruck  float64         `json:"farePerTruck"`
	Status        BroadcastStatus `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
}

// RemainingTrucks is how many trucks can still be accepted.
func (b BroadcastTrip) RemainingTrucks() int {
	if n := b.TrucksNeeded - b.TrucksFilled; n > 0 {
		return n
	}
	return 0
}
