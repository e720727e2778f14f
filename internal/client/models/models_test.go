package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastTrip_RemainingTrucks(t *testing.T) {
	tests := []struct {
		name   string
		needed int
		filled int
		want   int
	}{
		{name: "none filled", needed: 5, filled: 0, want: 5},
		{name: "partially filled", needed: 5, filled: 3, want: 2},
		{name: "filled", needed: 5, filled: 5, want: 0},
		{name: "overfilled never negative", needed: 2, filled: 3, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BroadcastTrip{TrucksNeeded: tt.needed, TrucksFilled: tt.filled}
			assert.Equal(t, tt.want, b.RemainingTrucks())
		})
	}
}

func TestSession_Authenticated(t *testing.T) {
	assert.False(t, Session{RefreshToken: "r"}.Authenticated())
	assert.True(t, Session{AccessToken: "a"}.Authenticated())
}

func TestVehicle_DecodesBackendShape(t *testing.T) {
	raw := `{"id":"v1","transporterId":"t1","vehicleNumber":"MH12AB1234","vehicleType":"open_body",
		"capacityTons":9.5,"status":"in_transit","createdAt":"2026-01-02T03:04:05Z"}`

	var v Vehicle
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	assert.Equal(t, "MH12AB1234", v.VehicleNumber)
	assert.Equal(t, VehicleInTransit, v.Status)
	assert.InDelta(t, 9.5, v.CapacityTons, 0.001)
	assert.Equal(t, 2026, v.CreatedAt.Year())
}
