package devserver

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type user struct {
	ID    string
	Phone string
	Role  models.Role
}

type refreshToken struct {
	UserID  string
	Expires time.Time
}

// data is the whole backend state. Callers hold Server.mu.
type data struct {
	users     map[string]*user // by phone+role
	refresh   map[string]refreshToken
	vehicles  map[string]*models.Vehicle
	drivers   map[string]*models.Driver
	broadcast map[string]*models.BroadcastTrip
	assigns   map[string]*models.Assignment
	trips     map[string]*models.Trip
	locations map[string]models.Location
	devices   map[string]string // user id -> push token
	declined  map[string]bool   // user id + broadcast id
}

func newData() *data {
	return &data{
		users:     make(map[string]*user),
		refresh:   make(map[string]refreshToken),
		vehicles:  make(map[string]*models.Vehicle),
		drivers:   make(map[string]*models.Driver),
		broadcast: make(map[string]*models.BroadcastTrip),
		assigns:   make(map[string]*models.Assignment),
		trips:     make(map[string]*models.Trip),
		locations: make(map[string]models.Location),
		devices:   make(map[string]string),
		declined:  make(map[string]bool),
	}
}

func (d *data) user(phone string, role models.Role) *user {
	key := string(role) + ":" + phone
	u, ok := d.users[key]
	if !ok {
		u = &user{ID: uuid.NewString(), Phone: phone, Role: role}
		d.users[key] = u
	}
	return u
}

func (d *data) seed(now time.Time) {
	for _, b := range []models.BroadcastTrip{
		{CustomerName: "Sharma Traders", PickupAddress: "Pune", DropAddress: "Mumbai", VehicleType: "open", TrucksNeeded: 3, FarePerTruck: 18000},
		{CustomerName: "Gupta Steel", PickupAddress: "Nagpur", DropAddress: "Hyderabad", VehicleType: "container", TrucksNeeded: 2, FarePerTruck: 32000},
		{CustomerName: "Fresh Farms", PickupAddress: "Nashik", DropAddress: "Surat", VehicleType: "reefer", TrucksNeeded: 1, FarePerTruck: 24000},
	} {
		b.ID = uuid.NewString()
		b.Status = models.BroadcastActive
		b.CreatedAt = now
		b.ExpiresAt = now.Add(24 * time.Hour)
		d.broadcast[b.ID] = &b
	}
}

// sorted returns copies of the kept values of m, oldest first. Ties are
// broken by key so listings are deterministic.
func sorted[T any](m map[string]*T, created func(*T) time.Time, keep func(*T) bool) []T {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := created(m[keys[i]]), created(m[keys[j]])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return keys[i] < keys[j]
	})

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, *m[k])
	}
	return out
}
