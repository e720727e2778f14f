package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

func page[T any](items []T) api.ListPage[T] {
	return api.ListPage[T]{Items: items, Total: len(items)}
}

func vehicleCreated(v *models.Vehicle) time.Time { return v.CreatedAt }
func driverCreated(d *models.Driver) time.Time   { return d.CreatedAt }

func (s *Server) listVehicles(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	f := api.VehicleFilter{
		Status:      models.VehicleStatus(r.URL.Query().Get("status")),
		VehicleType: r.URL.Query().Get("vehicleType"),
	}

	s.mu.Lock()
	items := sorted(s.data.vehicles, vehicleCreated, func(v *models.Vehicle) bool {
		return v.TransporterID == p.UserID && f.Match(*v)
	})
	s.mu.Unlock()

	writeData(w, http.StatusOK, page(items))
}

// ownedVehicle looks up a vehicle of the caller. It writes the error
// response itself. Callers hold s.mu.
func (s *Server) ownedVehicle(w http.ResponseWriter, r *http.Request) (*models.Vehicle, bool) {
	v, ok := s.data.vehicles[chi.URLParam(r, "id")]
	if !ok || v.TransporterID != caller(r).UserID {
		writeError(w, http.StatusNotFound, "VEHICLE_NOT_FOUND", "vehicle not found")
		return nil, false
	}
	return v, true
}

func (s *Server) getVehicle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.ownedVehicle(w, r); ok {
		writeData(w, http.StatusOK, v)
	}
}

func (s *Server) checkVehicleNumber(w http.ResponseWriter, number, self, owner string) bool {
	for _, v := range s.data.vehicles {
		if v.ID == self || !strings.EqualFold(v.VehicleNumber, number) {
			continue
		}
		if v.TransporterID != owner {
			writeError(w, http.StatusConflict, "VEHICLE_OWNED_BY_OTHER", "vehicle owned by another transporter")
		} else {
			writeError(w, http.StatusConflict, "VEHICLE_EXISTS", "vehicle "+number+" is already registered")
		}
		return false
	}
	return true
}

func (s *Server) createVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if !readJSON(w, r, &in) {
		return
	}
	in.VehicleNumber = strings.ToUpper(strings.TrimSpace(in.VehicleNumber))
	if in.VehicleNumber == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "vehicle number is required")
		return
	}
	p := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkVehicleNumber(w, in.VehicleNumber, "", p.UserID) {
		return
	}

	v := &models.Vehicle{
		ID:            uuid.NewString(),
		TransporterID: p.UserID,
		VehicleNumber: in.VehicleNumber,
		VehicleType:   in.VehicleType,
		CapacityTons:  in.CapacityTons,
		Status:        models.VehicleAvailable,
		CreatedAt:     s.now(),
	}
	s.data.vehicles[v.ID] = v
	writeData(w, http.StatusCreated, v)
}

func (s *Server) updateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ownedVehicle(w, r)
	if !ok {
		return
	}
	if in.VehicleNumber != "" {
		in.VehicleNumber = strings.ToUpper(strings.TrimSpace(in.VehicleNumber))
		if !s.checkVehicleNumber(w, in.VehicleNumber, v.ID, v.TransporterID) {
			return
		}
		v.VehicleNumber = in.VehicleNumber
	}
	if in.VehicleType != "" {
		v.VehicleType = in.VehicleType
	}
	if in.CapacityTons > 0 {
		v.CapacityTons = in.CapacityTons
	}
	writeData(w, http.StatusOK, v)
}

func (s *Server) updateVehicleStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.VehicleStatus `json:"status"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	switch in.Status {
	case models.VehicleAvailable, models.VehicleInTransit, models.VehicleMaintenance, models.VehicleInactive:
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown vehicle status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.ownedVehicle(w, r); ok {
		v.Status = in.Status
		writeData(w, http.StatusOK, v)
	}
}

func (s *Server) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ownedVehicle(w, r)
	if !ok {
		return
	}
	if v.Status == models.VehicleInTransit {
		writeError(w, http.StatusConflict, "VEHICLE_IN_TRANSIT", "vehicle is on a trip")
		return
	}
	for _, d := range s.data.drivers {
		if d.AssignedVehicleID == v.ID {
			d.AssignedVehicleID = ""
		}
	}
	delete(s.data.vehicles, v.ID)
	writeData(w, http.StatusOK, nil)
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	status := models.DriverStatus(r.URL.Query().Get("status"))

	s.mu.Lock()
	items := sorted(s.data.drivers, driverCreated, func(d *models.Driver) bool {
		return d.TransporterID == p.UserID && (status == "" || d.Status == status)
	})
	s.mu.Unlock()

	writeData(w, http.StatusOK, page(items))
}

func (s *Server) ownedDriver(w http.ResponseWriter, r *http.Request) (*models.Driver, bool) {
	d, ok := s.data.drivers[chi.URLParam(r, "id")]
	if !ok || d.TransporterID != caller(r).UserID {
		writeError(w, http.StatusNotFound, "DRIVER_NOT_FOUND", "driver not found")
		return nil, false
	}
	return d, true
}

func (s *Server) createDriver(w http.ResponseWriter, r *http.Request) {
	var in models.DriverInput
	if !readJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" || !phoneRe.MatchString(in.Phone) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name and a valid phone are required")
		return
	}
	p := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.data.drivers {
		if d.Phone == in.Phone {
			writeError(w, http.StatusConflict, "DRIVER_EXISTS", "a driver with this phone is already registered")
			return
		}
	}

	d := &models.Driver{
		ID:            uuid.NewString(),
		TransporterID: p.UserID,
		Name:          strings.TrimSpace(in.Name),
		Phone:         in.Phone,
		LicenseNumber: in.LicenseNumber,
		Status:        models.DriverActive,
		CreatedAt:     s.now(),
	}
	s.data.drivers[d.ID] = d
	writeData(w, http.StatusCreated, d)
}

func (s *Server) updateDriver(w http.ResponseWriter, r *http.Request) {
	var in models.DriverInput
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.ownedDriver(w, r)
	if !ok {
		return
	}
	if in.Name != "" {
		d.Name = in.Name
	}
	if in.Phone != "" {
		if !phoneRe.MatchString(in.Phone) {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid phone number")
			return
		}
		d.Phone = in.Phone
	}
	if in.LicenseNumber != "" {
		d.LicenseNumber = in.LicenseNumber
	}
	writeData(w, http.StatusOK, d)
}

func (s *Server) deleteDriver(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.ownedDriver(w, r)
	if !ok {
		return
	}
	if d.Status == models.DriverOnTrip {
		writeError(w, http.StatusConflict, "DRIVER_ON_TRIP", "driver is on a trip")
		return
	}
	if v, ok := s.data.vehicles[d.AssignedVehicleID]; ok {
		v.AssignedDriverID = ""
	}
	delete(s.data.drivers, d.ID)
	writeData(w, http.StatusOK, nil)
}

// assignVehicle pairs a driver with a vehicle, releasing any previous
// pairing on either side.
func (s *Server) assignVehicle(w http.ResponseWriter, r *http.Request) {
	var in struct {
		VehicleID string `json:"vehicleId"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.ownedDriver(w, r)
	if !ok {
		return
	}
	v, ok := s.data.vehicles[in.VehicleID]
	if !ok || v.TransporterID != d.TransporterID {
		writeError(w, http.StatusNotFound, "VEHICLE_NOT_FOUND", "vehicle not found")
		return
	}

	if old, ok := s.data.vehicles[d.AssignedVehicleID]; ok {
		old.AssignedDriverID = ""
	}
	if other, ok := s.data.drivers[v.AssignedDriverID]; ok {
		other.AssignedVehicleID = ""
	}
	d.AssignedVehicleID = v.ID
	v.AssignedDriverID = d.ID
	writeData(w, http.StatusOK, d)
}
