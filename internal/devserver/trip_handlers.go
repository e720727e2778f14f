package devserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

func broadcastCreated(b *models.BroadcastTrip) time.Time { return b.CreatedAt }
func assignmentCreated(a *models.Assignment) time.Time   { return a.CreatedAt }
func tripCreated(t *models.Trip) time.Time {
	if t.StartedAt != nil {
		return *t.StartedAt
	}
	return time.Time{}
}

func accepting(b *models.BroadcastTrip) bool {
	return b.Status == models.BroadcastActive || b.Status == models.BroadcastPartiallyFilled
}

func (s *Server) listBroadcasts(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	f := api.BroadcastFilter{VehicleType: r.URL.Query().Get("vehicleType")}

	s.mu.Lock()
	items := sorted(s.data.broadcast, broadcastCreated, func(b *models.BroadcastTrip) bool {
		return accepting(b) && f.Match(*b) && !s.data.declined[p.UserID+":"+b.ID]
	})
	s.mu.Unlock()

	writeData(w, http.StatusOK, page(items))
}

func (s *Server) getBroadcast(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.broadcast[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "BROADCAST_NOT_FOUND", "broadcast not found")
		return
	}
	writeData(w, http.StatusOK, b)
}

func (s *Server) acceptBroadcast(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Trucks int `json:"trucks"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if in.Trucks < 1 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "at least one truck is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.broadcast[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "BROADCAST_NOT_FOUND", "broadcast not found")
		return
	}
	if !accepting(b) {
		writeError(w, http.StatusConflict, "BROADCAST_CLOSED", "broadcast is no longer accepting trucks")
		return
	}
	if rem := b.RemainingTrucks(); in.Trucks > rem {
		writeError(w, http.StatusConflict, "INSUFFICIENT_TRUCKS", fmt.Sprintf("only %d truck(s) still needed", rem))
		return
	}

	b.TrucksFilled += in.Trucks
	if b.RemainingTrucks() == 0 {
		b.Status = models.BroadcastFilled
	} else {
		b.Status = models.BroadcastPartiallyFilled
	}
	writeData(w, http.StatusOK, api.AcceptResult{Broadcast: *b, TrucksAccepted: in.Trucks})
}

func (s *Server) declineBroadcast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.broadcast[id]; !ok {
		writeError(w, http.StatusNotFound, "BROADCAST_NOT_FOUND", "broadcast not found")
		return
	}
	s.data.declined[caller(r).UserID+":"+id] = true
	writeData(w, http.StatusOK, nil)
}

// sees reports whether the caller may see work done by driverID for
// transporterID. Callers hold s.mu.
func (s *Server) sees(p principal, transporterID, driverID string) bool {
	if p.Role == string(models.RoleTransporter) {
		return transporterID == p.UserID
	}
	d, ok := s.data.drivers[driverID]
	return ok && d.Phone == p.Phone
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	q := r.URL.Query()
	status := models.AssignmentStatus(q.Get("status"))
	driverID := q.Get("driverId")

	s.mu.Lock()
	items := sorted(s.data.assigns, assignmentCreated, func(a *models.Assignment) bool {
		return s.sees(p, a.TransporterID, a.DriverID) &&
			(status == "" || a.Status == status) &&
			(driverID == "" || a.DriverID == driverID)
	})
	s.mu.Unlock()

	writeData(w, http.StatusOK, page(items))
}

func active(a *models.Assignment) bool {
	return a.Status == models.AssignmentPending || a.Status == models.AssignmentAccepted
}

func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	var in models.AssignmentInput
	if !readJSON(w, r, &in) {
		return
	}
	p := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.broadcast[in.BroadcastID]; !ok {
		writeError(w, http.StatusNotFound, "BROADCAST_NOT_FOUND", "broadcast not found")
		return
	}
	v, ok := s.data.vehicles[in.VehicleID]
	if !ok || v.TransporterID != p.UserID {
		writeError(w, http.StatusNotFound, "VEHICLE_NOT_FOUND", "vehicle not found")
		return
	}
	d, ok := s.data.drivers[in.DriverID]
	if !ok || d.TransporterID != p.UserID {
		writeError(w, http.StatusNotFound, "DRIVER_NOT_FOUND", "driver not found")
		return
	}
	for _, a := range s.data.assigns {
		if active(a) && (a.VehicleID == v.ID || a.DriverID == d.ID) {
			writeError(w, http.StatusConflict, "ALREADY_ASSIGNED", "vehicle or driver already has an active assignment")
			return
		}
	}

	a := &models.Assignment{
		ID:            uuid.NewString(),
		BroadcastID:   in.BroadcastID,
		TransporterID: p.UserID,
		DriverID:      d.ID,
		VehicleID:     v.ID,
		Status:        models.AssignmentPending,
		CreatedAt:     s.now(),
	}
	s.data.assigns[a.ID] = a
	writeData(w, http.StatusCreated, a)
}

func (s *Server) visibleAssignment(w http.ResponseWriter, r *http.Request) (*models.Assignment, bool) {
	a, ok := s.data.assigns[chi.URLParam(r, "id")]
	if !ok || !s.sees(caller(r), a.TransporterID, a.DriverID) {
		writeError(w, http.StatusNotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found")
		return nil, false
	}
	return a, true
}

// respondAssignment records the driver's answer. Accepting schedules a trip.
func (s *Server) respondAssignment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Accept bool `json:"accept"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.visibleAssignment(w, r)
	if !ok {
		return
	}
	if a.Status != models.AssignmentPending {
		writeError(w, http.StatusConflict, "ASSIGNMENT_CLOSED", "assignment was already answered")
		return
	}

	if !in.Accept {
		a.Status = models.AssignmentDeclined
		writeData(w, http.StatusOK, a)
		return
	}

	b := s.data.broadcast[a.BroadcastID]
	t := &models.Trip{
		ID:           uuid.NewString(),
		AssignmentID: a.ID,
		DriverID:     a.DriverID,
		VehicleID:    a.VehicleID,
		Status:       models.TripScheduled,
	}
	if b != nil {
		t.Pickup, t.Drop = b.PickupAddress, b.DropAddress
	}
	s.data.trips[t.ID] = t
	a.Status = models.AssignmentAccepted
	a.TripID = t.ID
	writeData(w, http.StatusOK, a)
}

func (s *Server) cancelAssignment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.visibleAssignment(w, r)
	if !ok {
		return
	}
	if !active(a) {
		writeError(w, http.StatusConflict, "ASSIGNMENT_CLOSED", "assignment is not active")
		return
	}
	a.Status = models.AssignmentCancelled
	if t, ok := s.data.trips[a.TripID]; ok && t.Status == models.TripScheduled {
		t.Status = models.TripCancelled
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) tripOwner(t *models.Trip) string {
	if a, ok := s.data.assigns[t.AssignmentID]; ok {
		return a.TransporterID
	}
	return ""
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	p := caller(r)
	status := models.TripStatus(r.URL.Query().Get("status"))

	s.mu.Lock()
	items := sorted(s.data.trips, tripCreated, func(t *models.Trip) bool {
		return s.sees(p, s.tripOwner(t), t.DriverID) && (status == "" || t.Status == status)
	})
	s.mu.Unlock()

	writeData(w, http.StatusOK, page(items))
}

func (s *Server) visibleTrip(w http.ResponseWriter, r *http.Request, id string) (*models.Trip, bool) {
	t, ok := s.data.trips[id]
	if !ok || !s.sees(caller(r), s.tripOwner(t), t.DriverID) {
		writeError(w, http.StatusNotFound, "TRIP_NOT_FOUND", "trip not found")
		return nil, false
	}
	return t, true
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.visibleTrip(w, r, chi.URLParam(r, "id")); ok {
		writeData(w, http.StatusOK, t)
	}
}

func (s *Server) updateTripStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.TripStatus `json:"status"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTrip(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	now := s.now()
	v := s.data.vehicles[t.VehicleID]
	d := s.data.drivers[t.DriverID]
	switch in.Status {
	case models.TripStarted, models.TripInProgress:
		if t.StartedAt == nil {
			t.StartedAt = &now
		}
		if v != nil {
			v.Status = models.VehicleInTransit
		}
		if d != nil {
			d.Status = models.DriverOnTrip
		}
	case models.TripCompleted, models.TripCancelled:
		if in.Status == models.TripCompleted {
			t.CompletedAt = &now
			if a, ok := s.data.assigns[t.AssignmentID]; ok {
				a.Status = models.AssignmentCompleted
			}
		}
		if v != nil {
			v.Status = models.VehicleAvailable
		}
		if d != nil {
			d.Status = models.DriverActive
		}
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown trip status")
		return
	}
	t.Status = in.Status
	writeData(w, http.StatusOK, t)
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TripID string `json:"tripId"`
		models.Location
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visibleTrip(w, r, in.TripID); !ok {
		return
	}
	s.data.locations[in.TripID] = in.Location
	writeData(w, http.StatusOK, nil)
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visibleTrip(w, r, id); !ok {
		return
	}
	loc, ok := s.data.locations[id]
	if !ok {
		writeError(w, http.StatusNotFound, "LOCATION_NOT_FOUND", "no location reported yet")
		return
	}
	writeData(w, http.StatusOK, loc)
}

func (s *Server) registerDevice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if in.Token == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "token is required")
		return
	}

	s.mu.Lock()
	s.data.devices[caller(r).UserID] = in.Token
	s.mu.Unlock()
	writeData(w, http.StatusOK, nil)
}
