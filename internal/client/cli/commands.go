package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/notifications"
	"github.com/dmitrijs2005/weelo-captain/internal/client/presenter"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
)

const devicePlatform = "cli"

var errUsage = errors.New("usage")

// screen is what every view model exposes through its embedded Base.
type screen interface {
	ErrorMessage() *state.Flow[string]
	Events() *state.Events[presenter.Event]
}

// settle prints pending events of s and then its error, if any.
func (a *App) settle(ctx context.Context, s screen) error {
	a.drain(ctx, s.Events())
	if msg := s.ErrorMessage().Value(); msg != "" {
		a.println("Error:", msg)
		return errors.New(msg)
	}
	return nil
}

// settleResult is settle for deferred operations, whose error may be
// returned before the screen has stored it.
func (a *App) settleResult(ctx context.Context, s screen, err error) error {
	if serr := a.settle(ctx, s); serr != nil {
		return serr
	}
	if err != nil {
		a.println("Error:", result.FromError(err).Message)
		return err
	}
	return nil
}

func (a *App) drain(ctx context.Context, events *state.Events[presenter.Event]) {
	for {
		select {
		case ev := <-events.C():
			a.handleEvent(ctx, ev)
		default:
			return
		}
	}
}

func (a *App) handleEvent(ctx context.Context, ev presenter.Event) {
	switch ev.Kind {
	case presenter.EventToast:
		a.println(ev.Message)
	case presenter.EventNavigate:
		if ev.Message != "" {
			a.println(ev.Message)
		}
		if id, ok := strings.CutPrefix(ev.Route, presenter.RouteAssignTrucks+"/"); ok {
			a.printf("Assign them with: assign %s <vehicle> <driver> ...\n", id)
		}
	case presenter.EventForceLogout:
		a.println("Session expired, please login again.")
		if err := a.c.Auth.Logout(ctx); err != nil {
			a.log.Warn(ctx, "logout after expired session failed", "error", err)
		}
	}
}

func (a *App) usage(text string) error {
	a.println("Usage:", text)
	return errUsage
}

func (a *App) Login(ctx context.Context) error {
	phone, err := GetSimpleText(a.reader, "Mobile number", a.writer())
	if err != nil {
		return err
	}
	roleIn, err := GetSimpleText(a.reader, "Role: (t)ransporter or (d)river [t]", a.writer())
	if err != nil {
		return err
	}
	role := models.RoleTransporter
	if strings.HasPrefix(strings.ToLower(roleIn), "d") {
		role = models.RoleDriver
	}

	<-a.login.SendOTP(phone, role)
	if err := a.settle(ctx, a.login); err != nil {
		return err
	}

	otp, err := GetSecret(a.reader, "Enter the code", a.writer())
	if err != nil {
		return err
	}
	<-a.login.VerifyOTP(otp)
	if err := a.settle(ctx, a.login); err != nil {
		return err
	}
	a.println("Logged in as", role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.c.Auth.Logout(ctx); err != nil {
		a.println("Error:", err)
		return err
	}
	a.println("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	info, err := a.c.Auth.SessionInfo()
	if err != nil {
		a.println("Error:", err)
		return err
	}
	expires := info.ExpiresAt.Local().Format(time.Kitchen)
	if info.Expired(time.Now()) {
		expires += " (expired, renewed on next request)"
	}
	a.printf("User %s, %s, phone %s, token valid until %s\n", info.Subject, info.Role, info.Phone, expires)
	return nil
}

func (a *App) Vehicles(ctx context.Context, args []string) error {
	var f api.VehicleFilter
	if len(args) > 0 {
		f.Status = models.VehicleStatus(args[0])
	}
	<-a.fleet.SetFilter(f)
	if err := a.settle(ctx, a.fleet); err != nil {
		return err
	}
	renderVehicles(a.writer(), a.fleet.State().Value())
	return nil
}

// AddVehicle registers every line as one vehicle; failures are reported
// per line and do not stop the rest.
func (a *App) AddVehicle(ctx context.Context) error {
	lines, err := GetLines(a.reader, "One vehicle per line: NUMBER TYPE CAPACITY_TONS", a.writer())
	if err != nil {
		return err
	}
	in, err := parseVehicleLines(lines)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	if len(in) == 0 {
		return nil
	}

	_, err = a.fleet.Register(in).Await(ctx)
	if err := a.settleResult(ctx, a.fleet, err); err != nil {
		return err
	}
	renderVehicles(a.writer(), a.fleet.State().Value())
	return nil
}

func (a *App) Drivers(ctx context.Context, args []string) error {
	var f api.DriverFilter
	if len(args) > 0 {
		f.Status = models.DriverStatus(args[0])
	}
	<-a.drivers.SetFilter(f)
	if err := a.settle(ctx, a.drivers); err != nil {
		return err
	}
	renderDrivers(a.writer(), a.drivers.State().Value())
	return nil
}

func (a *App) AddDriver(ctx context.Context) error {
	lines, err := GetLines(a.reader, "One driver per line: NAME;PHONE;LICENSE", a.writer())
	if err != nil {
		return err
	}
	in, err := parseDriverLines(lines)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	if len(in) == 0 {
		return nil
	}

	_, err = a.drivers.Register(in).Await(ctx)
	if err := a.settleResult(ctx, a.drivers, err); err != nil {
		return err
	}
	renderDrivers(a.writer(), a.drivers.State().Value())
	return nil
}

func (a *App) Broadcasts(ctx context.Context) error {
	<-a.broadcasts.Load(false, false)
	if err := a.settle(ctx, a.broadcasts); err != nil {
		return err
	}
	renderBroadcasts(a.writer(), a.broadcasts.State().Value())
	return nil
}

func (a *App) Accept(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("accept <broadcast> <trucks>")
	}
	trucks, err := strconv.Atoi(args[1])
	if err != nil || trucks <= 0 {
		return a.usage("accept <broadcast> <trucks>, trucks is a positive number")
	}

	_, err = a.broadcasts.Accept(args[0], trucks).Await(ctx)
	if err := a.settleResult(ctx, a.broadcasts, err); err != nil {
		return err
	}
	return nil
}

func (a *App) Assignments(ctx context.Context, args []string) error {
	var f api.AssignmentFilter
	if len(args) > 0 {
		f.Status = models.AssignmentStatus(args[0])
	}
	<-a.assignments.SetFilter(f)
	if err := a.settle(ctx, a.assignments); err != nil {
		return err
	}
	renderAssignments(a.writer(), a.assignments.State().Value())
	return nil
}

// Assign takes a broadcast followed by vehicle/driver pairs.
func (a *App) Assign(ctx context.Context, args []string) error {
	if len(args) < 3 || (len(args)-1)%2 != 0 {
		return a.usage("assign <broadcast> <vehicle> <driver> [<vehicle> <driver>...]")
	}
	in := make([]models.AssignmentInput, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		in = append(in, models.AssignmentInput{BroadcastID: args[0], VehicleID: args[i], DriverID: args[i+1]})
	}

	_, err := a.assignments.Assign(in).Await(ctx)
	if err := a.settleResult(ctx, a.assignments, err); err != nil {
		return err
	}
	return nil
}

func (a *App) Respond(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("respond <assignment> yes|no")
	}
	var accept bool
	switch strings.ToLower(args[1]) {
	case "yes", "y", "accept":
		accept = true
	case "no", "n", "decline":
	default:
		return a.usage("respond <assignment> yes|no")
	}

	<-a.assignments.Respond(args[0], accept)
	return a.settle(ctx, a.assignments)
}

func (a *App) Trips(ctx context.Context, args []string) error {
	var status models.TripStatus
	if len(args) > 0 {
		status = models.TripStatus(args[0])
	}
	<-a.trips.Load(status)
	if err := a.settle(ctx, a.trips); err != nil {
		return err
	}
	renderTrips(a.writer(), a.trips.State().Value())
	return nil
}

// Notify feeds a raw push payload through the router, as if it had been
// delivered by the push service.
func (a *App) Notify(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage(`notify {"type":"new_broadcast","title":"...","body":"..."}`)
	}
	if _, err := a.c.Notifications.Route(ctx, []byte(strings.Join(args, " "))); err != nil {
		a.println("Error:", err)
		return err
	}
	return nil
}

func (a *App) Device(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("device <push-token>")
	}
	if err := notifications.RegisterDevice(ctx, a.c.API.Devices, args[0], devicePlatform); err != nil {
		a.println("Error:", err)
		return err
	}
	a.println("Device registered")
	return nil
}

// Refresh reloads every list from the network.
func (a *App) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { <-a.fleet.Load(true); return nil })
	g.Go(func() error { <-a.drivers.Load(true); return nil })
	g.Go(func() error { <-a.broadcasts.Load(true, false); return nil })
	g.Go(func() error { <-a.assignments.Load(true); return nil })
	_ = g.Wait()

	var errs []error
	for _, s := range []screen{a.fleet, a.drivers, a.broadcasts, a.assignments} {
		errs = append(errs, a.settle(ctx, s))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.printf("%d vehicles, %d drivers, %d broadcasts, %d assignments\n",
		len(a.fleet.State().Value().Items),
		len(a.drivers.State().Value().Items),
		len(a.broadcasts.State().Value().Items),
		len(a.assignments.State().Value().Items))
	return nil
}

func parseVehicleLines(lines []string) ([]models.VehicleInput, error) {
	out := make([]models.VehicleInput, 0, len(lines))
	for i, l := range lines {
		f := strings.Fields(l)
		if len(f) != 3 {
			return nil, fmt.Errorf("line %d: want NUMBER TYPE CAPACITY_TONS", i+1)
		}
		capacity, err := strconv.ParseFloat(f[2], 64)
		if err != nil || capacity <= 0 {
			return nil, fmt.Errorf("line %d: capacity %q is not a positive number", i+1, f[2])
		}
		out = append(out, models.VehicleInput{VehicleNumber: strings.ToUpper(f[0]), VehicleType: f[1], CapacityTons: capacity})
	}
	return out, nil
}

func parseDriverLines(lines []string) ([]models.DriverInput, error) {
	out := make([]models.DriverInput, 0, len(lines))
	for i, l := range lines {
		f := strings.Split(l, ";")
		if len(f) != 3 {
			return nil, fmt.Errorf("line %d: want NAME;PHONE;LICENSE", i+1)
		}
		for j := range f {
			f[j] = strings.TrimSpace(f[j])
		}
		if f[0] == "" || f[1] == "" {
			return nil, fmt.Errorf("line %d: name and phone are required", i+1)
		}
		out = append(out, models.DriverInput{Name: f[0], Phone: f[1], LicenseNumber: f[2]})
	}
	return out, nil
}

func (a *App) VehicleStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("vstatus <vehicle> available|maintenance|inactive")
	}
	<-a.fleet.SetStatus(args[0], models.VehicleStatus(args[1]))
	if err := a.settle(ctx, a.fleet); err != nil {
		return err
	}
	renderVehicles(a.writer(), a.fleet.State().Value())
	return nil
}

func (a *App) RemoveVehicle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("rmvehicle <vehicle>")
	}
	<-a.fleet.Delete(args[0])
	return a.settle(ctx, a.fleet)
}

func (a *App) RemoveDriver(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("rmdriver <driver>")
	}
	<-a.drivers.Delete(args[0])
	return a.settle(ctx, a.drivers)
}

// Pair makes vehicle the driver's default truck.
func (a *App) Pair(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("pair <driver> <vehicle>")
	}
	<-a.drivers.AssignVehicle(args[0], args[1])
	return a.settle(ctx, a.drivers)
}

func (a *App) Decline(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("decline <broadcast>")
	}
	<-a.broadcasts.Decline(args[0])
	if err := a.settle(ctx, a.broadcasts); err != nil {
		return err
	}
	renderBroadcasts(a.writer(), a.broadcasts.State().Value())
	return nil
}

func (a *App) CancelAssignment(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("cancel <assignment>")
	}
	<-a.assignments.Cancel(args[0])
	return a.settle(ctx, a.assignments)
}

// Location reports a GPS fix for a trip. Fixes sent faster than the
// configured interval are dropped.
func (a *App) Location(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return a.usage("location <trip> <lat> <lon>")
	}
	lat, err1 := strconv.ParseFloat(args[1], 64)
	lon, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		return a.usage("location <trip> <lat> <lon>, coordinates in degrees")
	}

	sent, err := a.c.Tracking.Report(ctx, args[0], models.Location{Latitude: lat, Longitude: lon})
	switch {
	case err != nil:
		a.println("Error:", result.FromError(err).Message)
		return err
	case !sent:
		a.println("Too soon, location not sent")
	default:
		a.println("Location sent")
	}
	return nil
}
