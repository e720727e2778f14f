package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/presenter"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// heading prints the list title with its age, marking lists served from an
// outdated cache.
func heading[T, F any](w io.Writer, title string, s presenter.ListState[T, F]) {
	line := fmt.Sprintf("%s (%d)", title, len(s.Items))
	if !s.LastUpdated.IsZero() {
		line += ", updated " + s.LastUpdated.Local().Format(time.TimeOnly)
	}
	if s.Stale {
		line += " [stale]"
	}
	fmt.Fprintln(w, line)
}

func renderVehicles(w io.Writer, s presenter.FleetState) {
	heading(w, "Vehicles", s)
	if len(s.Items) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNUMBER\tTYPE\tTONS\tSTATUS\tDRIVER")
	for _, v := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\n", v.ID, v.VehicleNumber, v.VehicleType, v.CapacityTons, v.Status, dash(v.AssignedDriverID))
	}
	_ = tw.Flush()
}

func renderDrivers(w io.Writer, s presenter.DriversState) {
	heading(w, "Drivers", s)
	if len(s.Items) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tLICENSE\tSTATUS\tVEHICLE")
	for _, d := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Phone, dash(d.LicenseNumber), d.Status, dash(d.AssignedVehicleID))
	}
	_ = tw.Flush()
}

func renderBroadcasts(w io.Writer, s presenter.BroadcastsState) {
	heading(w, "Broadcasts", s)
	if len(s.Items) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tROUTE\tTYPE\tTRUCKS\tFARE\tEXPIRES")
	for _, b := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s -> %s\t%s\t%d/%d\t%.0f\t%s\n",
			b.ID, b.CustomerName, b.PickupAddress, b.DropAddress, b.VehicleType,
			b.RemainingTrucks(), b.TrucksNeeded, b.FarePerTruck, b.ExpiresAt.Local().Format(time.TimeOnly))
	}
	_ = tw.Flush()
}

func renderAssignments(w io.Writer, s presenter.AssignmentsState) {
	heading(w, "Assignments", s)
	if len(s.Items) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tBROADCAST\tVEHICLE\tDRIVER\tSTATUS\tTRIP")
	for _, as := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", as.ID, as.BroadcastID, as.VehicleID, as.DriverID, as.Status, dash(as.TripID))
	}
	_ = tw.Flush()
}

func renderTrips(w io.Writer, s presenter.TripsState) {
	title := fmt.Sprintf("Trips (%d)", len(s.Trips))
	if s.FromCache {
		title += " [stale]"
	}
	fmt.Fprintln(w, title)
	if len(s.Trips) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tROUTE\tVEHICLE\tDRIVER\tSTATUS")
	for _, t := range s.Trips {
		fmt.Fprintf(tw, "%s\t%s -> %s\t%s\t%s\t%s\n", t.ID, t.Pickup, t.Drop, t.VehicleID, t.DriverID, t.Status)
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
