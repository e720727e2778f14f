package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Vehicles(ctx context.Context, args []string) error
	AddVehicle(ctx context.Context) error
	Drivers(ctx context.Context, args []string) error
	AddDriver(ctx context.Context) error
	Broadcasts(ctx context.Context) error
	Accept(ctx context.Context, args []string) error
	Assignments(ctx context.Context, args []string) error
	Assign(ctx context.Context, args []string) error
	Respond(ctx context.Context, args []string) error
	Trips(ctx context.Context, args []string) error
	Notify(ctx context.Context, args []string) error
	Device(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	VehicleStatus(ctx context.Context, args []string) error
	RemoveVehicle(ctx context.Context, args []string) error
	RemoveDriver(ctx context.Context, args []string) error
	Pair(ctx context.Context, args []string) error
	Decline(ctx context.Context, args []string) error
	CancelAssignment(ctx context.Context, args []string) error
	Location(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, help, exit"
	helpLoggedIn  = "Available commands: whoami, refresh, logout, exit\n" +
		"  fleet:       vehicles [status], addvehicle, vstatus <vehicle> <status>, rmvehicle <vehicle>\n" +
		"  drivers:     drivers [status], adddriver, pair <driver> <vehicle>, rmdriver <driver>\n" +
		"  broadcasts:  broadcasts, accept <id> <trucks>, decline <id>\n" +
		"  assignments: assignments [status], assign <broadcast> <vehicle> <driver>..., respond <assignment> yes|no, cancel <assignment>\n" +
		"  trips:       trips [status], location <trip> <lat> <lon>\n" +
		"  device:      notify <json>, device <token>"
)

// runREPL starts a read–eval–print loop over reader.
//
// The first word of each line is the command, the rest its arguments. The
// prompt shows the status returned by statusFn. Commands other than login,
// help and exit need a session. The loop exits on EOF or on "exit"/"quit".
//
// Errors returned by command handlers are not fatal: handlers print their
// own message, and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "captain %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "?":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		case "login":
			_ = a.Login(ctx)
			continue
		}

		if !a.isLoggedIn() {
			fmt.Fprintln(w, "Please login first (type 'login').")
			continue
		}

		switch cmd {
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "v", "vehicles":
			_ = a.Vehicles(ctx, args)
		case "addvehicle":
			_ = a.AddVehicle(ctx)
		case "d", "drivers":
			_ = a.Drivers(ctx, args)
		case "adddriver":
			_ = a.AddDriver(ctx)
		case "b", "broadcasts":
			_ = a.Broadcasts(ctx)
		case "accept":
			_ = a.Accept(ctx, args)
		case "a", "assignments":
			_ = a.Assignments(ctx, args)
		case "assign":
			_ = a.Assign(ctx, args)
		case "respond":
			_ = a.Respond(ctx, args)
		case "t", "trips":
			_ = a.Trips(ctx, args)
		case "notify":
			_ = a.Notify(ctx, args)
		case "device":
			_ = a.Device(ctx, args)
		case "refresh":
			_ = a.Refresh(ctx)
		case "vstatus":
			_ = a.VehicleStatus(ctx, args)
		case "rmvehicle":
			_ = a.RemoveVehicle(ctx, args)
		case "rmdriver":
			_ = a.RemoveDriver(ctx, args)
		case "pair":
			_ = a.Pair(ctx, args)
		case "decline":
			_ = a.Decline(ctx, args)
		case "cancel":
			_ = a.CancelAssignment(ctx, args)
		case "location":
			_ = a.Location(ctx, args)
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
