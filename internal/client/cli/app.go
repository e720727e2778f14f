package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/client/app"
	"github.com/dmitrijs2005/weelo-captain/internal/client/config"
	"github.com/dmitrijs2005/weelo-captain/internal/client/notifications"
	"github.com/dmitrijs2005/weelo-captain/internal/client/presenter"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

// App is the terminal front end: one presenter per screen over a shared
// container.
type App struct {
	c      *app.Container
	log    logging.Logger
	reader *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	login       *presenter.LoginViewModel
	fleet       *presenter.FleetViewModel
	drivers     *presenter.DriversViewModel
	broadcasts  *presenter.BroadcastsViewModel
	assignments *presenter.AssignmentsViewModel
	trips       *presenter.TripsViewModel
}

// NewLogger builds the client logger: JSON through zap when format is
// "json", text through slog on stderr otherwise.
func NewLogger(format, level string) (logging.Logger, func(), error) {
	if format == "json" {
		z, err := logging.NewZapLogger(level)
		if err != nil {
			return nil, nil, err
		}
		return z, func() { _ = z.Sync() }, nil
	}
	return logging.NewTextLogger(os.Stderr, level), func() {}, nil
}

// NewApp opens the local state described by cfg and prepares the screens.
// Notifications that arrive while the REPL is not listening are printed as
// they come.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	a := &App{log: log, out: os.Stdout, reader: bufio.NewReader(os.Stdin)}

	c, err := app.NewContainer(ctx, cfg, log, notifications.PresenterFunc(a.present))
	if err != nil {
		return nil, err
	}
	a.attach(ctx, c)
	return a, nil
}

func newAppWith(ctx context.Context, c *app.Container, in io.Reader, out io.Writer) *App {
	a := &App{log: c.Log, out: out, reader: bufio.NewReader(in)}
	a.attach(ctx, c)
	return a
}

func (a *App) attach(ctx context.Context, c *app.Container) {
	a.c = c
	a.login = presenter.NewLoginViewModel(ctx, c.Auth, a.log.With("screen", "login"))
	a.fleet = presenter.NewFleetViewModel(ctx, c.Vehicles, a.log.With("screen", "fleet"))
	a.drivers = presenter.NewDriversViewModel(ctx, c.Drivers, a.log.With("screen", "drivers"))
	a.broadcasts = presenter.NewBroadcastsViewModel(ctx, c.Broadcasts, a.log.With("screen", "broadcasts"))
	a.assignments = presenter.NewAssignmentsViewModel(ctx, c.Assignments, a.log.With("screen", "assignments"))
	a.trips = presenter.NewTripsViewModel(ctx, c.API.Trips, a.log.With("screen", "trips"))
	c.Auth.ClearOnLogout(a.trips)
}

// Root runs the REPL until the user exits or ctx ends.
func (a *App) Root(ctx context.Context) {
	a.println("Weelo Captain. Type 'help' for commands.")

	msgs, unsubscribe := a.c.Notifications.Subscribe()
	defer unsubscribe()
	go func() {
		for m := range msgs {
			a.present(ctx, notifications.ChannelFor(m.Type), m)
		}
	}()

	runREPL(ctx, a, a.status, a.reader, a.writer())
}

// Close stops the screens and releases the container.
func (a *App) Close() error {
	a.login.Close()
	a.fleet.Close()
	a.drivers.Close()
	a.broadcasts.Close()
	a.assignments.Close()
	a.trips.Close()
	return a.c.Close()
}

func (a *App) isLoggedIn() bool {
	return a.c.Tokens.IsAuthenticated()
}

func (a *App) status() string {
	mode := "offline"
	if a.c.Monitor.Online() {
		mode = "online"
	}
	if role := a.c.Tokens.Role(); role != "" && a.isLoggedIn() {
		return fmt.Sprintf("(%s %s)", role, mode)
	}
	return "(" + mode + ")"
}

func (a *App) present(_ context.Context, ch notifications.Channel, m notifications.Message) {
	a.printf("\n[%s] %s: %s\n", ch.ID, m.Title, m.Body)
}

// lockedWriter serialises REPL output with notifications printed from the
// subscriber goroutine.
type lockedWriter struct{ a *App }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.a.outMu.Lock()
	defer w.a.outMu.Unlock()
	return w.a.out.Write(p)
}

func (a *App) writer() io.Writer { return lockedWriter{a} }

func (a *App) println(args ...any) {
	fmt.Fprintln(a.writer(), args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.writer(), format, args...)
}
