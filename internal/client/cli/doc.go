// Package cli is the terminal front end of the captain client.
//
// It builds the application container, starts the connectivity monitor and
// runs a REPL whose commands drive the presenter state holders: login with
// an OTP, browse and edit the fleet and drivers, accept broadcasts and
// assign trucks. The prompt shows whether the backend is reachable, and
// lists served from an outdated cache are marked [stale].
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
