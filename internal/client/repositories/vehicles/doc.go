// Package vehicles is the caching repository for the transporter's fleet.
//
// # Overview
//
// Repository wraps the vehicles API with a cache.Store (validity window set
// from config, 2m by default). Reads are cache-aside: a fresh list is served
// from memory, an expired one is refetched, and a failed refetch falls back to
// the previous list flagged as stale.
//
// Mutations always hit the network and, on success, invalidate the cache so
// the next read returns server state instead of a locally merged guess.
//
// # Results
//
// Every operation returns a result.Result; no error values escape.
//
// Typical Usage
//
//	repo := vehicles.NewRepository(client.Vehicles, 2*time.Minute, cache.SystemClock, log)
//	res := repo.FetchVehicles(ctx, false, api.VehicleFilter{})
//	if res.IsSuccess() && res.Data().IsStale { ... }
package vehicles
