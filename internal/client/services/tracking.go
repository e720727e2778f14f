package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type LocationAPI interface {
	UpdateLocation(ctx context.Context, tripID string, loc models.Location) error
}

// TrackingService forwards GPS fixes during a trip. At most one fix per
// interval reaches the server; the rest are dropped, not queued, because a
// newer fix always follows.
type TrackingService struct {
	api     LocationAPI
	limiter *rate.Limiter
	log     logging.Logger

	sent    atomic.Int64
	dropped atomic.Int64
}

func NewTrackingService(api LocationAPI, interval time.Duration, log logging.Logger) *TrackingService {
	if log == nil {
		log = logging.Nop()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TrackingService{api: api, limiter: rate.NewLimiter(limit, 1), log: log}
}

// Report sends loc unless another fix went out within the interval. It
// reports whether the fix was sent.
func (t *TrackingService) Report(ctx context.Context, tripID string, loc models.Location) (bool, error) {
	if !t.limiter.Allow() {
		t.dropped.Add(1)
		t.log.Debug(ctx, "location dropped", "trip", tripID)
		return false, nil
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now().UTC()
	}
	if err := t.api.UpdateLocation(ctx, tripID, loc); err != nil {
		return false, fmt.Errorf("report location: %w", err)
	}
	t.sent.Add(1)
	return true, nil
}

// Stats returns how many fixes were sent and dropped so far.
func (t *TrackingService) Stats() (sent, dropped int64) {
	return t.sent.Load(), t.dropped.Load()
}
