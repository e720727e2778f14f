package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/transport"
)

// OfflineTrace records whether calls made with its context were answered
// from the response cache while offline, and when that response was stored.
type OfflineTrace struct {
	mu       sync.Mutex
	served   bool
	storedAt time.Time
}

type offlineTraceKey struct{}

// TraceOffline returns a context whose calls report into the returned trace.
func TraceOffline(ctx context.Context) (context.Context, *OfflineTrace) {
	t := &OfflineTrace{}
	return context.WithValue(ctx, offlineTraceKey{}, t), t
}

// NoteServedOffline records an offline answer stored at storedAt on the trace
// carried by ctx, if any. The oldest answer wins.
func NoteServedOffline(ctx context.Context, storedAt time.Time) {
	t, _ := ctx.Value(offlineTraceKey{}).(*OfflineTrace)
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.served || storedAt.Before(t.storedAt) {
		t.storedAt = storedAt
	}
	t.served = true
}

// ServedOffline reports whether any call was answered offline and the time
// the oldest such response was stored (zero when the server sent no Date).
func (t *OfflineTrace) ServedOffline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storedAt, t.served
}

func noteResponse(ctx context.Context, resp *http.Response) {
	if !transport.ServedOffline(resp) {
		return
	}
	storedAt, _ := http.ParseTime(resp.Header.Get("Date"))
	NoteServedOffline(ctx, storedAt)
}
