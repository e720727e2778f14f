package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type fakeLocations struct {
	mu   sync.Mutex
	sent []models.Location
	err  error
}

func (f *fakeLocations) UpdateLocation(ctx context.Context, tripID string, loc models.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, loc)
	return nil
}

func TestTracking_DropsWithinInterval(t *testing.T) {
	f := &fakeLocations{}
	svc := NewTrackingService(f, time.Hour, nil)
	ctx := context.Background()

	ok, err := svc.Report(ctx, "t1", models.Location{Latitude: 1})
	require.NoError(t, err)
	assert.True(t, ok)

	for range 5 {
		ok, err = svc.Report(ctx, "t1", models.Location{Latitude: 2})
		require.NoError(t, err)
		assert.False(t, ok)
	}

	sent, dropped := svc.Stats()
	assert.EqualValues(t, 1, sent)
	assert.EqualValues(t, 5, dropped)
	require.Len(t, f.sent, 1)
	assert.False(t, f.sent[0].Timestamp.IsZero())
}

func TestTracking_NoIntervalSendsAll(t *testing.T) {
	f := &fakeLocations{}
	svc := NewTrackingService(f, 0, nil)

	for range 3 {
		ok, err := svc.Report(context.Background(), "t1", models.Location{})
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Len(t, f.sent, 3)
}

func TestTracking_APIError(t *testing.T) {
	svc := NewTrackingService(&fakeLocations{err: api.ErrNetwork}, time.Second, nil)

	ok, err := svc.Report(context.Background(), "t1", models.Location{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, api.ErrNetwork)
}
