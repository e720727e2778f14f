package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_TracksHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathHealth, r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	m := NewMonitor(srv.URL, srv.Client(), nil)
	ctx := context.Background()

	assert.True(t, m.Check(ctx))

	updates, cancel := m.Status().Subscribe()
	defer cancel()
	<-updates

	healthy.Store(false)
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Online())
	assert.False(t, <-updates)

	healthy.Store(true)
	assert.True(t, m.Check(ctx))
	assert.True(t, <-updates)
}

func TestMonitor_UnreachableIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := NewMonitor(url, nil, nil)
	assert.False(t, m.Check(context.Background()))
}

func TestMonitor_RunStopsWithContext(t *testing.T) {
	var probes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
	}))
	defer srv.Close()

	m := NewMonitor(srv.URL, srv.Client(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return probes.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Online())
	assert.False(t, Static(false).Online())
}
