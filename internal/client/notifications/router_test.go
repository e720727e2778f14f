package notifications

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type recorder struct {
	got []Channel
}

func (r *recorder) Present(ctx context.Context, ch Channel, m Message) {
	r.got = append(r.got, ch)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Type
		wantErr bool
	}{
		{name: "broadcast", raw: `{"type":"new_broadcast","title":"Load"}`, want: TypeNewBroadcast},
		{name: "unknown type", raw: `{"type":"promo"}`, want: TypeGeneral},
		{name: "no type", raw: `{"title":"hi"}`, want: TypeGeneral},
		{name: "malformed", raw: `{"type":`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Type)
		})
	}
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, Channel{ID: "broadcasts", Importance: ImportanceHigh}, ChannelFor(TypeNewBroadcast))
	assert.Equal(t, ImportanceHigh, ChannelFor(TypeTripUpdate).Importance)
	assert.Equal(t, ImportanceDefault, ChannelFor(TypePayment).Importance)
	assert.Equal(t, "general", ChannelFor("whatever").ID)
	assert.Equal(t, "low", ChannelFor(TypeGeneral).Importance.String())
}

func TestRoute_InvalidatesMatchingCaches(t *testing.T) {
	broadcasts, assignments := &counter{}, &counter{}
	r := NewRouter(nil, nil)
	r.Invalidates(TypeNewBroadcast, broadcasts)
	r.Invalidates(TypeAssignmentUpdate, assignments)
	r.Invalidates(TypeTripUpdate, assignments)

	ctx := context.Background()
	_, err := r.Route(ctx, []byte(`{"type":"new_broadcast"}`))
	require.NoError(t, err)
	_, err = r.Route(ctx, []byte(`{"type":"trip_update"}`))
	require.NoError(t, err)
	_, err = r.Route(ctx, []byte(`{"type":"payment"}`))
	require.NoError(t, err)

	assert.Equal(t, 1, broadcasts.count())
	assert.Equal(t, 1, assignments.count())
}

func TestRoute_ForegroundSuppressesPresenter(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(rec, nil)
	ctx := context.Background()

	ch, cancel := r.Subscribe()
	_, err := r.Route(ctx, []byte(`{"type":"assignment_update","data":{"assignmentId":"a1"}}`))
	require.NoError(t, err)

	m := <-ch
	assert.Equal(t, "a1", m.Data["assignmentId"])
	assert.Empty(t, rec.got)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	_, err = r.Route(ctx, []byte(`{"type":"payment"}`))
	require.NoError(t, err)
	require.Len(t, rec.got, 1)
	assert.Equal(t, "payments", rec.got[0].ID)
}

func TestRoute_SlowListenerDoesNotBlock(t *testing.T) {
	r := NewRouter(nil, nil)
	_, cancel := r.Subscribe()
	defer cancel()

	for range subscriberBuffer + 5 {
		r.Dispatch(context.Background(), Message{Type: TypeGeneral})
	}
}

type fakeDevices struct{ token, platform string }

func (f *fakeDevices) RegisterPushToken(ctx context.Context, token, platform string) error {
	f.token, f.platform = token, platform
	return nil
}

func TestRegisterDevice(t *testing.T) {
	d := &fakeDevices{}
	assert.ErrorIs(t, RegisterDevice(context.Background(), d, "  ", "cli"), ErrEmptyToken)
	require.NoError(t, RegisterDevice(context.Background(), d, " tok ", "cli"))
	assert.Equal(t, "tok", d.token)
}
