package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

func TestFlow_SubscribeGetsCurrentValue(t *testing.T) {
	f := NewFlow("a")
	f.Set("b")

	ch, cancel := f.Subscribe()
	defer cancel()

	assert.Equal(t, "b", <-ch)
}

func TestFlow_ConflatesToLatest(t *testing.T) {
	f := NewFlow(0)
	ch, cancel := f.Subscribe()
	defer cancel()

	for i := 1; i <= 10; i++ {
		f.Set(i)
	}

	assert.Equal(t, 10, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestFlow_UpdateIsAtomic(t *testing.T) {
	f := NewFlow(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, f.Value())
}

func TestFlow_CancelClosesChannel(t *testing.T) {
	f := NewFlow(1)
	ch, cancel := f.Subscribe()
	<-ch

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, f.Subscribers())

	f.Set(2)
}

func TestEvents_DeliveredOnce(t *testing.T) {
	e := NewEvents[string](4, logging.Nop())
	e.Emit("navigate")

	ev, err := e.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "navigate", ev)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEvents_DropsOldestWhenFull(t *testing.T) {
	e := NewEvents[int](2, nil)
	e.Emit(1)
	e.Emit(2)
	e.Emit(3)

	require.Equal(t, 2, e.Len())
	assert.Equal(t, 2, <-e.C())
	assert.Equal(t, 3, <-e.C())
}
