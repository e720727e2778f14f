package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

// subscriberBuffer is how many messages a slow foreground listener may lag
// behind before messages to it are dropped.
const subscriberBuffer = 16

type Invalidator interface {
	Invalidate()
}

// Presenter shows a message outside the app (a system notification).
type Presenter interface {
	Present(ctx context.Context, ch Channel, m Message)
}

type PresenterFunc func(ctx context.Context, ch Channel, m Message)

func (f PresenterFunc) Present(ctx context.Context, ch Channel, m Message) { f(ctx, ch, m) }

type Router struct {
	presenter Presenter
	log       logging.Logger

	mu      sync.Mutex
	targets map[Type][]Invalidator
	subs    map[int]chan Message
	nextID  int
}

func NewRouter(presenter Presenter, log logging.Logger) *Router {
	if log == nil {
		log = logging.Nop()
	}
	return &Router{
		presenter: presenter,
		log:       log,
		targets:   make(map[Type][]Invalidator),
		subs:      make(map[int]chan Message),
	}
}

// Invalidates registers caches made stale by messages of type t.
func (r *Router) Invalidates(t Type, targets ...Invalidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[t] = append(r.targets[t], targets...)
}

// Subscribe opens a foreground stream. While at least one stream is open,
// messages are delivered there instead of the Presenter.
func (r *Router) Subscribe() (<-chan Message, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	ch := make(chan Message, subscriberBuffer)
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}

// Route handles one raw push payload and returns the parsed message.
func (r *Router) Route(ctx context.Context, raw []byte) (Message, error) {
	m, err := Parse(raw)
	if err != nil {
		r.log.Warn(ctx, "dropping malformed notification", "error", err)
		return Message{}, err
	}
	r.Dispatch(ctx, m)
	return m, nil
}

// Dispatch routes an already decoded message.
func (r *Router) Dispatch(ctx context.Context, m Message) {
	m.Type = normalize(m.Type)
	ch := ChannelFor(m.Type)

	r.mu.Lock()
	targets := append([]Invalidator(nil), r.targets[m.Type]...)
	subs := make([]chan Message, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	// sends happen under the lock so that cancel cannot close a channel mid-send
	for _, s := range subs {
		select {
		case s <- m:
		default:
			r.log.Warn(ctx, "foreground listener is full, notification dropped", "type", m.Type)
		}
	}
	r.mu.Unlock()

	for _, t := range targets {
		t.Invalidate()
	}

	r.log.Debug(ctx, "notification routed", "type", m.Type, "channel", ch.ID, "foreground", len(subs) > 0)
	if len(subs) == 0 && r.presenter != nil {
		r.presenter.Present(ctx, ch, m)
	}
}

type DeviceAPI interface {
	RegisterPushToken(ctx context.Context, token, platform string) error
}

var ErrEmptyToken = errors.New("push token is empty")

// RegisterDevice sends the device push token to the backend.
func RegisterDevice(ctx context.Context, d DeviceAPI, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	return d.RegisterPushToken(ctx, token, platform)
}
