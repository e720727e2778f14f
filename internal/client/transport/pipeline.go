package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/dmitrijs2005/weelo-captain/internal/client/connectivity"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

// ResponseCache is an httpcache.Cache that can be emptied at logout.
type ResponseCache interface {
	httpcache.Cache
	Clear(ctx context.Context) error
}

type Options struct {
	BaseURL      string
	Tokens       TokenStore
	Refresher    Refresher
	Connectivity connectivity.Checker
	Cache        ResponseCache
	Retry        RetryPolicy
	CacheMaxAge  time.Duration
	Timeout      time.Duration
	LogBodies    bool
	PinnedKeys   []string
	Pinning      bool
	Logger       logging.Logger

	// Base replaces the network transport (tests).
	Base http.RoundTripper
}

type Pipeline struct {
	Client *http.Client

	cache ResponseCache
	base  http.RoundTripper
}

func NewPipeline(o Options) (*Pipeline, error) {
	if o.Tokens == nil || o.Refresher == nil {
		return nil, errors.New("transport: token store and refresher are required")
	}

	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil, err
	}
	paths := Paths{Prefix: strings.TrimSuffix(u.Path, "/")}

	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Connectivity == nil {
		o.Connectivity = connectivity.Static(true)
	}
	if o.Cache == nil {
		o.Cache = newMemoryCache()
	}

	base := o.Base
	if base == nil {
		if base, err = newBaseTransport(o.Pinning, o.PinnedKeys); err != nil {
			return nil, err
		}
	}

	log := o.Logger.With("component", "http")
	rt := Chain(base,
		Offline(o.Connectivity),
		Auth(o.Tokens, paths),
		Retry(o.Retry, log),
		responseCache(o.Cache),
		CachePolicy(o.CacheMaxAge),
		Sanitize(),
		Logging(log, o.LogBodies),
		TokenRefresh(o.Tokens, o.Refresher, paths, log),
	)

	return &Pipeline{
		Client: &http.Client{Transport: rt, Timeout: o.Timeout},
		cache:  o.Cache,
		base:   base,
	}, nil
}

func responseCache(c httpcache.Cache) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return &httpcache.Transport{Transport: next, Cache: c, MarkCachedResponses: true}
	}
}

// IsCached reports whether resp was served by the response cache.
func IsCached(resp *http.Response) bool {
	return resp.Header.Get(httpcache.XFromCache) != ""
}

// ClearCache empties the response cache and drops idle connections.
func (p *Pipeline) ClearCache(ctx context.Context) error {
	if t, ok := p.base.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return p.cache.Clear(ctx)
}

// BareClient is a pooled client without the pipeline, used for token refresh.
func (p *Pipeline) BareClient(timeout time.Duration) *http.Client {
	return &http.Client{Transport: p.base, Timeout: timeout}
}

func newBaseTransport(pinning bool, pins []string) (*http.Transport, error) {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if pinning {
		cfg, err := pinnedTLSConfig(pins)
		if err != nil {
			return nil, err
		}
		t.TLSClientConfig = cfg
	}
	return t, nil
}

// memoryCache backs the pipeline when no persistent cache is configured.
// httpcache.MemoryCache cannot be emptied, so Clear swaps in a new one.
type memoryCache struct {
	mu sync.RWMutex
	c  *httpcache.MemoryCache
}

func newMemoryCache() *memoryCache {
	return &memoryCache{c: httpcache.NewMemoryCache()}
}

func (m *memoryCache) current() *httpcache.MemoryCache {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.c
}

func (m *memoryCache) Get(key string) ([]byte, bool) { return m.current().Get(key) }
func (m *memoryCache) Set(key string, value []byte)  { m.current().Set(key, value) }
func (m *memoryCache) Delete(key string)             { m.current().Delete(key) }

func (m *memoryCache) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c = httpcache.NewMemoryCache()
	return nil
}
