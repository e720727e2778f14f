package transport

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type fakeTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	saveErr error
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeTokens) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeTokens) UpdateTokens(_ context.Context, a, r string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		f.access = ""
		return f.saveErr
	}
	f.access, f.refresh = a, r
	return nil
}

type fakeRefresher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, rt string) (string, string, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return "", "", f.err
	}
	return "new", "refresh-2", nil
}

type toggle struct{ offline atomic.Bool }

func (t *toggle) Online() bool { return !t.offline.Load() }

func response(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// sequence replies with the given statuses in order, repeating the last one.
type sequence struct {
	mu       sync.Mutex
	statuses []int
	hits     int
	bodies   []string
}

func (s *sequence) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	}

	status := s.statuses[len(s.statuses)-1]
	if s.hits < len(s.statuses) {
		status = s.statuses[s.hits]
	}
	s.hits++
	return response(req, status, `{"success":true}`), nil
}

func (s *sequence) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}
