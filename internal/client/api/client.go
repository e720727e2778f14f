// Package api maps the backend REST surface onto typed Go calls.
//
// Every call goes through the *http.Client handed to New, normally the
// transport pipeline, and decodes the {success, data|error, message}
// envelope. Failures come back as *Error (server said no), ErrNetwork
// (nothing came back) or ErrDecode.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	maxBodySize = 8 << 20
)

// Client groups the per-domain clients over one base URL.
type Client struct {
	Auth        *AuthClient
	Vehicles    *VehiclesClient
	Drivers     *DriversClient
	Broadcasts  *BroadcastsClient
	Assignments *AssignmentsClient
	Trips       *TripsClient
	Tracking    *TrackingClient
	Devices     *DevicesClient
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	c, err := newCore(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	return &Client{
		Auth:        &AuthClient{c},
		Vehicles:    &VehiclesClient{c},
		Drivers:     &DriversClient{c},
		Broadcasts:  &BroadcastsClient{c},
		Assignments: &AssignmentsClient{c},
		Trips:       &TripsClient{c},
		Tracking:    &TrackingClient{c},
		Devices:     &DevicesClient{c},
	}, nil
}

type core struct {
	base *url.URL
	http *http.Client
}

func newCore(baseURL string, httpClient *http.Client) (*core, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &core{base: u, http: httpClient}, nil
}

func (c *core) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and decodes the envelope's data into out (if non-nil).
func (c *core) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead {
		req.Header.Set(HeaderIdempotencyKey, uuid.NewString())
	} else if revalidate(ctx) {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	noteResponse(ctx, resp)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrNetwork, method, path, err)
	}

	return decode(resp.StatusCode, raw, out)
}

func decode(status int, raw []byte, out any) error {
	ok := status >= 200 && status < 300

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if ok {
			if len(bytes.TrimSpace(raw)) == 0 && out == nil {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return &Error{StatusCode: status}
	}

	if !ok || !env.Success {
		e := &Error{StatusCode: status, Message: env.Message}
		if env.Error != nil {
			e.Code = env.Error.Code
			if env.Error.Message != "" {
				e.Message = env.Error.Message
			}
			if ok && env.Error.StatusCode != 0 {
				e.StatusCode = env.Error.StatusCode
			}
		}
		return e
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

type revalidateKey struct{}

// Revalidate marks ctx so that GETs made with it skip fresh response-cache
// entries and ask the server. Offline requests still fall back to the cache.
func Revalidate(ctx context.Context) context.Context {
	return context.WithValue(ctx, revalidateKey{}, true)
}

func revalidate(ctx context.Context) bool {
	v, _ := ctx.Value(revalidateKey{}).(bool)
	return v
}

// IsNetwork reports whether err means no response was received.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
