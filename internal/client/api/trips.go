package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type TripsClient struct{ c *core }

func (t *TripsClient) List(ctx context.Context, status models.TripStatus) ([]models.Trip, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}

	var page ListPage[models.Trip]
	if err := t.c.do(ctx, http.MethodGet, "/trips", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (t *TripsClient) Get(ctx context.Context, id string) (models.Trip, error) {
	var out models.Trip
	err := t.c.do(ctx, http.MethodGet, "/trips/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (t *TripsClient) UpdateStatus(ctx context.Context, id string, status models.TripStatus) (models.Trip, error) {
	var out models.Trip
	body := map[string]string{"status": string(status)}
	err := t.c.do(ctx, http.MethodPatch, "/trips/"+url.PathEscape(id)+"/status", nil, body, &out)
	return out, err
}

type TrackingClient struct{ c *core }

type locationUpdate struct {
	TripID string `json:"tripId"`
	models.Location
}

func (t *TrackingClient) UpdateLocation(ctx context.Context, tripID string, loc models.Location) error {
	return t.c.do(ctx, http.MethodPost, "/tracking/location", nil, locationUpdate{TripID: tripID, Location: loc}, nil)
}

func (t *TrackingClient) GetTripLocation(ctx context.Context, tripID string) (models.Location, error) {
	var out models.Location
	err := t.c.do(ctx, http.MethodGet, "/tracking/trips/"+url.PathEscape(tripID)+"/location", nil, nil, &out)
	return out, err
}

type DevicesClient struct{ c *core }

// RegisterPushToken tells the backend where to deliver push notifications.
func (d *DevicesClient) RegisterPushToken(ctx context.Context, token, platform string) error {
	body := map[string]string{"token": token, "platform": platform}
	return d.c.do(ctx, http.MethodPost, "/devices/push-token", nil, body, nil)
}
