package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type BroadcastsClient struct{ c *core }

type BroadcastFilter struct {
	VehicleType string
}

func (f BroadcastFilter) Empty() bool { return f == BroadcastFilter{} }

func (f BroadcastFilter) Match(b models.BroadcastTrip) bool {
	return f.VehicleType == "" || b.VehicleType == f.VehicleType
}

// AcceptResult is what the backend returns after trucks were reserved.
type AcceptResult struct {
	Broadcast      models.BroadcastTrip `json:"broadcast"`
	TrucksAccepted int                  `json:"trucksAccepted"`
}

func (b *BroadcastsClient) ListActive(ctx context.Context, f BroadcastFilter) ([]models.BroadcastTrip, error) {
	q := url.Values{}
	if f.VehicleType != "" {
		q.Set("vehicleType", f.VehicleType)
	}

	var page ListPage[models.BroadcastTrip]
	if err := b.c.do(ctx, http.MethodGet, "/broadcasts/active", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (b *BroadcastsClient) Get(ctx context.Context, id string) (models.BroadcastTrip, error) {
	var out models.BroadcastTrip
	err := b.c.do(ctx, http.MethodGet, "/broadcasts/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (b *BroadcastsClient) Accept(ctx context.Context, id string, trucks int) (AcceptResult, error) {
	var out AcceptResult
	body := map[string]int{"trucks": trucks}
	err := b.c.do(ctx, http.MethodPost, "/broadcasts/"+url.PathEscape(id)+"/accept", nil, body, &out)
	return out, err
}

func (b *BroadcastsClient) Decline(ctx context.Context, id string) error {
	return b.c.do(ctx, http.MethodPost, "/broadcasts/"+url.PathEscape(id)+"/decline", nil, nil, nil)
}
