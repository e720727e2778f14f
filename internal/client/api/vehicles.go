package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type VehiclesClient struct{ c *core }

type VehicleFilter struct {
	Status      models.VehicleStatus
	VehicleType string
}

// Empty reports whether the filter selects everything.
func (f VehicleFilter) Empty() bool { return f == VehicleFilter{} }

func (f VehicleFilter) Match(v models.Vehicle) bool {
	return (f.Status == "" || v.Status == f.Status) &&
		(f.VehicleType == "" || v.VehicleType == f.VehicleType)
}

func (f VehicleFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.VehicleType != "" {
		q.Set("vehicleType", f.VehicleType)
	}
	return q
}

func (v *VehiclesClient) List(ctx context.Context, f VehicleFilter) ([]models.Vehicle, error) {
	var page ListPage[models.Vehicle]
	if err := v.c.do(ctx, http.MethodGet, "/vehicles", f.query(), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (v *VehiclesClient) Get(ctx context.Context, id string) (models.Vehicle, error) {
	var out models.Vehicle
	err := v.c.do(ctx, http.MethodGet, "/vehicles/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (v *VehiclesClient) Register(ctx context.Context, in models.VehicleInput) (models.Vehicle, error) {
	var out models.Vehicle
	err := v.c.do(ctx, http.MethodPost, "/vehicles", nil, in, &out)
	return out, err
}

func (v *VehiclesClient) Update(ctx context.Context, id string, in models.VehicleInput) (models.Vehicle, error) {
	var out models.Vehicle
	err := v.c.do(ctx, http.MethodPut, "/vehicles/"+url.PathEscape(id), nil, in, &out)
	return out, err
}

func (v *VehiclesClient) UpdateStatus(ctx context.Context, id string, status models.VehicleStatus) (models.Vehicle, error) {
	var out models.Vehicle
	body := map[string]string{"status": string(status)}
	err := v.c.do(ctx, http.MethodPatch, "/vehicles/"+url.PathEscape(id)+"/status", nil, body, &out)
	return out, err
}

func (v *VehiclesClient) Delete(ctx context.Context, id string) error {
	return v.c.do(ctx, http.MethodDelete, "/vehicles/"+url.PathEscape(id), nil, nil, nil)
}
