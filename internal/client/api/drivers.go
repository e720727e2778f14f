package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type DriversClient struct{ c *core }

type DriverFilter struct {
	Status models.DriverStatus
}

func (f DriverFilter) Empty() bool { return f == DriverFilter{} }

func (f DriverFilter) Match(d models.Driver) bool {
	return f.Status == "" || d.Status == f.Status
}

func (d *DriversClient) List(ctx context.Context, f DriverFilter) ([]models.Driver, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}

	var page ListPage[models.Driver]
	if err := d.c.do(ctx, http.MethodGet, "/drivers", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (d *DriversClient) Register(ctx context.Context, in models.DriverInput) (models.Driver, error) {
	var out models.Driver
	err := d.c.do(ctx, http.MethodPost, "/drivers", nil, in, &out)
	return out, err
}

func (d *DriversClient) Update(ctx context.Context, id string, in models.DriverInput) (models.Driver, error) {
	var out models.Driver
	err := d.c.do(ctx, http.MethodPut, "/drivers/"+url.PathEscape(id), nil, in, &out)
	return out, err
}

func (d *DriversClient) Delete(ctx context.Context, id string) error {
	return d.c.do(ctx, http.MethodDelete, "/drivers/"+url.PathEscape(id), nil, nil, nil)
}

func (d *DriversClient) AssignVehicle(ctx context.Context, driverID, vehicleID string) (models.Driver, error) {
	var out models.Driver
	body := map[string]string{"vehicleId": vehicleID}
	err := d.c.do(ctx, http.MethodPost, "/drivers/"+url.PathEscape(driverID)+"/assign-vehicle", nil, body, &out)
	return out, err
}
