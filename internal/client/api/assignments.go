package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type AssignmentsClient struct{ c *core }

type AssignmentFilter struct {
	Status   models.AssignmentStatus
	DriverID string
}

func (f AssignmentFilter) Empty() bool { return f == AssignmentFilter{} }

func (f AssignmentFilter) Match(a models.Assignment) bool {
	return (f.Status == "" || a.Status == f.Status) &&
		(f.DriverID == "" || a.DriverID == f.DriverID)
}

func (a *AssignmentsClient) List(ctx context.Context, f AssignmentFilter) ([]models.Assignment, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.DriverID != "" {
		q.Set("driverId", f.DriverID)
	}

	var page ListPage[models.Assignment]
	if err := a.c.do(ctx, http.MethodGet, "/assignments", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (a *AssignmentsClient) Create(ctx context.Context, in models.AssignmentInput) (models.Assignment, error) {
	var out models.Assignment
	err := a.c.do(ctx, http.MethodPost, "/assignments", nil, in, &out)
	return out, err
}

// Respond records the driver's answer to an assignment.
func (a *AssignmentsClient) Respond(ctx context.Context, id string, accept bool) (models.Assignment, error) {
	var out models.Assignment
	body := map[string]bool{"accept": accept}
	err := a.c.do(ctx, http.MethodPost, "/assignments/"+url.PathEscape(id)+"/respond", nil, body, &out)
	return out, err
}

func (a *AssignmentsClient) Cancel(ctx context.Context, id string) error {
	return a.c.do(ctx, http.MethodPost, "/assignments/"+url.PathEscape(id)+"/cancel", nil, nil, nil)
}
