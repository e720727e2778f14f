package presenter

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const RouteAssignTrucks = "assign-trucks"

type BroadcastsState = ListState[models.BroadcastTrip, api.BroadcastFilter]

type BroadcastsViewModel struct {
	*Base[BroadcastsState]
	repo BroadcastRepository
}

func NewBroadcastsViewModel(ctx context.Context, repo BroadcastRepository, log logging.Logger) *BroadcastsViewModel {
	return &BroadcastsViewModel{Base: NewBase(ctx, BroadcastsState{}, log), repo: repo}
}

// Load refreshes the board. Quiet loads are used for notification-driven
// refreshes that should not flash a spinner.
func (vm *BroadcastsViewModel) Load(force, quiet bool) <-chan struct{} {
	return vm.Execute(ExecOptions{Quiet: quiet}, func(ctx context.Context) error {
		return vm.refresh(ctx, force)
	})
}

// Accept reserves trucks and, on success, navigates to the assignment step
// for that broadcast.
func (vm *BroadcastsViewModel) Accept(id string, trucks int) *Deferred[api.AcceptResult] {
	return ExecuteWithResult(vm.Base, func(ctx context.Context) (api.AcceptResult, error) {
		res := vm.repo.AcceptBroadcast(ctx, id, trucks)
		if err := res.AsError(); err != nil {
			return api.AcceptResult{}, err
		}

		vm.Emit(Event{
			Kind:    EventNavigate,
			Route:   RouteAssignTrucks + "/" + id,
			Message: fmt.Sprintf("%d truck(s) reserved", res.Data().TrucksAccepted),
		})
		_ = vm.refresh(ctx, false)
		return res.Data(), nil
	})
}

func (vm *BroadcastsViewModel) Decline(id string) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.DeclineBroadcast(ctx, id).AsError(); err != nil {
			return err
		}
		return vm.refresh(ctx, false)
	})
}

func (vm *BroadcastsViewModel) refresh(ctx context.Context, force bool) error {
	res := vm.repo.FetchActiveBroadcasts(ctx, force, vm.State().Value().Filter)
	if err := res.AsError(); err != nil {
		return err
	}
	vm.Update(func(s BroadcastsState) BroadcastsState { return fromCollection(s, res.Data()) })
	return nil
}
