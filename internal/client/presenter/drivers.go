package presenter

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type DriversState = ListState[models.Driver, api.DriverFilter]

type DriverBatch = cache.BatchResult[models.DriverInput, models.Driver]

type DriversViewModel struct {
	*Base[DriversState]
	repo DriverRepository
}

func NewDriversViewModel(ctx context.Context, repo DriverRepository, log logging.Logger) *DriversViewModel {
	return &DriversViewModel{Base: NewBase(ctx, DriversState{}, log), repo: repo}
}

func (vm *DriversViewModel) Load(force bool) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		return vm.refresh(ctx, force)
	})
}

func (vm *DriversViewModel) SetFilter(f api.DriverFilter) <-chan struct{} {
	vm.Update(func(s DriversState) DriversState {
		s.Filter = f
		return s
	})
	return vm.Load(false)
}

func (vm *DriversViewModel) Register(in []models.DriverInput) *Deferred[DriverBatch] {
	return ExecuteWithResult(vm.Base, func(ctx context.Context) (DriverBatch, error) {
		res := vm.repo.RegisterDrivers(ctx, in)
		if err := res.AsError(); err != nil {
			return DriverBatch{}, err
		}

		br := res.Data()
		for _, f := range br.Failed {
			vm.Emit(Event{Kind: EventToast, Message: fmt.Sprintf("%s: %s", f.Input.Name, f.Err.Message)})
		}
		vm.Emit(Event{Kind: EventToast, Message: batchSummary("driver", len(br.Succeeded), len(br.Failed))})

		_ = vm.refresh(ctx, false)
		return br, nil
	})
}

func (vm *DriversViewModel) AssignVehicle(driverID, vehicleID string) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.AssignVehicle(ctx, driverID, vehicleID).AsError(); err != nil {
			return err
		}
		vm.Emit(Event{Kind: EventToast, Message: "vehicle assigned"})
		return vm.refresh(ctx, false)
	})
}

func (vm *DriversViewModel) Delete(id string) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.DeleteDriver(ctx, id).AsError(); err != nil {
			return err
		}
		return vm.refresh(ctx, false)
	})
}

func (vm *DriversViewModel) refresh(ctx context.Context, force bool) error {
	res := vm.repo.FetchDrivers(ctx, force, vm.State().Value().Filter)
	if err := res.AsError(); err != nil {
		return err
	}
	vm.Update(func(s DriversState) DriversState { return fromCollection(s, res.Data()) })
	return nil
}
