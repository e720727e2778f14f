package presenter

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type FleetState = ListState[models.Vehicle, api.VehicleFilter]

type VehicleBatch = cache.BatchResult[models.VehicleInput, models.Vehicle]

// FleetViewModel backs the vehicle list and registration screens.
type FleetViewModel struct {
	*Base[FleetState]
	repo VehicleRepository
}

func NewFleetViewModel(ctx context.Context, repo VehicleRepository, log logging.Logger) *FleetViewModel {
	return &FleetViewModel{Base: NewBase(ctx, FleetState{}, log), repo: repo}
}

func (vm *FleetViewModel) Load(force bool) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		return vm.refresh(ctx, force)
	})
}

// SetFilter changes the filter and reloads.
func (vm *FleetViewModel) SetFilter(f api.VehicleFilter) <-chan struct{} {
	vm.Update(func(s FleetState) FleetState {
		s.Filter = f
		return s
	})
	return vm.Load(false)
}

// Register adds vehicles one by one; the caller gets the per-item failures.
func (vm *FleetViewModel) Register(in []models.VehicleInput) *Deferred[VehicleBatch] {
	return ExecuteWithResult(vm.Base, func(ctx context.Context) (VehicleBatch, error) {
		res := vm.repo.RegisterVehicles(ctx, in)
		if err := res.AsError(); err != nil {
			return VehicleBatch{}, err
		}

		br := res.Data()
		for _, f := range br.Failed {
			vm.Emit(Event{Kind: EventToast, Message: fmt.Sprintf("%s: %s", f.Input.VehicleNumber, f.Err.Message)})
		}
		vm.Emit(Event{Kind: EventToast, Message: batchSummary("vehicle", len(br.Succeeded), len(br.Failed))})

		_ = vm.refresh(ctx, false)
		return br, nil
	})
}

func (vm *FleetViewModel) SetStatus(id string, status models.VehicleStatus) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.UpdateVehicleStatus(ctx, id, status).AsError(); err != nil {
			return err
		}
		return vm.refresh(ctx, false)
	})
}

func (vm *FleetViewModel) Delete(id string) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.DeleteVehicle(ctx, id).AsError(); err != nil {
			return err
		}
		vm.Emit(Event{Kind: EventToast, Message: "vehicle removed"})
		return vm.refresh(ctx, false)
	})
}

func (vm *FleetViewModel) refresh(ctx context.Context, force bool) error {
	res := vm.repo.FetchVehicles(ctx, force, vm.State().Value().Filter)
	if err := res.AsError(); err != nil {
		return err
	}
	vm.Update(func(s FleetState) FleetState { return fromCollection(s, res.Data()) })
	return nil
}
