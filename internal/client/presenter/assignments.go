package presenter

import (
	"context"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type AssignmentsState = ListState[models.Assignment, api.AssignmentFilter]

type AssignmentBatch = cache.BatchResult[models.AssignmentInput, models.Assignment]

type AssignmentsViewModel struct {
	*Base[AssignmentsState]
	repo AssignmentRepository
}

func NewAssignmentsViewModel(ctx context.Context, repo AssignmentRepository, log logging.Logger) *AssignmentsViewModel {
	return &AssignmentsViewModel{Base: NewBase(ctx, AssignmentsState{}, log), repo: repo}
}

func (vm *AssignmentsViewModel) Load(force bool) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		return vm.refresh(ctx, force)
	})
}

func (vm *AssignmentsViewModel) SetFilter(f api.AssignmentFilter) <-chan struct{} {
	vm.Update(func(s AssignmentsState) AssignmentsState {
		s.Filter = f
		return s
	})
	return vm.Load(false)
}

// Assign creates one assignment per vehicle/driver pair.
func (vm *AssignmentsViewModel) Assign(in []models.AssignmentInput) *Deferred[AssignmentBatch] {
	return ExecuteWithResult(vm.Base, func(ctx context.Context) (AssignmentBatch, error) {
		res := vm.repo.CreateAssignments(ctx, in)
		if err := res.AsError(); err != nil {
			return AssignmentBatch{}, err
		}
		br := res.Data()
		vm.Emit(Event{Kind: EventToast, Message: batchSummary("assignment", len(br.Succeeded), len(br.Failed))})
		_ = vm.refresh(ctx, false)
		return br, nil
	})
}

func (vm *AssignmentsViewModel) Respond(id string, accept bool) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.RespondToAssignment(ctx, id, accept).AsError(); err != nil {
			return err
		}
		return vm.refresh(ctx, false)
	})
}

func (vm *AssignmentsViewModel) Cancel(id string) <-chan struct{} {
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if err := vm.repo.CancelAssignment(ctx, id).AsError(); err != nil {
			return err
		}
		return vm.refresh(ctx, false)
	})
}

func (vm *AssignmentsViewModel) refresh(ctx context.Context, force bool) error {
	res := vm.repo.FetchAssignments(ctx, force, vm.State().Value().Filter)
	if err := res.AsError(); err != nil {
		return err
	}
	vm.Update(func(s AssignmentsState) AssignmentsState { return fromCollection(s, res.Data()) })
	return nil
}
