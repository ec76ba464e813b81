package dashboard

import (
	"context"

	"github.com/ogurasousui/taskvault/internal/core/access"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/task"
)

// Gateway は変更操作を受け付けます。各操作はロールの確認後にユースケースへ委譲し、
// 書き込みの完了で戻ります。結果はライブ購読を通じて画面へ反映されます。
type Gateway struct {
	employees employee.UseCase
	tasks     task.UseCase
	penalties penalty.UseCase
}

// NewGateway は Gateway を生成します。
func NewGateway(employees employee.UseCase, tasks task.UseCase, penalties penalty.UseCase) *Gateway {
	return &Gateway{employees: employees, tasks: tasks, penalties: penalties}
}

func (g *Gateway) CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
	if err := access.Require(ctx, access.ActionCreateEmployee); err != nil {
		return nil, err
	}
	return g.employees.CreateEmployee(ctx, in)
}

func (g *Gateway) UpdateEmployee(ctx context.Context, in employee.UpdateEmployeeInput) (*employee.Employee, error) {
	if err := access.Require(ctx, access.ActionUpdateEmployee); err != nil {
		return nil, err
	}
	return g.employees.UpdateEmployee(ctx, in)
}

func (g *Gateway) CreateTask(ctx context.Context, in task.CreateTaskInput) (*task.Task, error) {
	if err := access.Require(ctx, access.ActionCreateTask); err != nil {
		return nil, err
	}
	return g.tasks.CreateTask(ctx, in)
}

func (g *Gateway) ToggleTask(ctx context.Context, in task.ToggleTaskInput) error {
	if err := access.Require(ctx, access.ActionToggleTask); err != nil {
		return err
	}
	return g.tasks.ToggleTaskCompletion(ctx, in)
}

func (g *Gateway) DeleteTask(ctx context.Context, in task.DeleteTaskInput) error {
	if err := access.Require(ctx, access.ActionDeleteTask); err != nil {
		return err
	}
	return g.tasks.DeleteTask(ctx, in)
}

func (g *Gateway) CreatePenalty(ctx context.Context, in penalty.CreatePenaltyInput) (*penalty.Penalty, error) {
	if err := access.Require(ctx, access.ActionCreatePenalty); err != nil {
		return nil, err
	}
	return g.penalties.CreatePenalty(ctx, in)
}

func (g *Gateway) DeletePenalty(ctx context.Context, in penalty.DeletePenaltyInput) error {
	if err := access.Require(ctx, access.ActionDeletePenalty); err != nil {
		return err
	}
	return g.penalties.DeletePenalty(ctx, in)
}
