package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/core/access"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/feed"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
	"github.com/ogurasousui/taskvault/internal/core/view"
)

// OpenInput はボードを開く際の入力です。
type OpenInput struct {
	// Date は当日タスクの対象日です。ゼロ値なら現在日時を使います。
	Date time.Time
	// EmployeeID は管理者向けの懲戒集計の対象社員です。空なら集計を行いません。
	EmployeeID string
}

// BoardHandle は開いたボードです。Close で全ての購読を解放します。
type BoardHandle struct {
	board *view.Board
	subs  []*feed.Subscription
	once  sync.Once
}

// Snapshot は最新のビューを返します。
func (h *BoardHandle) Snapshot() view.Snapshot {
	return h.board.Snapshot()
}

// Close は全ての購読を解除します。複数回呼び出しても安全です。
// 戻った後に onSnapshot が呼ばれることはありません。
func (h *BoardHandle) Close() {
	h.once.Do(func() {
		for _, sub := range h.subs {
			sub.Unsubscribe()
		}
	})
}

// Open はコンテキストのセッションの実効ロールに応じた購読を開き、
// いずれかが通知するたびに再計算したスナップショットを onSnapshot へ渡します。
// onSnapshot は直列に呼ばれます。最初の呼び出しは Open から戻る前に行われます。
func (s *Service) Open(ctx context.Context, in OpenInput, onSnapshot func(view.Snapshot)) (*BoardHandle, error) {
	sess, ok := access.FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	date := in.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	from, to := task.DayRange(date, s.location)

	var (
		cfg        view.BoardConfig
		employeeID string
	)
	switch sess.EffectiveRole() {
	case role.RoleAdmin, role.RoleManager:
		cfg.Sources = []view.Source{view.SourceEmployees, view.SourceTasks, view.SourceDayTasks, view.SourcePenalties}
		cfg.EmployeeID = in.EmployeeID
	default:
		emp, err := s.profileFor(ctx, sess)
		if err != nil {
			return nil, err
		}
		if emp == nil {
			cfg.NoProfile = true
			break
		}
		employeeID = emp.ID
		cfg.EmployeeID = emp.ID
		cfg.Sources = []view.Source{view.SourceDayTasks, view.SourcePenalties}
	}

	board := view.NewBoard(sess, cfg, onSnapshot)
	if onSnapshot != nil {
		onSnapshot(board.Snapshot())
	}

	handle := &BoardHandle{board: board}
	opts := []feed.Option{feed.WithLogger(s.logger.With(zap.String("session_id", sess.ID)))}

	for _, source := range cfg.Sources {
		var sub *feed.Subscription
		switch source {
		case view.SourceEmployees:
			sub = feed.Subscribe(ctx, s.hub, employee.Collection, func(ctx context.Context) ([]*employee.Employee, error) {
				return s.employees.ListEmployees(ctx, employee.ListEmployeesInput{})
			}, board.SetEmployees, opts...)
		case view.SourceTasks:
			sub = feed.Subscribe(ctx, s.hub, task.Collection, func(ctx context.Context) ([]*task.Task, error) {
				return s.tasks.ListTasks(ctx, task.ListTasksInput{})
			}, board.SetTasks, opts...)
		case view.SourceDayTasks:
			sub = feed.Subscribe(ctx, s.hub, task.Collection, func(ctx context.Context) ([]*task.Task, error) {
				return s.tasks.ListTasks(ctx, task.ListTasksInput{
					EmployeeID:  employeeID,
					CreatedFrom: &from,
					CreatedTo:   &to,
				})
			}, board.SetDayTasks, opts...)
		case view.SourcePenalties:
			sub = feed.Subscribe(ctx, s.hub, penalty.Collection, func(ctx context.Context) ([]*penalty.Penalty, error) {
				return s.penalties.ListPenalties(ctx, penalty.ListPenaltiesInput{EmployeeID: employeeID})
			}, board.SetPenalties, opts...)
		}
		handle.subs = append(handle.subs, sub)
	}

	return handle, nil
}
