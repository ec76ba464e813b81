package task

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service はタスクに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase はタスクユースケースの公開インターフェースです。
type UseCase interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error)
	ToggleTaskCompletion(ctx context.Context, in ToggleTaskInput) error
	DeleteTask(ctx context.Context, in DeleteTaskInput) error
	ListTasks(ctx context.Context, in ListTasksInput) ([]*Task, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateTaskInput はタスク作成時の入力です。
type CreateTaskInput struct {
	Title      string
	EmployeeID string
}

// ToggleTaskInput は完了状態切り替え時の入力です。Current は画面上の現在値です。
type ToggleTaskInput struct {
	ID      string
	Current bool
}

// DeleteTaskInput はタスク削除時の入力です。
type DeleteTaskInput struct {
	ID string
}

// ListTasksInput は一覧取得時の入力です。
type ListTasksInput struct {
	EmployeeID  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CreateTask は未完了のタスクを作成します。
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrInvalidEmployeeID
	}

	return s.repo.Create(ctx, &Task{
		Title:      title,
		Completed:  false,
		CreatedAt:  s.clock.Now(),
		EmployeeID: employeeID,
	})
}

// ToggleTaskCompletion は Current の否定を無条件に書き込みます。
// 楽観ロックは行わず、同時に切り替えた場合は最後の書き込みが残ります。
func (s *Service) ToggleTaskCompletion(ctx context.Context, in ToggleTaskInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return ErrInvalidID
	}
	return s.repo.SetCompleted(ctx, id, !in.Current)
}

// DeleteTask はタスクを削除します。既に存在しない場合も成功として扱います。
func (s *Service) DeleteTask(ctx context.Context, in DeleteTaskInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return ErrInvalidID
	}

	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrTaskNotFound) {
		return err
	}
	return nil
}

// ListTasks はタスクの一覧をストア順で取得します。
func (s *Service) ListTasks(ctx context.Context, in ListTasksInput) ([]*Task, error) {
	if in.CreatedFrom != nil && in.CreatedTo != nil && !in.CreatedFrom.Before(*in.CreatedTo) {
		return nil, ErrInvalidDateRange
	}

	return s.repo.List(ctx, ListTasksFilter{
		EmployeeID:  strings.TrimSpace(in.EmployeeID),
		CreatedFrom: in.CreatedFrom,
		CreatedTo:   in.CreatedTo,
	})
}

// DayRange は date を含む日の [開始, 翌日開始) を loc の暦で返します。
func DayRange(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := date.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
