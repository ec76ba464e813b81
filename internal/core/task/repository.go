package task

import (
	"context"
	"time"
)

// Repository はタスク永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, task *Task) (*Task, error)
	// SetCompleted は completed フィールドのみを書き換えます。
	SetCompleted(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListTasksFilter) ([]*Task, error)
}

// ListTasksFilter は一覧取得用フィルタです。作成日時は [CreatedFrom, CreatedTo) で絞り込みます。
type ListTasksFilter struct {
	EmployeeID  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
