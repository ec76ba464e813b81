package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/ogurasousui/taskvault/internal/core/task"
	pgdb "github.com/ogurasousui/taskvault/internal/platform/db/postgres"
)

// TaskRepository は PostgreSQL を利用したタスク永続化の実装です。
type TaskRepository struct {
	docs collection
}

// NewTaskRepository は TaskRepository を生成します。
func NewTaskRepository(pool pgdb.Queryer, opts ...Option) *TaskRepository {
	return &TaskRepository{docs: newCollection(task.Collection, pool, opts)}
}

// Create はタスクを新規作成します。
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	completed := flexBool(t.Completed)
	employeeID := flexString(t.EmployeeID)
	createdAt := t.CreatedAt.UTC()

	doc, err := r.docs.insert(ctx, uuid.NewString(), t.CreatedAt, taskDocument{
		Title:      ptr(t.Title),
		Completed:  &completed,
		CreatedAt:  &createdAt,
		EmployeeID: &employeeID,
	})
	if err != nil {
		return nil, translatePgError(err, task.ErrTaskNotFound)
	}
	return fromTaskDocument(doc)
}

// SetCompleted は completed フィールドだけを書き換えます。
func (r *TaskRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	v := flexBool(completed)
	_, err := r.docs.patch(ctx, id, taskDocument{Completed: &v})
	return translatePgError(err, task.ErrTaskNotFound)
}

// Delete はタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.docs.remove(ctx, id)
	if err != nil {
		return translatePgError(err, task.ErrTaskNotFound)
	}
	if !deleted {
		return task.ErrTaskNotFound
	}
	return nil
}

// List はタスクの一覧を作成順で取得します。
func (r *TaskRepository) List(ctx context.Context, filter task.ListTasksFilter) ([]*task.Task, error) {
	var w where
	if filter.EmployeeID != "" {
		w.fieldEquals("employeeId", filter.EmployeeID)
	}
	if filter.CreatedFrom != nil {
		w.createdFrom(*filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.createdBefore(*filter.CreatedTo)
	}

	docs, err := r.docs.list(ctx, w)
	if err != nil {
		return nil, translatePgError(err, task.ErrTaskNotFound)
	}

	return decodeList(r.docs, docs, fromTaskDocument), nil
}

func fromTaskDocument(doc document) (*task.Task, error) {
	var d taskDocument
	if err := decodeDocument(task.Collection, doc, &d); err != nil {
		return nil, err
	}

	createdAt := doc.CreatedAt
	if d.CreatedAt != nil {
		createdAt = *d.CreatedAt
	}

	return &task.Task{
		ID:         doc.ID,
		Title:      stringOr(d.Title, ""),
		Completed:  boolOr(d.Completed, false),
		CreatedAt:  createdAt,
		EmployeeID: flexStringOr(d.EmployeeID, ""),
	}, nil
}
