package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/taskvault/internal/core/employee"
	pgdb "github.com/ogurasousui/taskvault/internal/platform/db/postgres"
)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	docs collection
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer, opts ...Option) *EmployeeRepository {
	return &EmployeeRepository{docs: newCollection(employee.Collection, pool, opts)}
}

// Create は社員を新規作成します。ID は UUID を割り当てます。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	doc, err := r.docs.insert(ctx, uuid.NewString(), time.Time{}, toEmployeeDocument(e))
	if err != nil {
		return nil, translatePgError(err, employee.ErrEmployeeNotFound)
	}
	return fromEmployeeDocument(doc)
}

// Update は社員情報を上書きします。保存済みの未知のフィールドは保持されます。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	doc, err := r.docs.patch(ctx, e.ID, toEmployeeDocument(e))
	if err != nil {
		return nil, translatePgError(err, employee.ErrEmployeeNotFound)
	}
	return fromEmployeeDocument(doc)
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	doc, err := r.docs.get(ctx, id)
	if err != nil {
		return nil, translatePgError(err, employee.ErrEmployeeNotFound)
	}
	return fromEmployeeDocument(doc)
}

// List は社員の一覧を作成順で取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	var w where
	if filter.TelegramID != "" {
		w.fieldEquals("telegramId", filter.TelegramID)
	}
	if filter.ActiveOnly {
		w.raw("COALESCE(data ->> 'isActive', 'true') <> 'false'")
	}

	docs, err := r.docs.list(ctx, w)
	if err != nil {
		return nil, translatePgError(err, employee.ErrEmployeeNotFound)
	}

	return decodeList(r.docs, docs, fromEmployeeDocument), nil
}

func toEmployeeDocument(e *employee.Employee) employeeDocument {
	premium := flexNumber(e.BasePremium)
	active := flexBool(e.IsActive)
	telegramID := flexString(e.TelegramID)
	return employeeDocument{
		FullName:    ptr(e.FullName),
		Position:    ptr(e.Position),
		BasePremium: &premium,
		IsActive:    &active,
		Task:        ptr(e.Task),
		TelegramID:  &telegramID,
	}
}

func fromEmployeeDocument(doc document) (*employee.Employee, error) {
	var d employeeDocument
	if err := decodeDocument(employee.Collection, doc, &d); err != nil {
		return nil, err
	}

	position := stringOr(d.Position, "")
	if position == "" {
		position = employee.DefaultPosition
	}

	var premium float64
	if d.BasePremium != nil && *d.BasePremium >= 0 {
		premium = float64(*d.BasePremium)
	}

	return &employee.Employee{
		ID:          doc.ID,
		FullName:    stringOr(d.FullName, ""),
		Position:    position,
		BasePremium: premium,
		IsActive:    boolOr(d.IsActive, true),
		Task:        stringOr(d.Task, ""),
		TelegramID:  flexStringOr(d.TelegramID, ""),
	}, nil
}
