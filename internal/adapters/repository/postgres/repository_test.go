package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ogurasousui/taskvault/internal/core/apperr"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
)

var documentColumns = []string{"id", "data", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func expectMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_CreateAppliesDocumentShape(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO employees \(id, data, created_at\)`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), nil).
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("e1", []byte(`{"fullName":"Иван","position":"Повар","basePremium":1500,"isActive":true,"task":"","telegramId":""}`), now))

	created, err := repo.Create(context.Background(), &employee.Employee{
		FullName:    "Иван",
		Position:    "Повар",
		BasePremium: 1500,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "e1" || created.FullName != "Иван" || created.BasePremium != 1500 || !created.IsActive {
		t.Fatalf("unexpected employee: %+v", created)
	}

	expectMet(t, mock)
}

func TestEmployeeRepository_FindByIDAppliesDefaults(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`FROM employees`).
		WithArgs("e1").
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("e1", []byte(`{"fullName":"Анна","basePremium":"200","telegramId":42}`), time.Now()))

	got, err := repo.FindByID(context.Background(), "e1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if got.Position != employee.DefaultPosition {
		t.Errorf("expected default position, got %q", got.Position)
	}
	if !got.IsActive {
		t.Errorf("expected isActive default true")
	}
	if got.BasePremium != 200 {
		t.Errorf("expected premium coerced from string, got %v", got.BasePremium)
	}
	if got.TelegramID != "42" {
		t.Errorf("expected telegram id coerced from number, got %q", got.TelegramID)
	}

	expectMet(t, mock)
}

func TestEmployeeRepository_FindByIDNotFound(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`FROM employees`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestEmployeeRepository_ListByTelegramID(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`WHERE data ->> 'telegramId' = \$1 AND COALESCE\(data ->> 'isActive', 'true'\) <> 'false'\s+ORDER BY created_at, id`).
		WithArgs("42").
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("e1", []byte(`{"fullName":"Анна","telegramId":"42"}`), time.Now()))

	got, err := repo.List(context.Background(), employee.ListEmployeesFilter{TelegramID: "42", ActiveOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("unexpected employees: %+v", got)
	}

	expectMet(t, mock)
}

func TestEmployeeRepository_ListSkipsMalformedDocument(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	mock := newMock(t)
	repo := NewEmployeeRepository(mock, WithLogger(zap.New(core)))

	mock.ExpectQuery(`FROM employees`).
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("e1", []byte(`{"fullName":"Анна"}`), time.Now()).
			AddRow("e2", []byte(`{"basePremium":"lots"}`), time.Now()).
			AddRow("e3", []byte(`{"fullName":"Олег"}`), time.Now()))

	got, err := repo.List(context.Background(), employee.ListEmployeesFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e3" {
		t.Fatalf("unexpected employees: %+v", got)
	}

	entries := logs.FilterMessage("skipping malformed document").All()
	if len(entries) != 1 || entries[0].ContextMap()["id"] != "e2" {
		t.Fatalf("expected one warning for e2, got %+v", entries)
	}

	expectMet(t, mock)
}

func TestEmployeeRepository_FindByIDMalformedDocument(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`FROM employees`).
		WithArgs("e2").
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("e2", []byte(`{"basePremium":"lots"}`), time.Now()))

	if _, err := repo.FindByID(context.Background(), "e2"); !errors.Is(err, apperr.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestTaskRepository_ListSkipsMalformedDocument(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(`FROM tasks`).
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("t1", []byte(`{"title":"ok","employeeId":"e1"}`), time.Now()).
			AddRow("t2", []byte(`[1,2,3]`), time.Now()))

	got, err := repo.List(context.Background(), task.ListTasksFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("unexpected tasks: %+v", got)
	}
}

func TestTaskRepository_ListDayRange(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	created := from.Add(9 * time.Hour)

	mock.ExpectQuery(`WHERE data ->> 'employeeId' = \$1 AND created_at >= \$2 AND created_at < \$3`).
		WithArgs("e1", from, to).
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("t1", []byte(`{"title":"Уборка","employeeId":"e1"}`), created))

	got, err := repo.List(context.Background(), task.ListTasksFilter{EmployeeID: "e1", CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 task, got %d", len(got))
	}
	if got[0].Completed {
		t.Errorf("expected completed default false")
	}
	if !got[0].CreatedAt.Equal(created) {
		t.Errorf("expected created_at fallback, got %v", got[0].CreatedAt)
	}

	expectMet(t, mock)
}

func TestTaskRepository_SetCompletedPatchesOnlyCompleted(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(`SET data = data \|\| \$2::jsonb`).
		WithArgs("t1", []byte(`{"completed":true}`)).
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("t1", []byte(`{"title":"x","completed":true}`), time.Now()))

	if err := repo.SetCompleted(context.Background(), "t1", true); err != nil {
		t.Fatalf("SetCompleted returned error: %v", err)
	}

	expectMet(t, mock)
}

func TestTaskRepository_DeleteMissing(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "gone"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	expectMet(t, mock)
}

func TestPenaltyRepository_CreateAndDelete(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewPenaltyRepository(mock)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO penalties`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), now).
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("p1", []byte(`{"title":"Опоздание до 15 минут","type":"Мелкое","comment":"","employeeId":"emp-42","createdAt":"2025-03-10T09:00:00Z"}`), now))
	mock.ExpectExec(`DELETE FROM penalties`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	created, err := repo.Create(context.Background(), &penalty.Penalty{
		Title:      "Опоздание до 15 минут",
		Type:       penalty.LabelMinor,
		CreatedAt:  now,
		EmployeeID: "emp-42",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Severity() != penalty.SeverityMinor || created.EmployeeID != "emp-42" {
		t.Fatalf("unexpected penalty: %+v", created)
	}

	if err := repo.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	expectMet(t, mock)
}

func TestRoleRepository_CreateIfAbsent(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewRoleRepository(mock)
	seen := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("42", pgxmock.AnyArg(), seen).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("42", pgxmock.AnyArg(), seen).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	rec := &role.Record{CallerID: "42", Role: role.RoleEmployee, LastSeen: seen}

	created, err := repo.CreateIfAbsent(context.Background(), rec)
	if err != nil || !created {
		t.Fatalf("expected first create to succeed, got %v %v", created, err)
	}
	created, err = repo.CreateIfAbsent(context.Background(), rec)
	if err != nil || created {
		t.Fatalf("expected second create to be a no-op, got %v %v", created, err)
	}

	expectMet(t, mock)
}

func TestRoleRepository_FindByIDNormalizesRole(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewRoleRepository(mock)

	mock.ExpectQuery(`FROM users`).
		WithArgs("42").
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow("42", []byte(`{"role":" admin "}`), time.Now()))

	rec, err := repo.FindByID(context.Background(), "42")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if rec.Role != role.RoleAdmin {
		t.Fatalf("expected ADMIN, got %q", rec.Role)
	}

	expectMet(t, mock)
}

func TestTranslatePgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translatePgError(pgx.ErrNoRows, task.ErrTaskNotFound), task.ErrTaskNotFound) {
		t.Fatalf("expected no rows to map to not found")
	}

	pgErr := &pgconn.PgError{Code: "57P01", Message: "terminating connection"}
	if !errors.Is(translatePgError(pgErr, task.ErrTaskNotFound), apperr.ErrStoreUnavailable) {
		t.Fatalf("expected pg error to map to ErrStoreUnavailable")
	}

	if !errors.Is(translatePgError(errors.New("dial tcp"), task.ErrTaskNotFound), apperr.ErrStoreUnavailable) {
		t.Fatalf("expected transport error to map to ErrStoreUnavailable")
	}

	if translatePgError(nil, task.ErrTaskNotFound) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
