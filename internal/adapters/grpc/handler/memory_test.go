package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/feed"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
)

// memDB はテスト用のメモリ上のストアです。書き込みのたびに hub へ変更を通知します。
type memDB struct {
	mu        sync.Mutex
	hub       *feed.Hub
	seq       int
	employees []*employee.Employee
	tasks     []*task.Task
	penalties []*penalty.Penalty
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

type memEmployees struct{ db *memDB }

func (r memEmployees) Create(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	r.db.mu.Lock()
	clone := *e
	clone.ID = r.db.nextID("e")
	r.db.employees = append(r.db.employees, &clone)
	r.db.mu.Unlock()
	r.db.hub.Publish(employee.Collection)
	out := clone
	return &out, nil
}

func (r memEmployees) Update(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	r.db.mu.Lock()
	defer r.db.hub.Publish(employee.Collection)
	defer r.db.mu.Unlock()
	for i, existing := range r.db.employees {
		if existing.ID == e.ID {
			clone := *e
			r.db.employees[i] = &clone
			out := clone
			return &out, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (r memEmployees) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.employees {
		if e.ID == id {
			out := *e
			return &out, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (r memEmployees) List(_ context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*employee.Employee
	for _, e := range r.db.employees {
		if filter.TelegramID != "" && e.TelegramID != filter.TelegramID {
			continue
		}
		if filter.ActiveOnly && !e.IsActive {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

type memTasks struct{ db *memDB }

func (r memTasks) Create(_ context.Context, t *task.Task) (*task.Task, error) {
	r.db.mu.Lock()
	clone := *t
	clone.ID = r.db.nextID("t")
	r.db.tasks = append(r.db.tasks, &clone)
	r.db.mu.Unlock()
	r.db.hub.Publish(task.Collection)
	out := clone
	return &out, nil
}

func (r memTasks) SetCompleted(_ context.Context, id string, completed bool) error {
	r.db.mu.Lock()
	found := false
	for _, t := range r.db.tasks {
		if t.ID == id {
			t.Completed = completed
			found = true
		}
	}
	r.db.mu.Unlock()
	if !found {
		return task.ErrTaskNotFound
	}
	r.db.hub.Publish(task.Collection)
	return nil
}

func (r memTasks) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	for i, t := range r.db.tasks {
		if t.ID == id {
			r.db.tasks = append(r.db.tasks[:i], r.db.tasks[i+1:]...)
			r.db.mu.Unlock()
			r.db.hub.Publish(task.Collection)
			return nil
		}
	}
	r.db.mu.Unlock()
	return task.ErrTaskNotFound
}

func (r memTasks) List(_ context.Context, filter task.ListTasksFilter) ([]*task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*task.Task
	for _, t := range r.db.tasks {
		if filter.EmployeeID != "" && t.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.CreatedFrom != nil && t.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && !t.CreatedAt.Before(*filter.CreatedTo) {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

type memPenalties struct{ db *memDB }

func (r memPenalties) Create(_ context.Context, p *penalty.Penalty) (*penalty.Penalty, error) {
	r.db.mu.Lock()
	clone := *p
	clone.ID = r.db.nextID("p")
	r.db.penalties = append(r.db.penalties, &clone)
	r.db.mu.Unlock()
	r.db.hub.Publish(penalty.Collection)
	out := clone
	return &out, nil
}

func (r memPenalties) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	for i, p := range r.db.penalties {
		if p.ID == id {
			r.db.penalties = append(r.db.penalties[:i], r.db.penalties[i+1:]...)
			r.db.mu.Unlock()
			r.db.hub.Publish(penalty.Collection)
			return nil
		}
	}
	r.db.mu.Unlock()
	return penalty.ErrPenaltyNotFound
}

func (r memPenalties) List(_ context.Context, filter penalty.ListPenaltiesFilter) ([]*penalty.Penalty, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*penalty.Penalty
	for _, p := range r.db.penalties {
		if filter.EmployeeID != "" && p.EmployeeID != filter.EmployeeID {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

type staticRoles map[string]role.Role

func (r staticRoles) ResolveRole(_ context.Context, callerID string) role.Role {
	if got, ok := r[callerID]; ok {
		return got
	}
	return role.Default
}

type memOverrides struct {
	mu     sync.Mutex
	values map[string]role.Role
}

func (m *memOverrides) GetOverride(_ context.Context, sessionID string) (role.Role, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.values[sessionID]
	return r, ok, nil
}

func (m *memOverrides) SetOverride(_ context.Context, sessionID string, r role.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[sessionID] = r
	return nil
}

func (m *memOverrides) ClearOverride(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, sessionID)
	return nil
}
