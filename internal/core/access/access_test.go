package access

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/taskvault/internal/core/role"
)

func TestSession_EffectiveRole(t *testing.T) {
	t.Parallel()

	s := Session{Role: role.RoleEmployee}
	if s.EffectiveRole() != role.RoleEmployee {
		t.Fatalf("expected resolved role")
	}

	s.Override = role.RoleAdmin
	if s.EffectiveRole() != role.RoleAdmin {
		t.Fatalf("expected override to shadow resolved role")
	}

	if (Session{}).EffectiveRole() != role.RoleEmployee {
		t.Fatalf("expected empty session to fall back to least privilege")
	}
}

func TestGate(t *testing.T) {
	t.Parallel()

	if !Allows(role.RoleAdmin, ActionCreateEmployee) {
		t.Errorf("admin must create employees")
	}
	if Allows(role.RoleManager, ActionCreateEmployee) {
		t.Errorf("manager must not create employees")
	}
	if !Allows(role.RoleManager, ActionCreatePenalty) {
		t.Errorf("manager must create penalties")
	}
	if !Allows(role.RoleEmployee, ActionToggleTask) {
		t.Errorf("employee must toggle tasks")
	}
	if Allows(role.RoleEmployee, ActionDeleteTask) {
		t.Errorf("employee must not delete tasks")
	}
	if CanView(role.RoleEmployee, ViewRosterActive) {
		t.Errorf("employee must not see the roster")
	}
	if !CanView(role.RoleEmployee, ViewOwnPenalties) {
		t.Errorf("employee must see own penalties")
	}
	if Allows(role.Role("ROOT"), ActionToggleTask) {
		t.Errorf("unknown role must not be allowed anything")
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	if err := Require(context.Background(), ActionCreateEmployee); err != nil {
		t.Fatalf("expected internal calls without session to pass, got %v", err)
	}

	ctx := WithSession(context.Background(), Session{CallerID: "1", Role: role.RoleEmployee})
	if err := Require(ctx, ActionCreateTask); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := Require(ctx, ActionToggleTask); err != nil {
		t.Fatalf("expected toggle to be allowed, got %v", err)
	}

	got, ok := FromContext(ctx)
	if !ok || got.CallerID != "1" {
		t.Fatalf("expected session round trip, got %+v %t", got, ok)
	}
}
