package rbac

import "testing"

func TestCanMatrix(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionRead, true},
		{RoleAdmin, ActionWrite, true},
		{RoleAdmin, ActionManage, true},
		{RoleManager, ActionRead, true},
		{RoleManager, ActionWrite, true},
		{RoleManager, ActionManage, false},
		{RoleWaiter, ActionRead, true},
		{RoleWaiter, ActionWrite, false},
		{RoleWaiter, ActionManage, false},
		{Role("intruder"), ActionRead, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.action); got != tc.want {
			t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestNormalizeDefaultsToWaiter(t *testing.T) {
	if Normalize("manager") != RoleManager {
		t.Fatalf("manager should normalize to itself")
	}
	if Normalize("") != RoleWaiter {
		t.Fatalf("empty role should normalize to waiter")
	}
	if Normalize("superuser") != RoleWaiter {
		t.Fatalf("unknown role should normalize to waiter")
	}
}
