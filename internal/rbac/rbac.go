package rbac

type Role string
type Action string

const (
	RoleWaiter  Role = "waiter"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionManage Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action == ActionRead || action == ActionWrite
	case RoleWaiter:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleWaiter, RoleManager, RoleAdmin:
		return Role(role)
	default:
		return RoleWaiter
	}
}
