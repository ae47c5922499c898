package core

const (
	// RoleTeacher sees and submits the attendance of their own class only.
	RoleTeacher = "teacher"
	// RolePrincipal sees the whole school.
	RolePrincipal = "principal"
)

func ValidRole(role string) bool {
	return role == RoleTeacher || role == RolePrincipal
}
