package domain

const (
	RoleAdmin          = "admin"
	RoleCustomer       = "customer"
	RoleProductManager = "product_manager"
	RoleSalesManager   = "sales_manager"
)

// Role is an authorization level assigned to a user.
type Role struct {
	ID   int    `json:"role_id"`
	Name string `json:"role_name"`
}

// DefaultRoleID is assigned when registration does not name a role.
const DefaultRoleID = 2

var roles = map[int]Role{
	1: {ID: 1, Name: RoleAdmin},
	2: {ID: 2, Name: RoleCustomer},
	3: {ID: 3, Name: RoleProductManager},
	4: {ID: 4, Name: RoleSalesManager},
}

// RoleByID looks up a role in the fixed catalog.
func RoleByID(id int) (*Role, error) {
	r, ok := roles[id]
	if !ok {
		return nil, ErrUnknownRole
	}
	return &r, nil
}

// Roles returns the catalog ordered by id.
func Roles() []Role {
	out := make([]Role, 0, len(roles))
	for id := 1; id <= len(roles); id++ {
		out = append(out, roles[id])
	}
	return out
}
