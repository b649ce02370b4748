package domain

import (
	"fmt"
	"time"
)

const (
	RoleApplicationAdmin = "application_admin"
	RoleSystemsManager   = "systems_manager"
	RoleTechnician       = "technician"
	RoleBusinessManager  = "business_manager"
	RoleBusinessUser     = "business_user"
)

var UserRoles = []Choice{
	{Value: RoleApplicationAdmin, Label: "Application Admin"},
	{Value: RoleSystemsManager, Label: "Systems Manager"},
	{Value: RoleTechnician, Label: "Technician"},
	{Value: RoleBusinessManager, Label: "Business Manager"},
	{Value: RoleBusinessUser, Label: "Business User"},
}

// User is an operator profile with role-based access.
type User struct {
	ID                  int64
	Username            string
	FullName            string
	Role                string
	Active              bool
	DocumentationAccess bool
	Department          string
	Phone               string
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CreatedByID         *int64
}

func (u User) Validate() error {
	if err := requireUsername("username", u.Username); err != nil {
		return err
	}
	return requireChoice("role", u.Role, UserRoles)
}

func (u User) CanManageUsers() bool {
	return u.Role == RoleApplicationAdmin
}

func (u User) CanViewSystemNotes() bool {
	return u.Role == RoleApplicationAdmin || u.Role == RoleSystemsManager
}

func (u User) CanCreateRecords() bool {
	return u.Role == RoleApplicationAdmin || u.Role == RoleSystemsManager
}

func (u User) CanDeleteRecords() bool {
	return u.Role == RoleApplicationAdmin || u.Role == RoleSystemsManager
}

func (u User) HasWriteAccess() bool {
	return u.Role == RoleApplicationAdmin || u.Role == RoleSystemsManager || u.Role == RoleTechnician
}

// CanAccessDocumentation reports documentation access. Application admins
// always have it regardless of the stored flag.
func (u User) CanAccessDocumentation() bool {
	if u.Role == RoleApplicationAdmin {
		return true
	}
	return u.DocumentationAccess
}

func (u User) AuditKind() string { return "accounts.User" }
func (u User) AuditID() string   { return fmt.Sprintf("%d", u.ID) }

func (u User) AuditLabel() string {
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	label, _ := ChoiceLabel(UserRoles, u.Role)
	return fmt.Sprintf("%s (%s)", name, label)
}

func (u User) AuditFields() map[string]any {
	return map[string]any{
		"username":             u.Username,
		"full_name":            u.FullName,
		"role":                 u.Role,
		"is_active":            u.Active,
		"documentation_access": u.DocumentationAccess,
		"department":           u.Department,
		"phone":                u.Phone,
		"notes":                u.Notes,
		"created_by":           u.CreatedByID,
	}
}

func (User) AuditMeta() map[string]FieldMeta {
	return map[string]FieldMeta{
		"username":             {Kind: FieldText},
		"full_name":            {Kind: FieldText},
		"role":                 {Kind: FieldChoice, Choices: UserRoles},
		"is_active":            {Kind: FieldBool},
		"documentation_access": {Kind: FieldBool},
		"department":           {Kind: FieldText},
		"phone":                {Kind: FieldText},
		"notes":                {Kind: FieldText},
		"created_by":           {Kind: FieldRelation, Relation: "accounts.User"},
	}
}

// UserToken authenticates API requests on behalf of a user.
type UserToken struct {
	TokenHash string
	UserID    int64
	Name      string
	Active    bool
	CreatedAt time.Time
}
