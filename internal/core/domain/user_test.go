package domain

import "testing"

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role   string
		manage bool
		create bool
		del    bool
		write  bool
		notes  bool
	}{
		{role: RoleApplicationAdmin, manage: true, create: true, del: true, write: true, notes: true},
		{role: RoleSystemsManager, create: true, del: true, write: true, notes: true},
		{role: RoleTechnician, write: true},
		{role: RoleBusinessManager, write: true},
		{role: RoleBusinessUser},
	}

	for _, tt := range tests {
		u := User{Role: tt.role, Active: true}
		if got := u.CanManageUsers(); got != tt.manage {
			t.Errorf("%s: CanManageUsers = %v", tt.role, got)
		}
		if got := u.CanCreateRecords(); got != tt.create {
			t.Errorf("%s: CanCreateRecords = %v", tt.role, got)
		}
		if got := u.CanDeleteRecords(); got != tt.del {
			t.Errorf("%s: CanDeleteRecords = %v", tt.role, got)
		}
		if got := u.HasWriteAccess(); got != tt.write {
			t.Errorf("%s: HasWriteAccess = %v", tt.role, got)
		}
		if got := u.CanViewSystemNotes(); got != tt.notes {
			t.Errorf("%s: CanViewSystemNotes = %v", tt.role, got)
		}
	}
}

func TestAdminAlwaysHasDocumentationAccess(t *testing.T) {
	admin := User{Role: RoleApplicationAdmin, Active: true}
	if !admin.CanAccessDocumentation() {
		t.Fatal("admin must have documentation access regardless of flag")
	}

	manager := User{Role: RoleSystemsManager, Active: true}
	if manager.CanAccessDocumentation() {
		t.Fatal("manager without grant should not have documentation access")
	}
	manager.DocumentationAccess = true
	if !manager.CanAccessDocumentation() {
		t.Fatal("granted manager should have documentation access")
	}
}

func TestUserValidateRejectsUnknownRole(t *testing.T) {
	u := User{Username: "alice", Role: "superuser"}
	if err := u.Validate(); err == nil {
		t.Fatal("expected invalid role error")
	}
}
