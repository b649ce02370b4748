package usecase

import (
	"context"
	"testing"

	"github.com/opsenary/apptracker/internal/core/domain"
)

type stubUserRepo struct {
	users  map[int64]domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[int64]domain.User{}, nextID: 1}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Get(_ context.Context, id int64) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *stubUserRepo) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

func newUserService(t *testing.T) (*UserService, *stubSink) {
	t.Helper()
	sink := &stubSink{}
	recorder := NewAuditRecorder(sink, &stubResolver{}, nil, nil, discardLogger())
	return NewUserService(newStubUserRepo(), recorder), sink
}

func TestUserCreateGrantsDocumentationAccess(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := actorContext("root", 1, domain.RoleApplicationAdmin)

	cases := []struct {
		role string
		want bool
	}{
		{domain.RoleApplicationAdmin, true},
		{domain.RoleSystemsManager, true},
		{domain.RoleTechnician, false},
		{domain.RoleBusinessManager, false},
	}
	for _, tc := range cases {
		user, err := svc.Create(ctx, domain.User{Username: "u_" + tc.role, Role: tc.role})
		if err != nil {
			t.Fatalf("create %s: %v", tc.role, err)
		}
		if user.DocumentationAccess != tc.want {
			t.Fatalf("role %s: documentation access = %v, want %v", tc.role, user.DocumentationAccess, tc.want)
		}
	}
}

func TestUserUpdateReassertsAdminAccess(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := actorContext("root", 1, domain.RoleApplicationAdmin)

	created, err := svc.Create(ctx, domain.User{Username: "admin1", Role: domain.RoleApplicationAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// an attempt to revoke the flag on an admin is overridden on save
	in := created
	in.DocumentationAccess = false
	updated, err := svc.Update(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.DocumentationAccess {
		t.Fatal("admin documentation access must be re-asserted on every save")
	}
}

func TestUserUpdateAllowsRevokingManagerAccess(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := actorContext("root", 1, domain.RoleApplicationAdmin)

	created, err := svc.Create(ctx, domain.User{Username: "mgr1", Role: domain.RoleSystemsManager})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.DocumentationAccess {
		t.Fatal("systems manager must receive access at creation")
	}

	// the creation-time grant is revokable on later saves
	in := created
	in.DocumentationAccess = false
	updated, err := svc.Update(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DocumentationAccess {
		t.Fatal("systems manager access must stay revokable after creation")
	}
}

func TestUserWritesAreAudited(t *testing.T) {
	svc, sink := newUserService(t)
	ctx := actorContext("root", 1, domain.RoleApplicationAdmin)

	created, err := svc.Create(ctx, domain.User{Username: "tech1", Role: domain.RoleTechnician})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := created
	in.Department = "Platform"
	if _, err := svc.Update(ctx, created.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events := sink.all()
	if len(events) != 3 {
		t.Fatalf("expected CREATE, UPDATE, DELETE events, got %d", len(events))
	}
	if events[0].Action != domain.ActionCreate || events[1].Action != domain.ActionUpdate || events[2].Action != domain.ActionDelete {
		t.Fatalf("unexpected action sequence: %v %v %v", events[0].Action, events[1].Action, events[2].Action)
	}
	if events[1].Model != "accounts.User" {
		t.Fatalf("model mismatch: %q", events[1].Model)
	}
	if change, ok := events[1].Changes["department"]; !ok || change.New != "Platform" {
		t.Fatalf("department change not recorded: %+v", events[1].Changes)
	}
	for _, event := range events {
		if event.User != "root" {
			t.Fatalf("actor not attributed: %+v", event)
		}
	}
}

func TestUserCreateRejectsInvalidRole(t *testing.T) {
	svc, sink := newUserService(t)
	if _, err := svc.Create(context.Background(), domain.User{Username: "x1", Role: "superuser"}); err == nil {
		t.Fatal("expected validation error for unknown role")
	}
	if len(sink.all()) != 0 {
		t.Fatal("failed create must not be audited")
	}
}
