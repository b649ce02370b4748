package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// UserService manages operator profiles.
//
// Documentation access grants are asymmetric on purpose, matching
// long-standing policy: application admins have access re-asserted on every
// save (non-revokable), while systems managers are granted access only when
// the profile is created, so it can be revoked later.
type UserService struct {
	repo  ports.UserRepository
	audit *AuditRecorder
}

func NewUserService(repo ports.UserRepository, audit *AuditRecorder) *UserService {
	return &UserService{repo: repo, audit: audit}
}

func (s *UserService) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if err := user.Validate(); err != nil {
		return domain.User{}, err
	}

	switch user.Role {
	case domain.RoleApplicationAdmin, domain.RoleSystemsManager:
		user.DocumentationAccess = true
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.CreatedByID = currentActorID(ctx)

	if err := s.repo.Create(ctx, &user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.audit.RecordCreate(ctx, user)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in domain.User) (domain.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	prev := domain.CaptureSnapshot(user.AuditFields())

	user.FullName = in.FullName
	user.Role = in.Role
	user.Active = in.Active
	user.DocumentationAccess = in.DocumentationAccess
	user.Department = in.Department
	user.Phone = in.Phone
	user.Notes = in.Notes

	// Admin access is re-asserted on every save; systems managers keep
	// whatever the flag says (creation-time grant only).
	if user.Role == domain.RoleApplicationAdmin {
		user.DocumentationAccess = true
	}

	if err := user.Validate(); err != nil {
		return domain.User{}, err
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, &user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	s.audit.RecordUpdate(ctx, user, prev)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.audit.RecordDelete(ctx, user)
	return nil
}
