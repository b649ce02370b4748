package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// ServerService manages server environments and what runs on them.
type ServerService struct {
	repo  ports.ServerRepository
	audit *AuditRecorder
}

func NewServerService(repo ports.ServerRepository, audit *AuditRecorder) *ServerService {
	return &ServerService{repo: repo, audit: audit}
}

func (s *ServerService) Create(ctx context.Context, srv domain.Server) (domain.Server, error) {
	if err := srv.Validate(); err != nil {
		return domain.Server{}, err
	}
	now := time.Now().UTC()
	srv.CreatedAt = now
	srv.UpdatedAt = now
	srv.CreatedByID = currentActorID(ctx)
	srv.UpdatedByID = srv.CreatedByID

	if err := s.repo.Create(ctx, &srv); err != nil {
		return domain.Server{}, fmt.Errorf("create server: %w", err)
	}
	s.audit.RecordCreate(ctx, srv)
	return srv, nil
}

func (s *ServerService) Update(ctx context.Context, id int64, in domain.Server) (domain.Server, error) {
	srv, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Server{}, err
	}
	prev := domain.CaptureSnapshot(srv.AuditFields())

	srv.Name = in.Name
	srv.Hostname = in.Hostname
	srv.IPAddress = in.IPAddress
	srv.EnvironmentType = in.EnvironmentType
	srv.OS = in.OS
	srv.OSVersion = in.OSVersion
	srv.CloudPlatformID = in.CloudPlatformID
	srv.CloudInstanceID = in.CloudInstanceID
	srv.CloudRegion = in.CloudRegion
	srv.CPUCores = in.CPUCores
	srv.MemoryGB = in.MemoryGB
	srv.StorageGB = in.StorageGB
	srv.Active = in.Active
	srv.Notes = in.Notes
	srv.ManagerNotes = in.ManagerNotes

	if err := srv.Validate(); err != nil {
		return domain.Server{}, err
	}
	srv.UpdatedAt = time.Now().UTC()
	srv.UpdatedByID = currentActorID(ctx)

	if err := s.repo.Save(ctx, &srv); err != nil {
		return domain.Server{}, fmt.Errorf("save server: %w", err)
	}
	s.audit.RecordUpdate(ctx, srv, prev)
	return srv, nil
}

func (s *ServerService) Get(ctx context.Context, id int64) (domain.Server, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServerService) List(ctx context.Context) ([]domain.Server, error) {
	return s.repo.List(ctx)
}

func (s *ServerService) Delete(ctx context.Context, id int64) error {
	srv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	s.audit.RecordDelete(ctx, srv)
	return nil
}

func (s *ServerService) CreateInstallation(ctx context.Context, inst domain.LanguageInstallation) (domain.LanguageInstallation, error) {
	if err := inst.Validate(); err != nil {
		return domain.LanguageInstallation{}, err
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	inst.CreatedByID = currentActorID(ctx)
	inst.UpdatedByID = inst.CreatedByID

	if err := s.repo.CreateInstallation(ctx, &inst); err != nil {
		return domain.LanguageInstallation{}, fmt.Errorf("create installation: %w", err)
	}
	s.audit.RecordCreate(ctx, inst)
	return inst, nil
}

func (s *ServerService) UpdateInstallation(ctx context.Context, id int64, in domain.LanguageInstallation) (domain.LanguageInstallation, error) {
	inst, err := s.repo.GetInstallation(ctx, id)
	if err != nil {
		return domain.LanguageInstallation{}, err
	}
	prev := domain.CaptureSnapshot(inst.AuditFields())

	inst.ServerID = in.ServerID
	inst.LanguageID = in.LanguageID
	inst.Version = in.Version
	inst.Path = in.Path
	inst.Default = in.Default
	inst.Notes = in.Notes
	inst.ManagerNotes = in.ManagerNotes

	if err := inst.Validate(); err != nil {
		return domain.LanguageInstallation{}, err
	}
	inst.UpdatedAt = time.Now().UTC()
	inst.UpdatedByID = currentActorID(ctx)

	if err := s.repo.SaveInstallation(ctx, &inst); err != nil {
		return domain.LanguageInstallation{}, fmt.Errorf("save installation: %w", err)
	}
	s.audit.RecordUpdate(ctx, inst, prev)
	return inst, nil
}

func (s *ServerService) GetInstallation(ctx context.Context, id int64) (domain.LanguageInstallation, error) {
	return s.repo.GetInstallation(ctx, id)
}

func (s *ServerService) ListInstallations(ctx context.Context, serverID int64) ([]domain.LanguageInstallation, error) {
	return s.repo.ListInstallations(ctx, serverID)
}

func (s *ServerService) DeleteInstallation(ctx context.Context, id int64) error {
	inst, err := s.repo.GetInstallation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteInstallation(ctx, id); err != nil {
		return fmt.Errorf("delete installation: %w", err)
	}
	s.audit.RecordDelete(ctx, inst)
	return nil
}

func (s *ServerService) CreateInstance(ctx context.Context, inst domain.DatastoreInstance) (domain.DatastoreInstance, error) {
	if err := inst.Validate(); err != nil {
		return domain.DatastoreInstance{}, err
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	inst.CreatedByID = currentActorID(ctx)
	inst.UpdatedByID = inst.CreatedByID

	if err := s.repo.CreateInstance(ctx, &inst); err != nil {
		return domain.DatastoreInstance{}, fmt.Errorf("create instance: %w", err)
	}
	s.audit.RecordCreate(ctx, inst)
	return inst, nil
}

func (s *ServerService) UpdateInstance(ctx context.Context, id int64, in domain.DatastoreInstance) (domain.DatastoreInstance, error) {
	inst, err := s.repo.GetInstance(ctx, id)
	if err != nil {
		return domain.DatastoreInstance{}, err
	}
	prev := domain.CaptureSnapshot(inst.AuditFields())

	inst.ServerID = in.ServerID
	inst.DatastoreID = in.DatastoreID
	inst.Version = in.Version
	inst.InstanceName = in.InstanceName
	inst.Port = in.Port
	inst.Connection = in.Connection
	inst.Active = in.Active
	inst.Notes = in.Notes
	inst.ManagerNotes = in.ManagerNotes

	if err := inst.Validate(); err != nil {
		return domain.DatastoreInstance{}, err
	}
	inst.UpdatedAt = time.Now().UTC()
	inst.UpdatedByID = currentActorID(ctx)

	if err := s.repo.SaveInstance(ctx, &inst); err != nil {
		return domain.DatastoreInstance{}, fmt.Errorf("save instance: %w", err)
	}
	s.audit.RecordUpdate(ctx, inst, prev)
	return inst, nil
}

func (s *ServerService) GetInstance(ctx context.Context, id int64) (domain.DatastoreInstance, error) {
	return s.repo.GetInstance(ctx, id)
}

func (s *ServerService) ListInstances(ctx context.Context, serverID int64) ([]domain.DatastoreInstance, error) {
	return s.repo.ListInstances(ctx, serverID)
}

func (s *ServerService) DeleteInstance(ctx context.Context, id int64) error {
	inst, err := s.repo.GetInstance(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteInstance(ctx, id); err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	s.audit.RecordDelete(ctx, inst)
	return nil
}
