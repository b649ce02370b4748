package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsenary/apptracker/internal/actorctx"
	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// ApplicationService manages tracked applications, their dependency links,
// and their lifecycle history.
type ApplicationService struct {
	repo  ports.ApplicationRepository
	audit *AuditRecorder
}

func NewApplicationService(repo ports.ApplicationRepository, audit *AuditRecorder) *ApplicationService {
	return &ApplicationService{repo: repo, audit: audit}
}

func (s *ApplicationService) Create(ctx context.Context, app domain.Application) (domain.Application, error) {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.LifecycleStage == "" {
		app.LifecycleStage = "development"
	}
	if app.Criticality == "" {
		app.Criticality = "medium"
	}
	if err := app.Validate(); err != nil {
		return domain.Application{}, err
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	app.CreatedByID = currentActorID(ctx)
	app.UpdatedByID = app.CreatedByID

	if err := s.repo.Create(ctx, &app); err != nil {
		return domain.Application{}, fmt.Errorf("create application: %w", err)
	}
	s.audit.RecordCreate(ctx, app)
	return app, nil
}

// Update replaces the application's mutable fields. A change of lifecycle
// stage additionally appends a lifecycle event recording the transition.
func (s *ApplicationService) Update(ctx context.Context, id uuid.UUID, in domain.Application) (domain.Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	prev := domain.CaptureSnapshot(app.AuditFields())
	fromStage := app.LifecycleStage

	app.Name = in.Name
	app.Description = in.Description
	app.BusinessPurpose = in.BusinessPurpose
	app.LifecycleStage = in.LifecycleStage
	app.Criticality = in.Criticality
	app.BusinessOwner = in.BusinessOwner
	app.TechnicalOwner = in.TechnicalOwner
	app.PrimaryServerID = in.PrimaryServerID
	app.Version = in.Version
	app.DeploymentPath = in.DeploymentPath
	app.UsesLDAP = in.UsesLDAP
	app.LDAPConfig = in.LDAPConfig
	app.Active = in.Active
	app.Notes = in.Notes
	app.ManagerNotes = in.ManagerNotes

	if err := app.Validate(); err != nil {
		return domain.Application{}, err
	}
	app.UpdatedAt = time.Now().UTC()
	app.UpdatedByID = currentActorID(ctx)

	if err := s.repo.Save(ctx, &app); err != nil {
		return domain.Application{}, fmt.Errorf("save application: %w", err)
	}
	s.audit.RecordUpdate(ctx, app, prev)

	if app.LifecycleStage != fromStage {
		s.recordLifecycleTransition(ctx, app, fromStage)
	}
	return app, nil
}

func (s *ApplicationService) recordLifecycleTransition(ctx context.Context, app domain.Application, fromStage string) {
	event := domain.LifecycleEvent{
		ApplicationID: app.ID,
		FromStage:     fromStage,
		ToStage:       app.LifecycleStage,
		EventDate:     time.Now().UTC(),
		PerformedByID: currentActorID(ctx),
	}
	if actor, ok := actorctx.ActorFrom(ctx); ok {
		event.PerformedBy = actor.Name
	}
	if err := s.repo.CreateLifecycleEvent(ctx, &event); err != nil {
		// Best effort; the stage change itself already committed and was
		// audited.
		return
	}
	s.audit.Record(ctx, domain.ActionCreate, "inventory.LifecycleEvent",
		fmt.Sprintf("%d", event.ID),
		fmt.Sprintf("%s: %s -> %s", app.Name, fromStage, app.LifecycleStage),
		nil,
		map[string]string{"application": app.ID.String()},
	)
}

func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (domain.Application, error) {
	return s.repo.Get(ctx, id)
}

func (s *ApplicationService) List(ctx context.Context) ([]domain.Application, error) {
	return s.repo.List(ctx)
}

func (s *ApplicationService) Delete(ctx context.Context, id uuid.UUID) error {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	s.audit.RecordDelete(ctx, app)
	return nil
}

func (s *ApplicationService) AddLanguageDependency(ctx context.Context, dep domain.LanguageDependency) (domain.LanguageDependency, error) {
	if err := dep.Validate(); err != nil {
		return domain.LanguageDependency{}, err
	}
	dep.CreatedAt = time.Now().UTC()
	dep.CreatedByID = currentActorID(ctx)

	if err := s.repo.CreateLanguageDependency(ctx, &dep); err != nil {
		return domain.LanguageDependency{}, fmt.Errorf("create language dependency: %w", err)
	}
	s.audit.RecordCreate(ctx, dep)
	return dep, nil
}

func (s *ApplicationService) ListLanguageDependencies(ctx context.Context, appID uuid.UUID) ([]domain.LanguageDependency, error) {
	return s.repo.ListLanguageDependencies(ctx, appID)
}

func (s *ApplicationService) RemoveLanguageDependency(ctx context.Context, id int64) error {
	dep, err := s.repo.GetLanguageDependency(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLanguageDependency(ctx, id); err != nil {
		return fmt.Errorf("delete language dependency: %w", err)
	}
	s.audit.RecordDelete(ctx, dep)
	return nil
}

func (s *ApplicationService) AddDatastoreDependency(ctx context.Context, dep domain.DatastoreDependency) (domain.DatastoreDependency, error) {
	if err := dep.Validate(); err != nil {
		return domain.DatastoreDependency{}, err
	}
	dep.CreatedAt = time.Now().UTC()
	dep.CreatedByID = currentActorID(ctx)

	if err := s.repo.CreateDatastoreDependency(ctx, &dep); err != nil {
		return domain.DatastoreDependency{}, fmt.Errorf("create datastore dependency: %w", err)
	}
	s.audit.RecordCreate(ctx, dep)
	return dep, nil
}

func (s *ApplicationService) ListDatastoreDependencies(ctx context.Context, appID uuid.UUID) ([]domain.DatastoreDependency, error) {
	return s.repo.ListDatastoreDependencies(ctx, appID)
}

func (s *ApplicationService) RemoveDatastoreDependency(ctx context.Context, id int64) error {
	dep, err := s.repo.GetDatastoreDependency(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDatastoreDependency(ctx, id); err != nil {
		return fmt.Errorf("delete datastore dependency: %w", err)
	}
	s.audit.RecordDelete(ctx, dep)
	return nil
}

func (s *ApplicationService) ListLifecycleEvents(ctx context.Context, appID uuid.UUID) ([]domain.LifecycleEvent, error) {
	return s.repo.ListLifecycleEvents(ctx, appID)
}
