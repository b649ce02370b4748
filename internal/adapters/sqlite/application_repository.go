package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsenary/apptracker/internal/adapters/sqlite/gormsqlite"
	"github.com/opsenary/apptracker/internal/core/domain"
)

type ApplicationRepository struct {
	db *gormsqlite.DB
}

func NewApplicationRepository(db *gormsqlite.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	model := applicationToModel(*a)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) Save(ctx context.Context, a *domain.Application) error {
	model := applicationToModel(*a)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&applicationModel{}).Where("id = ?", model.ID).
			Select("*").Omit("id", "created_at", "created_by_id").Updates(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("save application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) Get(ctx context.Context, id uuid.UUID) (domain.Application, error) {
	var model applicationModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id.String()).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Application{}, domain.ErrNotFound
		}
		return domain.Application{}, fmt.Errorf("get application: %w", err)
	}
	return applicationToDomain(model)
}

func (r *ApplicationRepository) List(ctx context.Context) ([]domain.Application, error) {
	var models []applicationModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	apps := make([]domain.Application, 0, len(models))
	for _, model := range models {
		app, convErr := applicationToDomain(model)
		if convErr != nil {
			return nil, convErr
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id.String()).Delete(&applicationModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

const langDepSelect = "app_language_dependencies.*, applications.name AS application_name, " +
	"languages.name || ' ' || language_installations.version || ' on ' || servers.hostname AS installation_label"

func (r *ApplicationRepository) CreateLanguageDependency(ctx context.Context, d *domain.LanguageDependency) error {
	model := langDepToModel(*d)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create language dependency: %w", err)
	}
	d.ID = model.ID
	loaded, loadErr := r.GetLanguageDependency(ctx, model.ID)
	if loadErr == nil {
		*d = loaded
	}
	return nil
}

func (r *ApplicationRepository) GetLanguageDependency(ctx context.Context, id int64) (domain.LanguageDependency, error) {
	var model languageDependencyModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&languageDependencyModel{}).
			Select(langDepSelect).
			Joins("JOIN applications ON applications.id = app_language_dependencies.application_id").
			Joins("JOIN language_installations ON language_installations.id = app_language_dependencies.installation_id").
			Joins("JOIN languages ON languages.id = language_installations.language_id").
			Joins("JOIN servers ON servers.id = language_installations.server_id").
			Where("app_language_dependencies.id = ?", id).
			First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LanguageDependency{}, domain.ErrNotFound
		}
		return domain.LanguageDependency{}, fmt.Errorf("get language dependency: %w", err)
	}
	return langDepToDomain(model)
}

func (r *ApplicationRepository) ListLanguageDependencies(ctx context.Context, appID uuid.UUID) ([]domain.LanguageDependency, error) {
	var models []languageDependencyModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&languageDependencyModel{}).
			Select(langDepSelect).
			Joins("JOIN applications ON applications.id = app_language_dependencies.application_id").
			Joins("JOIN language_installations ON language_installations.id = app_language_dependencies.installation_id").
			Joins("JOIN languages ON languages.id = language_installations.language_id").
			Joins("JOIN servers ON servers.id = language_installations.server_id").
			Where("app_language_dependencies.application_id = ?", appID.String()).
			Order("app_language_dependencies.id ASC").
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list language dependencies: %w", err)
	}
	out := make([]domain.LanguageDependency, 0, len(models))
	for _, model := range models {
		dep, convErr := langDepToDomain(model)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, dep)
	}
	return out, nil
}

func (r *ApplicationRepository) DeleteLanguageDependency(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "delete language dependency", &languageDependencyModel{}, id)
}

const storeDepSelect = "app_datastore_dependencies.*, applications.name AS application_name, " +
	"datastores.name || ' (' || datastore_instances.instance_name || ') on ' || servers.hostname AS instance_label"

func (r *ApplicationRepository) CreateDatastoreDependency(ctx context.Context, d *domain.DatastoreDependency) error {
	model := storeDepToModel(*d)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create datastore dependency: %w", err)
	}
	d.ID = model.ID
	loaded, loadErr := r.GetDatastoreDependency(ctx, model.ID)
	if loadErr == nil {
		*d = loaded
	}
	return nil
}

func (r *ApplicationRepository) GetDatastoreDependency(ctx context.Context, id int64) (domain.DatastoreDependency, error) {
	var model datastoreDependencyModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&datastoreDependencyModel{}).
			Select(storeDepSelect).
			Joins("JOIN applications ON applications.id = app_datastore_dependencies.application_id").
			Joins("JOIN datastore_instances ON datastore_instances.id = app_datastore_dependencies.instance_id").
			Joins("JOIN datastores ON datastores.id = datastore_instances.datastore_id").
			Joins("JOIN servers ON servers.id = datastore_instances.server_id").
			Where("app_datastore_dependencies.id = ?", id).
			First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DatastoreDependency{}, domain.ErrNotFound
		}
		return domain.DatastoreDependency{}, fmt.Errorf("get datastore dependency: %w", err)
	}
	return storeDepToDomain(model)
}

func (r *ApplicationRepository) ListDatastoreDependencies(ctx context.Context, appID uuid.UUID) ([]domain.DatastoreDependency, error) {
	var models []datastoreDependencyModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&datastoreDependencyModel{}).
			Select(storeDepSelect).
			Joins("JOIN applications ON applications.id = app_datastore_dependencies.application_id").
			Joins("JOIN datastore_instances ON datastore_instances.id = app_datastore_dependencies.instance_id").
			Joins("JOIN datastores ON datastores.id = datastore_instances.datastore_id").
			Joins("JOIN servers ON servers.id = datastore_instances.server_id").
			Where("app_datastore_dependencies.application_id = ?", appID.String()).
			Order("app_datastore_dependencies.id ASC").
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list datastore dependencies: %w", err)
	}
	out := make([]domain.DatastoreDependency, 0, len(models))
	for _, model := range models {
		dep, convErr := storeDepToDomain(model)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, dep)
	}
	return out, nil
}

func (r *ApplicationRepository) DeleteDatastoreDependency(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "delete datastore dependency", &datastoreDependencyModel{}, id)
}

func (r *ApplicationRepository) CreateLifecycleEvent(ctx context.Context, e *domain.LifecycleEvent) error {
	model := lifecycleEventModel{
		ApplicationID: e.ApplicationID.String(),
		FromStage:     e.FromStage,
		ToStage:       e.ToStage,
		EventDate:     e.EventDate,
		Notes:         e.Notes,
		ManagerNotes:  e.ManagerNotes,
		PerformedByID: e.PerformedByID,
		PerformedBy:   e.PerformedBy,
	}
	if model.EventDate.IsZero() {
		model.EventDate = time.Now().UTC()
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create lifecycle event: %w", err)
	}
	e.ID = model.ID
	return nil
}

func (r *ApplicationRepository) ListLifecycleEvents(ctx context.Context, appID uuid.UUID) ([]domain.LifecycleEvent, error) {
	var models []lifecycleEventModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("application_id = ?", appID.String()).
			Order("event_date DESC, id DESC").
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list lifecycle events: %w", err)
	}
	out := make([]domain.LifecycleEvent, 0, len(models))
	for _, model := range models {
		event, convErr := lifecycleToDomain(model)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, event)
	}
	return out, nil
}

func (r *ApplicationRepository) deleteByID(ctx context.Context, op string, model any, id int64) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func applicationToModel(a domain.Application) applicationModel {
	return applicationModel{
		ID:              a.ID.String(),
		Name:            a.Name,
		Description:     a.Description,
		BusinessPurpose: a.BusinessPurpose,
		LifecycleStage:  a.LifecycleStage,
		Criticality:     a.Criticality,
		BusinessOwner:   a.BusinessOwner,
		TechnicalOwner:  a.TechnicalOwner,
		PrimaryServerID: a.PrimaryServerID,
		Version:         a.Version,
		DeploymentPath:  a.DeploymentPath,
		UsesLDAP:        a.UsesLDAP,
		LDAPConfig:      string(a.LDAPConfig),
		Active:          a.Active,
		Notes:           a.Notes,
		ManagerNotes:    a.ManagerNotes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		CreatedByID:     a.CreatedByID,
		UpdatedByID:     a.UpdatedByID,
	}
}

func applicationToDomain(m applicationModel) (domain.Application, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("parse application id %q: %w", m.ID, err)
	}
	return domain.Application{
		ID:              id,
		Name:            m.Name,
		Description:     m.Description,
		BusinessPurpose: m.BusinessPurpose,
		LifecycleStage:  m.LifecycleStage,
		Criticality:     m.Criticality,
		BusinessOwner:   m.BusinessOwner,
		TechnicalOwner:  m.TechnicalOwner,
		PrimaryServerID: m.PrimaryServerID,
		Version:         m.Version,
		DeploymentPath:  m.DeploymentPath,
		UsesLDAP:        m.UsesLDAP,
		LDAPConfig:      rawJSON(m.LDAPConfig),
		Active:          m.Active,
		Notes:           m.Notes,
		ManagerNotes:    m.ManagerNotes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		CreatedByID:     m.CreatedByID,
		UpdatedByID:     m.UpdatedByID,
	}, nil
}

func langDepToModel(d domain.LanguageDependency) languageDependencyModel {
	return languageDependencyModel{
		ID:             d.ID,
		ApplicationID:  d.ApplicationID.String(),
		InstallationID: d.InstallationID,
		Primary:        d.Primary,
		Notes:          d.Notes,
		ManagerNotes:   d.ManagerNotes,
		CreatedAt:      d.CreatedAt,
		CreatedByID:    d.CreatedByID,
	}
}

func langDepToDomain(m languageDependencyModel) (domain.LanguageDependency, error) {
	appID, err := uuid.Parse(m.ApplicationID)
	if err != nil {
		return domain.LanguageDependency{}, fmt.Errorf("parse application id %q: %w", m.ApplicationID, err)
	}
	return domain.LanguageDependency{
		ID:                m.ID,
		ApplicationID:     appID,
		InstallationID:    m.InstallationID,
		Primary:           m.Primary,
		Notes:             m.Notes,
		ManagerNotes:      m.ManagerNotes,
		CreatedAt:         m.CreatedAt,
		CreatedByID:       m.CreatedByID,
		ApplicationName:   m.ApplicationName,
		InstallationLabel: m.InstallationLabel,
	}, nil
}

func storeDepToModel(d domain.DatastoreDependency) datastoreDependencyModel {
	return datastoreDependencyModel{
		ID:             d.ID,
		ApplicationID:  d.ApplicationID.String(),
		InstanceID:     d.InstanceID,
		Primary:        d.Primary,
		ConnectionType: d.ConnectionType,
		Notes:          d.Notes,
		ManagerNotes:   d.ManagerNotes,
		CreatedAt:      d.CreatedAt,
		CreatedByID:    d.CreatedByID,
	}
}

func storeDepToDomain(m datastoreDependencyModel) (domain.DatastoreDependency, error) {
	appID, err := uuid.Parse(m.ApplicationID)
	if err != nil {
		return domain.DatastoreDependency{}, fmt.Errorf("parse application id %q: %w", m.ApplicationID, err)
	}
	return domain.DatastoreDependency{
		ID:              m.ID,
		ApplicationID:   appID,
		InstanceID:      m.InstanceID,
		Primary:         m.Primary,
		ConnectionType:  m.ConnectionType,
		Notes:           m.Notes,
		ManagerNotes:    m.ManagerNotes,
		CreatedAt:       m.CreatedAt,
		CreatedByID:     m.CreatedByID,
		ApplicationName: m.ApplicationName,
		InstanceLabel:   m.InstanceLabel,
	}, nil
}

func lifecycleToDomain(m lifecycleEventModel) (domain.LifecycleEvent, error) {
	appID, err := uuid.Parse(m.ApplicationID)
	if err != nil {
		return domain.LifecycleEvent{}, fmt.Errorf("parse application id %q: %w", m.ApplicationID, err)
	}
	return domain.LifecycleEvent{
		ID:            m.ID,
		ApplicationID: appID,
		FromStage:     m.FromStage,
		ToStage:       m.ToStage,
		EventDate:     m.EventDate,
		Notes:         m.Notes,
		ManagerNotes:  m.ManagerNotes,
		PerformedByID: m.PerformedByID,
		PerformedBy:   m.PerformedBy,
	}, nil
}
