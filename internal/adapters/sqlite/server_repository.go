package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opsenary/apptracker/internal/adapters/sqlite/gormsqlite"
	"github.com/opsenary/apptracker/internal/core/domain"
)

// ServerRepository persists servers plus the language installations and
// datastore instances hosted on them. Installation and instance reads join
// the catalog tables so the display labels come back populated.
type ServerRepository struct {
	db *gormsqlite.DB
}

func NewServerRepository(db *gormsqlite.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

func (r *ServerRepository) Create(ctx context.Context, s *domain.Server) error {
	model := serverToModel(*s)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	s.ID = model.ID
	return nil
}

func (r *ServerRepository) Save(ctx context.Context, s *domain.Server) error {
	model := serverToModel(*s)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&serverModel{}).Where("id = ?", model.ID).
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
		return fmt.Errorf("save server: %w", err)
	}
	return nil
}

func (r *ServerRepository) Get(ctx context.Context, id int64) (domain.Server, error) {
	var model serverModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Server{}, domain.ErrNotFound
		}
		return domain.Server{}, fmt.Errorf("get server: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ServerRepository) List(ctx context.Context) ([]domain.Server, error) {
	var models []serverModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("hostname ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	servers := make([]domain.Server, 0, len(models))
	for _, model := range models {
		servers = append(servers, model.toDomain())
	}
	return servers, nil
}

func (r *ServerRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id).Delete(&serverModel{})
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
		return fmt.Errorf("delete server: %w", err)
	}
	return nil
}

const installationSelect = "language_installations.*, languages.name AS language_name, servers.hostname AS server_hostname"

func (r *ServerRepository) CreateInstallation(ctx context.Context, i *domain.LanguageInstallation) error {
	model := installationToModel(*i)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create installation: %w", err)
	}
	i.ID = model.ID
	loaded, loadErr := r.GetInstallation(ctx, model.ID)
	if loadErr == nil {
		*i = loaded
	}
	return nil
}

func (r *ServerRepository) SaveInstallation(ctx context.Context, i *domain.LanguageInstallation) error {
	model := installationToModel(*i)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&languageInstallationModel{}).Where("id = ?", model.ID).
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
		return fmt.Errorf("save installation: %w", err)
	}
	return nil
}

func (r *ServerRepository) GetInstallation(ctx context.Context, id int64) (domain.LanguageInstallation, error) {
	var model languageInstallationModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&languageInstallationModel{}).
			Select(installationSelect).
			Joins("JOIN languages ON languages.id = language_installations.language_id").
			Joins("JOIN servers ON servers.id = language_installations.server_id").
			Where("language_installations.id = ?", id).
			First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LanguageInstallation{}, domain.ErrNotFound
		}
		return domain.LanguageInstallation{}, fmt.Errorf("get installation: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ServerRepository) ListInstallations(ctx context.Context, serverID int64) ([]domain.LanguageInstallation, error) {
	var models []languageInstallationModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&languageInstallationModel{}).
			Select(installationSelect).
			Joins("JOIN languages ON languages.id = language_installations.language_id").
			Joins("JOIN servers ON servers.id = language_installations.server_id")
		if serverID > 0 {
			query = query.Where("language_installations.server_id = ?", serverID)
		}
		return query.Order("language_installations.id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list installations: %w", err)
	}
	out := make([]domain.LanguageInstallation, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (r *ServerRepository) DeleteInstallation(ctx context.Context, id int64) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id).Delete(&languageInstallationModel{})
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
		return fmt.Errorf("delete installation: %w", err)
	}
	return nil
}

const instanceSelect = "datastore_instances.*, datastores.name AS datastore_name, servers.hostname AS server_hostname"

func (r *ServerRepository) CreateInstance(ctx context.Context, i *domain.DatastoreInstance) error {
	model := instanceToModel(*i)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	i.ID = model.ID
	loaded, loadErr := r.GetInstance(ctx, model.ID)
	if loadErr == nil {
		*i = loaded
	}
	return nil
}

func (r *ServerRepository) SaveInstance(ctx context.Context, i *domain.DatastoreInstance) error {
	model := instanceToModel(*i)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&datastoreInstanceModel{}).Where("id = ?", model.ID).
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
		return fmt.Errorf("save instance: %w", err)
	}
	return nil
}

func (r *ServerRepository) GetInstance(ctx context.Context, id int64) (domain.DatastoreInstance, error) {
	var model datastoreInstanceModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&datastoreInstanceModel{}).
			Select(instanceSelect).
			Joins("JOIN datastores ON datastores.id = datastore_instances.datastore_id").
			Joins("JOIN servers ON servers.id = datastore_instances.server_id").
			Where("datastore_instances.id = ?", id).
			First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DatastoreInstance{}, domain.ErrNotFound
		}
		return domain.DatastoreInstance{}, fmt.Errorf("get instance: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ServerRepository) ListInstances(ctx context.Context, serverID int64) ([]domain.DatastoreInstance, error) {
	var models []datastoreInstanceModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&datastoreInstanceModel{}).
			Select(instanceSelect).
			Joins("JOIN datastores ON datastores.id = datastore_instances.datastore_id").
			Joins("JOIN servers ON servers.id = datastore_instances.server_id")
		if serverID > 0 {
			query = query.Where("datastore_instances.server_id = ?", serverID)
		}
		return query.Order("datastore_instances.id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	out := make([]domain.DatastoreInstance, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (r *ServerRepository) DeleteInstance(ctx context.Context, id int64) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id).Delete(&datastoreInstanceModel{})
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
		return fmt.Errorf("delete instance: %w", err)
	}
	return nil
}

func installationToModel(i domain.LanguageInstallation) languageInstallationModel {
	return languageInstallationModel{
		ID:           i.ID,
		ServerID:     i.ServerID,
		LanguageID:   i.LanguageID,
		Version:      i.Version,
		Path:         i.Path,
		Default:      i.Default,
		Notes:        i.Notes,
		ManagerNotes: i.ManagerNotes,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
		CreatedByID:  i.CreatedByID,
		UpdatedByID:  i.UpdatedByID,
	}
}

func instanceToModel(i domain.DatastoreInstance) datastoreInstanceModel {
	return datastoreInstanceModel{
		ID:           i.ID,
		ServerID:     i.ServerID,
		DatastoreID:  i.DatastoreID,
		Version:      i.Version,
		InstanceName: i.InstanceName,
		Port:         i.Port,
		Connection:   i.Connection,
		Active:       i.Active,
		Notes:        i.Notes,
		ManagerNotes: i.ManagerNotes,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
		CreatedByID:  i.CreatedByID,
		UpdatedByID:  i.UpdatedByID,
	}
}
