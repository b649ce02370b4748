package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opsenary/apptracker/internal/adapters/sqlite/gormsqlite"
	"github.com/opsenary/apptracker/internal/core/domain"
)

// CatalogRepository persists the shared reference data: cloud platforms and
// their plugins, languages, and datastore products.
type CatalogRepository struct {
	db *gormsqlite.DB
}

func NewCatalogRepository(db *gormsqlite.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreatePlatform(ctx context.Context, p *domain.CloudPlatform) error {
	model := platformToModel(*p)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create platform: %w", err)
	}
	p.ID = model.ID
	return nil
}

func (r *CatalogRepository) SavePlatform(ctx context.Context, p *domain.CloudPlatform) error {
	model := platformToModel(*p)
	return r.save(ctx, "save platform", func(tx *gormsqlite.Tx) *gorm.DB {
		return tx.Model(&cloudPlatformModel{}).Where("id = ?", model.ID).
			Select("*").Omit("id", "created_at", "created_by_id").Updates(model)
	})
}

func (r *CatalogRepository) GetPlatform(ctx context.Context, id int64) (domain.CloudPlatform, error) {
	var model cloudPlatformModel
	if err := r.get(ctx, "get platform", &model, id); err != nil {
		return domain.CloudPlatform{}, err
	}
	return model.toDomain(), nil
}

func (r *CatalogRepository) ListPlatforms(ctx context.Context) ([]domain.CloudPlatform, error) {
	var models []cloudPlatformModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	out := make([]domain.CloudPlatform, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) DeletePlatform(ctx context.Context, id int64) error {
	return r.delete(ctx, "delete platform", &cloudPlatformModel{}, id)
}

func (r *CatalogRepository) CreatePlugin(ctx context.Context, p *domain.CloudPlugin) error {
	model := pluginToModel(*p)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create plugin: %w", err)
	}
	p.ID = model.ID
	return nil
}

func (r *CatalogRepository) SavePlugin(ctx context.Context, p *domain.CloudPlugin) error {
	model := pluginToModel(*p)
	return r.save(ctx, "save plugin", func(tx *gormsqlite.Tx) *gorm.DB {
		return tx.Model(&cloudPluginModel{}).Where("id = ?", model.ID).
			Select("*").Omit("id", "created_at").Updates(model)
	})
}

func (r *CatalogRepository) GetPlugin(ctx context.Context, id int64) (domain.CloudPlugin, error) {
	var model cloudPluginModel
	if err := r.get(ctx, "get plugin", &model, id); err != nil {
		return domain.CloudPlugin{}, err
	}
	return model.toDomain(), nil
}

// FindEnabledPluginForPlatform returns the active plugin whose config schema
// gates the platform's plugin configuration.
func (r *CatalogRepository) FindEnabledPluginForPlatform(ctx context.Context, platformID int64) (domain.CloudPlugin, error) {
	var model cloudPluginModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("platform_id = ? AND enabled = ?", platformID, true).
			Order("id ASC").First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CloudPlugin{}, domain.ErrNotFound
		}
		return domain.CloudPlugin{}, fmt.Errorf("find enabled plugin: %w", err)
	}
	return model.toDomain(), nil
}

func (r *CatalogRepository) ListPlugins(ctx context.Context) ([]domain.CloudPlugin, error) {
	var models []cloudPluginModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	out := make([]domain.CloudPlugin, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) DeletePlugin(ctx context.Context, id int64) error {
	return r.delete(ctx, "delete plugin", &cloudPluginModel{}, id)
}

func (r *CatalogRepository) CreateLanguage(ctx context.Context, l *domain.Language) error {
	model := languageModel{
		Name:        l.Name,
		Description: l.Description,
		Active:      l.Active,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create language: %w", err)
	}
	l.ID = model.ID
	return nil
}

func (r *CatalogRepository) SaveLanguage(ctx context.Context, l *domain.Language) error {
	model := languageModel{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Active:      l.Active,
		UpdatedAt:   l.UpdatedAt,
	}
	return r.save(ctx, "save language", func(tx *gormsqlite.Tx) *gorm.DB {
		return tx.Model(&languageModel{}).Where("id = ?", model.ID).
			Select("*").Omit("id", "created_at").Updates(model)
	})
}

func (r *CatalogRepository) GetLanguage(ctx context.Context, id int64) (domain.Language, error) {
	var model languageModel
	if err := r.get(ctx, "get language", &model, id); err != nil {
		return domain.Language{}, err
	}
	return model.toDomain(), nil
}

func (r *CatalogRepository) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	var models []languageModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	out := make([]domain.Language, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) DeleteLanguage(ctx context.Context, id int64) error {
	return r.delete(ctx, "delete language", &languageModel{}, id)
}

func (r *CatalogRepository) CreateDatastore(ctx context.Context, d *domain.Datastore) error {
	model := datastoreModel{
		Name:         d.Name,
		Type:         d.Type,
		Description:  d.Description,
		Active:       d.Active,
		ManagerNotes: d.ManagerNotes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		CreatedByID:  d.CreatedByID,
		UpdatedByID:  d.UpdatedByID,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create datastore: %w", err)
	}
	d.ID = model.ID
	return nil
}

func (r *CatalogRepository) SaveDatastore(ctx context.Context, d *domain.Datastore) error {
	model := datastoreModel{
		ID:           d.ID,
		Name:         d.Name,
		Type:         d.Type,
		Description:  d.Description,
		Active:       d.Active,
		ManagerNotes: d.ManagerNotes,
		UpdatedAt:    d.UpdatedAt,
		UpdatedByID:  d.UpdatedByID,
	}
	return r.save(ctx, "save datastore", func(tx *gormsqlite.Tx) *gorm.DB {
		return tx.Model(&datastoreModel{}).Where("id = ?", model.ID).
			Select("*").Omit("id", "created_at", "created_by_id").Updates(model)
	})
}

func (r *CatalogRepository) GetDatastore(ctx context.Context, id int64) (domain.Datastore, error) {
	var model datastoreModel
	if err := r.get(ctx, "get datastore", &model, id); err != nil {
		return domain.Datastore{}, err
	}
	return model.toDomain(), nil
}

func (r *CatalogRepository) ListDatastores(ctx context.Context) ([]domain.Datastore, error) {
	var models []datastoreModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("name ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list datastores: %w", err)
	}
	out := make([]domain.Datastore, 0, len(models))
	for _, model := range models {
		out = append(out, model.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) DeleteDatastore(ctx context.Context, id int64) error {
	return r.delete(ctx, "delete datastore", &datastoreModel{}, id)
}

func (r *CatalogRepository) get(ctx context.Context, op string, dest any, id int64) error {
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(dest).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *CatalogRepository) save(ctx context.Context, op string, update func(tx *gormsqlite.Tx) *gorm.DB) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := update(tx)
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

func (r *CatalogRepository) delete(ctx context.Context, op string, model any, id int64) error {
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
