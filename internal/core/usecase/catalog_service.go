package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// CatalogService manages the reference kinds: cloud platforms, their
// integration plugins, languages, and datastores. Platform plugin configs
// are validated against the enabled plugin's JSON Schema on every write.
type CatalogService struct {
	repo  ports.CatalogRepository
	audit *AuditRecorder
}

func NewCatalogService(repo ports.CatalogRepository, audit *AuditRecorder) *CatalogService {
	return &CatalogService{repo: repo, audit: audit}
}

func (s *CatalogService) CreatePlatform(ctx context.Context, p domain.CloudPlatform) (domain.CloudPlatform, error) {
	if err := p.Validate(); err != nil {
		return domain.CloudPlatform{}, err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.CreatedByID = currentActorID(ctx)
	p.UpdatedByID = p.CreatedByID

	if err := s.repo.CreatePlatform(ctx, &p); err != nil {
		return domain.CloudPlatform{}, fmt.Errorf("create platform: %w", err)
	}
	s.audit.RecordCreate(ctx, p)
	return p, nil
}

func (s *CatalogService) UpdatePlatform(ctx context.Context, id int64, in domain.CloudPlatform) (domain.CloudPlatform, error) {
	p, err := s.repo.GetPlatform(ctx, id)
	if err != nil {
		return domain.CloudPlatform{}, err
	}
	prev := domain.CaptureSnapshot(p.AuditFields())

	p.Name = in.Name
	p.Code = in.Code
	p.Description = in.Description
	p.Active = in.Active
	p.PluginEnabled = in.PluginEnabled
	p.PluginConfig = in.PluginConfig
	p.ManagerNotes = in.ManagerNotes

	if err := p.Validate(); err != nil {
		return domain.CloudPlatform{}, err
	}
	if err := s.validatePluginConfig(ctx, p); err != nil {
		return domain.CloudPlatform{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedByID = currentActorID(ctx)

	if err := s.repo.SavePlatform(ctx, &p); err != nil {
		return domain.CloudPlatform{}, fmt.Errorf("save platform: %w", err)
	}
	s.audit.RecordUpdate(ctx, p, prev)
	return p, nil
}

func (s *CatalogService) GetPlatform(ctx context.Context, id int64) (domain.CloudPlatform, error) {
	return s.repo.GetPlatform(ctx, id)
}

func (s *CatalogService) ListPlatforms(ctx context.Context) ([]domain.CloudPlatform, error) {
	return s.repo.ListPlatforms(ctx)
}

func (s *CatalogService) DeletePlatform(ctx context.Context, id int64) error {
	p, err := s.repo.GetPlatform(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePlatform(ctx, id); err != nil {
		return fmt.Errorf("delete platform: %w", err)
	}
	s.audit.RecordDelete(ctx, p)
	return nil
}

// validatePluginConfig checks the platform's plugin config against the
// enabled plugin's configuration schema. Platforms without an active plugin
// or plugins without a schema pass unchecked.
func (s *CatalogService) validatePluginConfig(ctx context.Context, p domain.CloudPlatform) error {
	if !p.PluginEnabled || len(p.PluginConfig) == 0 {
		return nil
	}
	plugin, err := s.repo.FindEnabledPluginForPlatform(ctx, p.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load platform plugin: %w", err)
	}
	if len(plugin.ConfigSchema) == 0 {
		return nil
	}

	sch, err := compileConfigSchema(plugin.ConfigSchema)
	if err != nil {
		return fmt.Errorf("compile plugin schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(p.PluginConfig, &doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPluginConfig, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPluginConfig, err)
	}
	return nil
}

func compileConfigSchema(schemaJSON json.RawMessage) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func (s *CatalogService) CreatePlugin(ctx context.Context, p domain.CloudPlugin) (domain.CloudPlugin, error) {
	if err := p.Validate(); err != nil {
		return domain.CloudPlugin{}, err
	}
	if len(p.ConfigSchema) > 0 {
		if _, err := compileConfigSchema(p.ConfigSchema); err != nil {
			return domain.CloudPlugin{}, fmt.Errorf("%w: config_schema: %v", domain.ErrInvalidField, err)
		}
	}
	if _, err := s.repo.GetPlatform(ctx, p.PlatformID); err != nil {
		return domain.CloudPlugin{}, err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.CreatePlugin(ctx, &p); err != nil {
		return domain.CloudPlugin{}, fmt.Errorf("create plugin: %w", err)
	}
	s.audit.RecordCreate(ctx, p)
	return p, nil
}

func (s *CatalogService) UpdatePlugin(ctx context.Context, id int64, in domain.CloudPlugin) (domain.CloudPlugin, error) {
	p, err := s.repo.GetPlugin(ctx, id)
	if err != nil {
		return domain.CloudPlugin{}, err
	}
	prev := domain.CaptureSnapshot(p.AuditFields())

	p.Name = in.Name
	p.Module = in.Module
	p.Version = in.Version
	p.Description = in.Description
	p.Enabled = in.Enabled
	p.ConfigSchema = in.ConfigSchema
	p.ManagerNotes = in.ManagerNotes

	if err := p.Validate(); err != nil {
		return domain.CloudPlugin{}, err
	}
	if len(p.ConfigSchema) > 0 {
		if _, err := compileConfigSchema(p.ConfigSchema); err != nil {
			return domain.CloudPlugin{}, fmt.Errorf("%w: config_schema: %v", domain.ErrInvalidField, err)
		}
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.SavePlugin(ctx, &p); err != nil {
		return domain.CloudPlugin{}, fmt.Errorf("save plugin: %w", err)
	}
	s.audit.RecordUpdate(ctx, p, prev)
	return p, nil
}

func (s *CatalogService) GetPlugin(ctx context.Context, id int64) (domain.CloudPlugin, error) {
	return s.repo.GetPlugin(ctx, id)
}

func (s *CatalogService) ListPlugins(ctx context.Context) ([]domain.CloudPlugin, error) {
	return s.repo.ListPlugins(ctx)
}

func (s *CatalogService) DeletePlugin(ctx context.Context, id int64) error {
	p, err := s.repo.GetPlugin(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePlugin(ctx, id); err != nil {
		return fmt.Errorf("delete plugin: %w", err)
	}
	s.audit.RecordDelete(ctx, p)
	return nil
}

func (s *CatalogService) CreateLanguage(ctx context.Context, l domain.Language) (domain.Language, error) {
	if err := l.Validate(); err != nil {
		return domain.Language{}, err
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.repo.CreateLanguage(ctx, &l); err != nil {
		return domain.Language{}, fmt.Errorf("create language: %w", err)
	}
	s.audit.RecordCreate(ctx, l)
	return l, nil
}

func (s *CatalogService) UpdateLanguage(ctx context.Context, id int64, in domain.Language) (domain.Language, error) {
	l, err := s.repo.GetLanguage(ctx, id)
	if err != nil {
		return domain.Language{}, err
	}
	prev := domain.CaptureSnapshot(l.AuditFields())

	l.Name = in.Name
	l.Description = in.Description
	l.Active = in.Active

	if err := l.Validate(); err != nil {
		return domain.Language{}, err
	}
	l.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveLanguage(ctx, &l); err != nil {
		return domain.Language{}, fmt.Errorf("save language: %w", err)
	}
	s.audit.RecordUpdate(ctx, l, prev)
	return l, nil
}

func (s *CatalogService) GetLanguage(ctx context.Context, id int64) (domain.Language, error) {
	return s.repo.GetLanguage(ctx, id)
}

func (s *CatalogService) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	return s.repo.ListLanguages(ctx)
}

func (s *CatalogService) DeleteLanguage(ctx context.Context, id int64) error {
	l, err := s.repo.GetLanguage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLanguage(ctx, id); err != nil {
		return fmt.Errorf("delete language: %w", err)
	}
	s.audit.RecordDelete(ctx, l)
	return nil
}

func (s *CatalogService) CreateDatastore(ctx context.Context, d domain.Datastore) (domain.Datastore, error) {
	if err := d.Validate(); err != nil {
		return domain.Datastore{}, err
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.CreatedByID = currentActorID(ctx)
	d.UpdatedByID = d.CreatedByID

	if err := s.repo.CreateDatastore(ctx, &d); err != nil {
		return domain.Datastore{}, fmt.Errorf("create datastore: %w", err)
	}
	s.audit.RecordCreate(ctx, d)
	return d, nil
}

func (s *CatalogService) UpdateDatastore(ctx context.Context, id int64, in domain.Datastore) (domain.Datastore, error) {
	d, err := s.repo.GetDatastore(ctx, id)
	if err != nil {
		return domain.Datastore{}, err
	}
	prev := domain.CaptureSnapshot(d.AuditFields())

	d.Name = in.Name
	d.Type = in.Type
	d.Description = in.Description
	d.Active = in.Active
	d.ManagerNotes = in.ManagerNotes

	if err := d.Validate(); err != nil {
		return domain.Datastore{}, err
	}
	d.UpdatedAt = time.Now().UTC()
	d.UpdatedByID = currentActorID(ctx)

	if err := s.repo.SaveDatastore(ctx, &d); err != nil {
		return domain.Datastore{}, fmt.Errorf("save datastore: %w", err)
	}
	s.audit.RecordUpdate(ctx, d, prev)
	return d, nil
}

func (s *CatalogService) GetDatastore(ctx context.Context, id int64) (domain.Datastore, error) {
	return s.repo.GetDatastore(ctx, id)
}

func (s *CatalogService) ListDatastores(ctx context.Context) ([]domain.Datastore, error) {
	return s.repo.ListDatastores(ctx)
}

func (s *CatalogService) DeleteDatastore(ctx context.Context, id int64) error {
	d, err := s.repo.GetDatastore(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDatastore(ctx, id); err != nil {
		return fmt.Errorf("delete datastore: %w", err)
	}
	s.audit.RecordDelete(ctx, d)
	return nil
}
