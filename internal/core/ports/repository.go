package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsenary/apptracker/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Save(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type TokenRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (domain.UserToken, error)
	Upsert(ctx context.Context, token domain.UserToken) error
}

type CatalogRepository interface {
	CreatePlatform(ctx context.Context, p *domain.CloudPlatform) error
	SavePlatform(ctx context.Context, p *domain.CloudPlatform) error
	GetPlatform(ctx context.Context, id int64) (domain.CloudPlatform, error)
	ListPlatforms(ctx context.Context) ([]domain.CloudPlatform, error)
	DeletePlatform(ctx context.Context, id int64) error

	CreatePlugin(ctx context.Context, p *domain.CloudPlugin) error
	SavePlugin(ctx context.Context, p *domain.CloudPlugin) error
	GetPlugin(ctx context.Context, id int64) (domain.CloudPlugin, error)
	FindEnabledPluginForPlatform(ctx context.Context, platformID int64) (domain.CloudPlugin, error)
	ListPlugins(ctx context.Context) ([]domain.CloudPlugin, error)
	DeletePlugin(ctx context.Context, id int64) error

	CreateLanguage(ctx context.Context, l *domain.Language) error
	SaveLanguage(ctx context.Context, l *domain.Language) error
	GetLanguage(ctx context.Context, id int64) (domain.Language, error)
	ListLanguages(ctx context.Context) ([]domain.Language, error)
	DeleteLanguage(ctx context.Context, id int64) error

	CreateDatastore(ctx context.Context, d *domain.Datastore) error
	SaveDatastore(ctx context.Context, d *domain.Datastore) error
	GetDatastore(ctx context.Context, id int64) (domain.Datastore, error)
	ListDatastores(ctx context.Context) ([]domain.Datastore, error)
	DeleteDatastore(ctx context.Context, id int64) error
}

type ServerRepository interface {
	Create(ctx context.Context, s *domain.Server) error
	Save(ctx context.Context, s *domain.Server) error
	Get(ctx context.Context, id int64) (domain.Server, error)
	List(ctx context.Context) ([]domain.Server, error)
	Delete(ctx context.Context, id int64) error

	CreateInstallation(ctx context.Context, i *domain.LanguageInstallation) error
	SaveInstallation(ctx context.Context, i *domain.LanguageInstallation) error
	GetInstallation(ctx context.Context, id int64) (domain.LanguageInstallation, error)
	ListInstallations(ctx context.Context, serverID int64) ([]domain.LanguageInstallation, error)
	DeleteInstallation(ctx context.Context, id int64) error

	CreateInstance(ctx context.Context, i *domain.DatastoreInstance) error
	SaveInstance(ctx context.Context, i *domain.DatastoreInstance) error
	GetInstance(ctx context.Context, id int64) (domain.DatastoreInstance, error)
	ListInstances(ctx context.Context, serverID int64) ([]domain.DatastoreInstance, error)
	DeleteInstance(ctx context.Context, id int64) error
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *domain.Application) error
	Save(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, id uuid.UUID) (domain.Application, error)
	List(ctx context.Context) ([]domain.Application, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateLanguageDependency(ctx context.Context, d *domain.LanguageDependency) error
	GetLanguageDependency(ctx context.Context, id int64) (domain.LanguageDependency, error)
	ListLanguageDependencies(ctx context.Context, appID uuid.UUID) ([]domain.LanguageDependency, error)
	DeleteLanguageDependency(ctx context.Context, id int64) error

	CreateDatastoreDependency(ctx context.Context, d *domain.DatastoreDependency) error
	GetDatastoreDependency(ctx context.Context, id int64) (domain.DatastoreDependency, error)
	ListDatastoreDependencies(ctx context.Context, appID uuid.UUID) ([]domain.DatastoreDependency, error)
	DeleteDatastoreDependency(ctx context.Context, id int64) error

	CreateLifecycleEvent(ctx context.Context, e *domain.LifecycleEvent) error
	ListLifecycleEvents(ctx context.Context, appID uuid.UUID) ([]domain.LifecycleEvent, error)
}
