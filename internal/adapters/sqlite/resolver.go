package sqlite

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/opsenary/apptracker/internal/core/domain"
)

// Resolver turns relation keys into display labels for the change log. A key
// that no longer resolves reports domain.ErrNotFound so the caller falls
// back to the raw key.
type Resolver struct {
	users   *UserRepository
	catalog *CatalogRepository
	servers *ServerRepository
	apps    *ApplicationRepository
}

func NewResolver(users *UserRepository, catalog *CatalogRepository, servers *ServerRepository, apps *ApplicationRepository) *Resolver {
	return &Resolver{users: users, catalog: catalog, servers: servers, apps: apps}
}

func (r *Resolver) Display(ctx context.Context, kind, key string) (string, error) {
	switch kind {
	case "accounts.User":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		user, err := r.users.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return user.AuditLabel(), nil

	case "inventory.CloudPlatform":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		platform, err := r.catalog.GetPlatform(ctx, id)
		if err != nil {
			return "", err
		}
		return platform.AuditLabel(), nil

	case "inventory.CloudPlugin":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		plugin, err := r.catalog.GetPlugin(ctx, id)
		if err != nil {
			return "", err
		}
		return plugin.AuditLabel(), nil

	case "inventory.Language":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		language, err := r.catalog.GetLanguage(ctx, id)
		if err != nil {
			return "", err
		}
		return language.AuditLabel(), nil

	case "inventory.Datastore":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		datastore, err := r.catalog.GetDatastore(ctx, id)
		if err != nil {
			return "", err
		}
		return datastore.AuditLabel(), nil

	case "inventory.Server":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		server, err := r.servers.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return server.AuditLabel(), nil

	case "inventory.LanguageInstallation":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		installation, err := r.servers.GetInstallation(ctx, id)
		if err != nil {
			return "", err
		}
		return installation.AuditLabel(), nil

	case "inventory.DatastoreInstance":
		id, err := parseID(key)
		if err != nil {
			return "", err
		}
		instance, err := r.servers.GetInstance(ctx, id)
		if err != nil {
			return "", err
		}
		return instance.AuditLabel(), nil

	case "inventory.Application":
		id, err := uuid.Parse(key)
		if err != nil {
			return "", domain.ErrNotFound
		}
		app, err := r.apps.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return app.AuditLabel(), nil
	}

	return "", domain.ErrNotFound
}

func parseID(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
