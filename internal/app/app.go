package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/opsenary/apptracker/internal/adapters/auditlog"
	"github.com/opsenary/apptracker/internal/adapters/events"
	"github.com/opsenary/apptracker/internal/adapters/httpapi"
	sqliteadapter "github.com/opsenary/apptracker/internal/adapters/sqlite"
	"github.com/opsenary/apptracker/internal/adapters/sqlite/gormsqlite"
	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
	"github.com/opsenary/apptracker/internal/core/usecase"
	"github.com/opsenary/apptracker/migrations"
)

type Config struct {
	Addr              string
	DBPath            string
	AuditLogDir       string
	AuditExclude      []string
	BootstrapToken    string
	BootstrapUsername string
	WebhookURL        string
	WebhookSecret     string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer wires the full service: storage, change log, outbox delivery and
// the HTTP API. The returned closer shuts the background pieces down in order.
func NewServer(ctx context.Context, cfg Config, logger *slog.Logger) (*http.Server, io.Closer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	userRepo := sqliteadapter.NewUserRepository(db)
	tokenRepo := sqliteadapter.NewTokenRepository(db)
	catalogRepo := sqliteadapter.NewCatalogRepository(db)
	serverRepo := sqliteadapter.NewServerRepository(db)
	appRepo := sqliteadapter.NewApplicationRepository(db)
	outboxRepo := sqliteadapter.NewOutboxRepository(db)

	sink, err := auditlog.NewFileSink(cfg.AuditLogDir)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}

	resolver := sqliteadapter.NewResolver(userRepo, catalogRepo, serverRepo, appRepo)
	recorder := usecase.NewAuditRecorder(sink, resolver, outboxRepo, cfg.AuditExclude, logger)

	var publisher ports.EventPublisher
	if cfg.WebhookURL != "" {
		publisher = events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, 0)
	} else {
		publisher = events.NewLogPublisher(logger)
	}
	dispatcher := usecase.NewOutboxDispatcher(outboxRepo, publisher, 2*time.Second, 100, logger)
	dispatcher.Start(context.Background())

	if cfg.BootstrapToken != "" {
		if err := bootstrapAdmin(ctx, cfg, userRepo, tokenRepo); err != nil {
			_ = dispatcher.Close()
			_ = sink.Close()
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	handler := httpapi.NewHandler(
		usecase.NewAuthService(tokenRepo, userRepo),
		usecase.NewUserService(userRepo, recorder),
		usecase.NewCatalogService(catalogRepo, recorder),
		usecase.NewServerService(serverRepo, recorder),
		usecase.NewApplicationService(appRepo, recorder),
		usecase.NewAuditService(auditlog.NewTrailReader(sink.Path())),
		logger,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, sink, db}}, nil
}

// bootstrapAdmin ensures an administrator account and an active API token
// exist so a fresh install can be used immediately.
func bootstrapAdmin(ctx context.Context, cfg Config, users ports.UserRepository, tokens ports.TokenRepository) error {
	username := cfg.BootstrapUsername
	if username == "" {
		username = "admin"
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	admin, err := users.GetByUsername(ctx, username)
	if err != nil {
		admin = domain.User{
			Username:            username,
			FullName:            "Administrator",
			Role:                domain.RoleApplicationAdmin,
			Active:              true,
			DocumentationAccess: true,
		}
		if err := users.Create(ctx, &admin); err != nil {
			return err
		}
	}

	return tokens.Upsert(ctx, domain.UserToken{
		TokenHash: usecase.HashToken(cfg.BootstrapToken),
		UserID:    admin.ID,
		Name:      "bootstrap",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
}
