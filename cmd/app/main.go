package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/opsenary/apptracker/internal/app"
	"github.com/opsenary/apptracker/internal/logx"
)

func main() {
	// Missing .env is fine; flags and real env vars still apply.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "apptracker",
		Usage: "IT application inventory with a durable change log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("APPTRACKER_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./apptracker.sqlite",
				Sources: cli.EnvVars("APPTRACKER_DB_PATH"),
				Usage:   "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "audit-log-dir",
				Value:   "./logs",
				Sources: cli.EnvVars("APPTRACKER_AUDIT_LOG_DIR"),
				Usage:   "Directory for the append-only audit log",
			},
			&cli.StringSliceFlag{
				Name:    "audit-exclude",
				Sources: cli.EnvVars("APPTRACKER_AUDIT_EXCLUDE"),
				Usage:   "Additional record kinds to keep out of the audit log",
			},
			&cli.StringFlag{
				Name:    "bootstrap-token",
				Sources: cli.EnvVars("APPTRACKER_BOOTSTRAP_TOKEN"),
				Usage:   "Optional admin API token to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-username",
				Value:   "admin",
				Sources: cli.EnvVars("APPTRACKER_BOOTSTRAP_USERNAME"),
				Usage:   "Username owning the bootstrap token",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("APPTRACKER_WEBHOOK_URL"),
				Usage:   "Change-event webhook target URL (enables push delivery)",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("APPTRACKER_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("APPTRACKER_LOG_LEVEL"),
				Usage:   "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Sources: cli.EnvVars("APPTRACKER_LOG_FORMAT"),
				Usage:   "Log format: console or json",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logx.New(logx.Config{
				Level:  c.String("log-level"),
				Format: c.String("log-format"),
			})

			cfg := app.Config{
				Addr:              c.String("addr"),
				DBPath:            c.String("db-path"),
				AuditLogDir:       c.String("audit-log-dir"),
				AuditExclude:      c.StringSlice("audit-exclude"),
				BootstrapToken:    c.String("bootstrap-token"),
				BootstrapUsername: c.String("bootstrap-username"),
				WebhookURL:        c.String("webhook-url"),
				WebhookSecret:     c.String("webhook-secret"),
			}

			server, closer, err := app.NewServer(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					logger.Error("close resources", "error", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				logger.Info("received signal", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
