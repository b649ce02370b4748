package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/opsenary/apptracker/internal/adapters/auditlog"
	"github.com/opsenary/apptracker/internal/core/domain"
)

// defaultLogPaths are tried in order when --log-file is not given.
var defaultLogPaths = []string{
	"./logs/" + auditlog.FileName,
	"/var/log/apptracker/" + auditlog.FileName,
}

func main() {
	cmd := &cli.Command{
		Name:  "auditlog",
		Usage: "Query the apptracker change log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-file",
				Sources: cli.EnvVars("APPTRACKER_AUDIT_LOG_FILE"),
				Usage:   "Path to the audit log file",
			},
			&cli.BoolFlag{
				Name:  "json-only",
				Usage: "Print matching entries as JSON instead of the human form",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Filter by acting user (case-insensitive exact match)",
			},
			&cli.StringFlag{
				Name:  "action",
				Usage: "Filter by action: CREATE, UPDATE or DELETE",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Filter by record kind (substring match)",
			},
			&cli.StringFlag{
				Name:  "since",
				Usage: "Only entries at or after this time (YYYY-MM-DD HH:MM:SS)",
			},
			&cli.IntFlag{
				Name:  "tail",
				Usage: "Only look at the last N log lines",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ context.Context, c *cli.Command) error {
	path, err := resolveLogPath(c.String("log-file"))
	if err != nil {
		return err
	}

	filter := auditlog.Filter{
		User:   c.String("user"),
		Action: c.String("action"),
		Model:  c.String("model"),
		Tail:   int(c.Int("tail")),
	}
	if raw := c.String("since"); raw != "" {
		since, err := time.ParseInLocation(domain.AuditTimeFormat, raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since %q: expected format %s", raw, domain.AuditTimeFormat)
		}
		filter.Since = since
	}

	events, err := auditlog.Query(path, filter)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("No matching audit log entries found")
		return nil
	}

	fmt.Printf("Found %d matching audit log entries\n", len(events))
	separator := strings.Repeat("=", 80)
	for _, event := range events {
		fmt.Println(separator)
		if c.Bool("json-only") {
			data, err := json.MarshalIndent(event, "", "  ")
			if err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
			fmt.Println(string(data))
			continue
		}
		printEvent(event)
	}
	fmt.Println(separator)
	return nil
}

func resolveLogPath(flag string) (string, error) {
	if flag != "" {
		if _, err := os.Stat(flag); err != nil {
			return "", fmt.Errorf("audit log not found at %s", flag)
		}
		return flag, nil
	}
	for _, path := range defaultLogPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no audit log found; searched %s", strings.Join(defaultLogPaths, ", "))
}

func printEvent(event domain.AuditEvent) {
	fmt.Printf("[%s] %s %s#%s by %s: %s\n",
		event.Timestamp, event.Action, event.Model, event.ObjectID, event.User, event.ObjectStr)

	if len(event.Changes) > 0 {
		fmt.Println("  Changes:")
		fields := make([]string, 0, len(event.Changes))
		for field := range event.Changes {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			change := event.Changes[field]
			fmt.Printf("    %s: %s -> %s\n", field, change.Old, change.New)
		}
	}

	if len(event.AdditionalInfo) > 0 {
		fmt.Println("  Info:")
		keys := make([]string, 0, len(event.AdditionalInfo))
		for key := range event.AdditionalInfo {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("    %s: %s\n", key, event.AdditionalInfo[key])
		}
	}
}
