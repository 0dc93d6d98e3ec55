package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"factorylink/internal/config"
	"factorylink/internal/db"
	"factorylink/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const downMarker = "-- +migrate Down"

type migration struct {
	name string
	up   []string
	down []string
}

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.sql migrations")
	down := flag.Bool("down", false, "roll back the most recently applied migration")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	if _, err := database.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename text PRIMARY KEY, applied_at timestamptz DEFAULT now())`); err != nil {
		log.Fatal("failed to ensure schema_migrations", zap.Error(err))
	}

	migrations, err := loadMigrations(*dir)
	if err != nil {
		log.Fatal("failed to read migrations", zap.String("dir", *dir), zap.Error(err))
	}
	var applied []string
	if err := database.SelectContext(ctx, &applied, `SELECT filename FROM schema_migrations ORDER BY filename`); err != nil {
		log.Fatal("failed to read migration state", zap.Error(err))
	}

	if *down {
		if err := rollbackLatest(ctx, database, migrations, applied, log); err != nil {
			log.Fatal("rollback failed", zap.Error(err))
		}
		return
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}
	for _, m := range migrations {
		if done[m.name] {
			continue
		}
		err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
			if err := execAll(ctx, tx, m.up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, m.name)
			return err
		})
		if err != nil {
			log.Fatal("failed to apply migration", zap.String("file", m.name), zap.Error(err))
		}
		log.Info("applied migration", zap.String("file", m.name))
	}
}

func rollbackLatest(ctx context.Context, database *sqlx.DB, migrations []migration, applied []string, log *zap.Logger) error {
	if len(applied) == 0 {
		log.Info("nothing to roll back")
		return nil
	}
	latest := applied[len(applied)-1]
	for _, m := range migrations {
		if m.name != latest {
			continue
		}
		err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
			if err := execAll(ctx, tx, m.down); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE filename = $1`, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("roll back %s: %w", m.name, err)
		}
		log.Info("rolled back migration", zap.String("file", m.name))
		return nil
	}
	return fmt.Errorf("applied migration %s not found on disk", latest)
}

func loadMigrations(dir string) ([]migration, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]migration, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		up, down, _ := strings.Cut(string(content), downMarker)
		out = append(out, migration{
			name: filepath.Base(file),
			up:   splitSQL(up),
			down: splitSQL(down),
		})
	}
	return out, nil
}

func execAll(ctx context.Context, tx *sqlx.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitSQL breaks a script into statements on lines ending a statement.
// Comment lines are dropped.
func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") || (trimmed == "" && current.Len() == 0) {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
