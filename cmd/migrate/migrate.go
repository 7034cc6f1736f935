package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finsight/internal/logger"
)

var migrationFilePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration is one versioned SQL file with its placeholders resolved.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	// Checksum covers the file as written, before placeholder substitution,
	// so the same migration matches across projects and datasets.
	Checksum string
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

type migrationTarget struct {
	ProjectID string
	DatasetID string
	AppliedBy string
}

func (t migrationTarget) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", t.ProjectID, t.DatasetID, name)
}

// parseMigrations reads every NNNN_name.sql file at the root of fsys, sorted
// by version. Files that don't match the naming scheme are ignored.
func parseMigrations(fsys fs.FS, target migrationTarget) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version in %s: %w", entry.Name(), err)
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(content)

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", target.ProjectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", target.DatasetID)

		out = append(out, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// pendingMigrations returns the migrations in all that have not been applied.
// An applied migration whose file has since changed is an error.
func pendingMigrations(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	var pending []Migration
	for _, m := range all {
		am, ok := byVersion[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("migration %s was modified after it was applied (checksum %s, recorded %s)",
				m.Filename, m.Checksum, am.Checksum)
		}
	}
	return pending, nil
}

type migrator struct {
	client *bigquery.Client
	target migrationTarget
}

// run applies pending migrations in order and returns how many it applied,
// or in dry-run mode how many are pending.
func (m *migrator) run(ctx context.Context, all []Migration, dryRun bool) (int, error) {
	log := logger.FromContext(ctx)

	if !dryRun {
		if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
			return 0, fmt.Errorf("ensuring schema_migrations table: %w", err)
		}
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int("count", len(applied)).Msg("Found applied migrations")

	pending, err := pendingMigrations(all, applied)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		if dryRun {
			log.Info().Str("migration", mig.Filename).Msg("Pending")
			continue
		}
		log.Info().Str("migration", mig.Filename).Msg("Applying")
		if err := m.exec(ctx, mig.SQL, nil); err != nil {
			return i, fmt.Errorf("executing %s: %w", mig.Filename, err)
		}
		if err := m.record(ctx, mig); err != nil {
			return i, fmt.Errorf("recording %s: %w", mig.Filename, err)
		}
	}
	return len(pending), nil
}

func (m *migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)`, m.target.table("schema_migrations"))
	return m.exec(ctx, sql, nil)
}

func (m *migrator) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC`, m.target.table("schema_migrations")))

	it, err := q.Read(ctx)
	if err != nil {
		// Nothing has been applied yet (dry run against a fresh dataset).
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating applied migrations: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

func (m *migrator) record(ctx context.Context, mig Migration) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s (version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`,
		m.target.table("schema_migrations"))
	return m.exec(ctx, sql, []bigquery.QueryParameter{
		{Name: "version", Value: mig.Version},
		{Name: "name", Value: mig.Name},
		{Name: "checksum", Value: mig.Checksum},
		{Name: "applied_by", Value: m.target.AppliedBy},
	})
}

func (m *migrator) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
