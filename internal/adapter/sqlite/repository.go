package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avencia/tenantcore/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Repository is the SQLite persistence adapter. It implements
// domain.ResourceRepository here; the wallet, purge, and settings contracts
// live in their own files over the same connection.
type Repository struct {
	db *sql.DB
}

// Compile-time checks: Repository implements every persistence port.
var (
	_ domain.ResourceRepository = (*Repository)(nil)
	_ domain.WalletRepository   = (*Repository)(nil)
	_ domain.TenantPurger       = (*Repository)(nil)
	_ domain.SettingsRepository = (*Repository)(nil)
)

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*Repository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns
// a ready repository. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Repository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (r *Repository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

func (r *Repository) Create(ctx context.Context, res domain.Resource) error {
	fields, stamps, err := encodePayload(res)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO resources (id, client_identifier, resource_type, status, fields, stamps, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.TenantKey, string(res.Type), string(res.Status), fields, stamps,
		res.CreatedAt.Format(timeFormat),
		res.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, tenantKey, id string) (domain.Resource, error) {
	return scanResource(r.db.QueryRowContext(ctx,
		`SELECT id, client_identifier, resource_type, status, fields, stamps, created_at, updated_at
		 FROM resources WHERE id = ? AND client_identifier = ?`, id, tenantKey,
	))
}

func (r *Repository) List(ctx context.Context, tenantKey string, q domain.ListQuery) (domain.Page[domain.Resource], error) {
	where, args := buildWhere(tenantKey, q)
	base := `SELECT id, client_identifier, resource_type, status, fields, stamps, created_at, updated_at
		 FROM resources ` + where
	order := ` ORDER BY ` + sortExpr(q.Sort)

	if q.Limit > 0 {
		rows, err := r.db.QueryContext(ctx, base+order+` LIMIT ?`, append(args, q.Limit)...)
		if err != nil {
			return domain.Page[domain.Resource]{}, fmt.Errorf("listing resources: %w", err)
		}
		items, err := collectResources(rows)
		if err != nil {
			return domain.Page[domain.Resource]{}, err
		}
		return domain.Page[domain.Resource]{
			Items:      items,
			TotalCount: len(items),
			PageNumber: 1,
			PerPage:    q.Limit,
			LastPage:   true,
		}, nil
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources `+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Resource]{}, fmt.Errorf("counting resources: %w", err)
	}

	offset := (q.Page - 1) * q.PerPage
	rows, err := r.db.QueryContext(ctx, base+order+` LIMIT ? OFFSET ?`, append(args, q.PerPage, offset)...)
	if err != nil {
		return domain.Page[domain.Resource]{}, fmt.Errorf("listing resources: %w", err)
	}
	items, err := collectResources(rows)
	if err != nil {
		return domain.Page[domain.Resource]{}, err
	}

	return domain.Page[domain.Resource]{
		Items:      items,
		TotalCount: total,
		PageNumber: q.Page,
		PerPage:    q.PerPage,
		LastPage:   offset+len(items) >= total,
	}, nil
}

// Transition re-reads the row inside a transaction, applies fn, and writes
// the result back. A returned error from fn aborts with a rollback, so the
// legality check and the status write are atomic relative to concurrent
// transitions on the same resource.
func (r *Repository) Transition(ctx context.Context, tenantKey, id string, fn domain.TransitionFunc) (domain.Resource, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Resource{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanResource(tx.QueryRowContext(ctx,
		`SELECT id, client_identifier, resource_type, status, fields, stamps, created_at, updated_at
		 FROM resources WHERE id = ? AND client_identifier = ?`, id, tenantKey,
	))
	if err != nil {
		return domain.Resource{}, err
	}

	updated, err := fn(current)
	if err != nil {
		return domain.Resource{}, err
	}

	// The tenant key is immutable; a transition that moves a resource to
	// another tenant is a scope violation, not an update.
	if updated.TenantKey != tenantKey || updated.ID != id {
		return domain.Resource{}, &domain.AccessDeniedError{TenantKey: tenantKey}
	}

	fields, stamps, err := encodePayload(updated)
	if err != nil {
		return domain.Resource{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE resources SET status = ?, fields = ?, stamps = ?, updated_at = ?
		 WHERE id = ? AND client_identifier = ?`,
		string(updated.Status), fields, stamps,
		updated.UpdatedAt.Format(timeFormat), id, tenantKey,
	); err != nil {
		return domain.Resource{}, fmt.Errorf("updating resource: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Resource{}, fmt.Errorf("committing transition: %w", err)
	}

	return updated, nil
}

// buildWhere translates a normalized ListQuery into a WHERE clause. Field
// predicates beyond the fixed columns target the JSON fields document via
// json_extract; search ORs a case-insensitive LIKE across the type's
// declared searchable fields.
func buildWhere(tenantKey string, q domain.ListQuery) (string, []any) {
	conds := []string{"client_identifier = ?", "resource_type = ?"}
	args := []any{tenantKey, string(q.Type)}

	for _, eq := range q.Equals {
		conds = append(conds, fieldExpr(eq.Field)+" = ?")
		args = append(args, eq.Value)
	}

	for _, rng := range q.Ranges {
		if rng.Min != "" {
			conds = append(conds, fieldExpr(rng.Field)+" >= ?")
			args = append(args, rng.Min)
		}
		if rng.Max != "" {
			conds = append(conds, fieldExpr(rng.Field)+" <= ?")
			args = append(args, rng.Max)
		}
	}

	if q.Search != "" && len(q.SearchFields) > 0 {
		like := "%" + strings.ToLower(q.Search) + "%"
		ors := make([]string, len(q.SearchFields))
		for i, f := range q.SearchFields {
			ors[i] = "LOWER(COALESCE(json_extract(fields, ?), '')) LIKE ?"
			args = append(args, "$."+f, like)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	for _, rel := range q.Related {
		conds = append(conds,
			`EXISTS (SELECT 1 FROM resources related
			 WHERE related.client_identifier = resources.client_identifier
			   AND related.resource_type = ?
			   AND json_extract(related.fields, ?) = resources.id
			   AND LOWER(COALESCE(json_extract(related.fields, ?), '')) LIKE ?)`)
		args = append(args,
			string(rel.Type),
			"$."+rel.ForeignField,
			"$."+rel.MatchField,
			"%"+strings.ToLower(rel.Term)+"%",
		)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// fixed columns; everything else lives in the JSON fields document
var columnFields = map[string]string{
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func fieldExpr(field string) string {
	if col, ok := columnFields[field]; ok {
		return col
	}
	// json_extract path built from a quoted literal: the field name comes
	// from the type definition's whitelists, not raw caller input.
	return "json_extract(fields, '$." + strings.ReplaceAll(field, "'", "") + "')"
}

func sortExpr(s domain.Sort) string {
	dir := "ASC"
	if s.Direction == domain.SortDesc {
		dir = "DESC"
	}
	return fieldExpr(s.Field) + " " + dir
}

func encodePayload(res domain.Resource) (fields, stamps string, err error) {
	f, err := json.Marshal(res.Fields)
	if err != nil {
		return "", "", fmt.Errorf("encoding fields: %w", err)
	}
	s, err := json.Marshal(res.Stamps)
	if err != nil {
		return "", "", fmt.Errorf("encoding stamps: %w", err)
	}
	return string(f), string(s), nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (domain.Resource, error) {
	var res domain.Resource
	var resType, status, fields, stamps, createdAt, updatedAt string

	err := row.Scan(&res.ID, &res.TenantKey, &resType, &status, &fields, &stamps, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Resource{}, domain.ErrNotFound
		}
		return domain.Resource{}, fmt.Errorf("scanning resource: %w", err)
	}

	res.Type = domain.ResourceType(resType)
	res.Status = domain.Status(status)
	if err := json.Unmarshal([]byte(fields), &res.Fields); err != nil {
		return domain.Resource{}, fmt.Errorf("decoding fields: %w", err)
	}
	if err := json.Unmarshal([]byte(stamps), &res.Stamps); err != nil {
		return domain.Resource{}, fmt.Errorf("decoding stamps: %w", err)
	}
	res.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	res.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return res, nil
}

func collectResources(rows *sql.Rows) ([]domain.Resource, error) {
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
