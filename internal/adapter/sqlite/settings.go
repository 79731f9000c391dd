package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avencia/tenantcore/internal/domain"
)

// Load returns the serialized settings section for the tenant, or
// domain.ErrNotFound if it has never been saved.
func (r *Repository) Load(ctx context.Context, tenantKey, section string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE client_identifier = ? AND section = ?`,
		tenantKey, section,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return []byte(value), nil
}

// Save upserts the serialized section for the tenant.
func (r *Repository) Save(ctx context.Context, tenantKey, section string, raw []byte) error {
	now := time.Now().UTC().Format(timeFormat)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (client_identifier, section, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (client_identifier, section)
		 DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		tenantKey, section, string(raw), now,
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
