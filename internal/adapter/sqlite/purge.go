package sqlite

import (
	"context"
	"fmt"

	"github.com/avencia/tenantcore/internal/domain"
)

// PurgeTenant deletes every registered row the tenant owns in one
// transaction: counts are captured first, dependents are removed before
// their parents, and any failure rolls everything back so the report never
// describes a partial deletion.
func (r *Repository) PurgeTenant(ctx context.Context, tenantKey string, reg domain.DeletionRegistry) (domain.DeletionReport, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	report := domain.DeletionReport{}

	// Resolve each dependent's path back to a tenant-keyed table. Deeper
	// chains must be deleted first so foreign keys never dangle mid-purge.
	deps := make([]resolvedDep, 0, len(reg.Dependent))
	for _, dep := range reg.Dependent {
		sub, depth, err := resolveParentChain(reg, dep, 0)
		if err != nil {
			return nil, err
		}
		deps = append(deps, resolvedDep{entry: dep, sub: sub, depth: depth})
	}

	// Counts before any deletion, zeroes included.
	for _, d := range reg.Direct {
		var n int64
		if err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", d.Table, d.TenantColumn), tenantKey,
		).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", d.Name, err)
		}
		report[d.Name] = n
	}
	for _, d := range deps {
		var n int64
		if err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IN (%s)", d.entry.Table, d.entry.ParentColumn, d.sub), tenantKey,
		).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", d.entry.Name, err)
		}
		report[d.entry.Name] = n
	}

	// Dependents first, deepest chains before their parents.
	for depth := maxDepth(deps); depth >= 1; depth-- {
		for _, d := range deps {
			if d.depth != depth {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", d.entry.Table, d.entry.ParentColumn, d.sub), tenantKey,
			); err != nil {
				return nil, fmt.Errorf("deleting %s: %w", d.entry.Name, err)
			}
		}
	}

	for _, d := range reg.Direct {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ?", d.Table, d.TenantColumn), tenantKey,
		); err != nil {
			return nil, fmt.Errorf("deleting %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purge: %w", err)
	}
	return report, nil
}

// resolveParentChain builds the id subquery that scopes a dependent table to
// the tenant by walking declared parent relations until it reaches a table
// that carries the tenant key. The resulting SQL has exactly one placeholder:
// the tenant key.
func resolveParentChain(reg domain.DeletionRegistry, dep domain.DependentEntry, depth int) (string, int, error) {
	if depth >= len(reg.Dependent)+1 {
		return "", 0, fmt.Errorf("deletion registry: cycle resolving parent of %q", dep.Name)
	}

	for _, d := range reg.Direct {
		if d.Table == dep.ParentTable {
			return fmt.Sprintf("SELECT id FROM %s WHERE %s = ?", d.Table, d.TenantColumn), depth + 1, nil
		}
	}

	for _, d := range reg.Dependent {
		if d.Table == dep.ParentTable {
			sub, parentDepth, err := resolveParentChain(reg, d, depth+1)
			if err != nil {
				return "", 0, err
			}
			return fmt.Sprintf("SELECT id FROM %s WHERE %s IN (%s)", d.Table, d.ParentColumn, sub), parentDepth + 1, nil
		}
	}

	return "", 0, fmt.Errorf("deletion registry: %q declares unknown parent table %q", dep.Name, dep.ParentTable)
}

type resolvedDep struct {
	entry domain.DependentEntry
	sub   string
	depth int
}

func maxDepth(deps []resolvedDep) int {
	max := 0
	for _, d := range deps {
		if d.depth > max {
			max = d.depth
		}
	}
	return max
}
