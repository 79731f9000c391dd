package app

import (
	"context"
	"fmt"

	"github.com/avencia/tenantcore/internal/domain"
)

// PurgeService deletes every row a tenant owns across the registered entity
// graph. The whole deletion is one transaction: a failure on any table leaves
// all of them untouched.
type PurgeService struct {
	purger    domain.TenantPurger
	publisher domain.EventPublisher
	registry  domain.DeletionRegistry
}

// NewPurgeService creates a purge service over the given registry.
func NewPurgeService(purger domain.TenantPurger, publisher domain.EventPublisher, registry domain.DeletionRegistry) *PurgeService {
	return &PurgeService{
		purger:    purger,
		publisher: publisher,
		registry:  registry,
	}
}

// DeleteTenant removes all registered data for the tenant and reports
// per-type counts, including zeroes.
func (s *PurgeService) DeleteTenant(ctx context.Context, tenantKey string) (domain.DeletionReport, error) {
	report, err := s.purger.PurgeTenant(ctx, tenantKey, s.registry)
	if err != nil {
		return nil, fmt.Errorf("purging tenant %q: %w", tenantKey, err)
	}

	if err := s.publisher.TenantPurged(ctx, tenantKey, report); err != nil {
		return nil, fmt.Errorf("publishing purge event: %w", err)
	}

	return report, nil
}
