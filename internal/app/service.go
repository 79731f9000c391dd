package app

import (
	"context"
	"fmt"

	"github.com/avencia/tenantcore/internal/domain"
)

// ResourceService orchestrates tenant-scoped resource operations: creation,
// reads, filtered listing, and status workflow transitions.
type ResourceService struct {
	repo      domain.ResourceRepository
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	clock     domain.Clock
}

// NewResourceService creates a service with the given adapters.
func NewResourceService(repo domain.ResourceRepository, publisher domain.EventPublisher, validator domain.TransitionValidator, clock domain.Clock) *ResourceService {
	return &ResourceService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		clock:     clock,
	}
}

// Create persists a new resource of the given type in its initial status,
// stamped with the tenant key. Fields are assumed validated upstream.
func (s *ResourceService) Create(ctx context.Context, tenantKey string, typeName domain.ResourceType, fields map[string]any) (domain.Resource, error) {
	def, err := domain.TypeByName(typeName)
	if err != nil {
		return domain.Resource{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Resource{}, fmt.Errorf("generating resource id: %w", err)
	}

	resource := domain.NewResource(id, tenantKey, def, fields, s.clock.Now())

	if err := s.repo.Create(ctx, resource); err != nil {
		return domain.Resource{}, fmt.Errorf("creating resource: %w", err)
	}

	return resource, nil
}

// Get returns a resource within the tenant's scope. A resource owned by
// another tenant is reported as not found.
func (s *ResourceService) Get(ctx context.Context, tenantKey, id string) (domain.Resource, error) {
	return s.repo.Get(ctx, tenantKey, id)
}

// List returns one page of the tenant's resources matching the query. The
// query is normalized against the type definition before it reaches the
// repository, so unknown sort fields and oversized pages never error.
func (s *ResourceService) List(ctx context.Context, tenantKey string, q domain.ListQuery) (domain.Page[domain.Resource], error) {
	def, err := domain.TypeByName(q.Type)
	if err != nil {
		return domain.Page[domain.Resource]{}, err
	}
	return s.repo.List(ctx, tenantKey, q.Normalize(def))
}

// Transition moves a resource to the target status. Legality is re-checked
// against the row as it exists inside the repository's transaction, so two
// concurrent transitions cannot both pass against a stale status. Side
// effects (timestamp stamps, field updates, cancellation reason) apply in the
// same transaction.
func (s *ResourceService) Transition(ctx context.Context, tenantKey, id string, target domain.Status, tc domain.TransitionContext) (domain.Resource, error) {
	var from domain.Status

	updated, err := s.repo.Transition(ctx, tenantKey, id, func(current domain.Resource) (domain.Resource, error) {
		def, err := domain.TypeByName(current.Type)
		if err != nil {
			return domain.Resource{}, err
		}
		if err := s.validator.Check(ctx, def, current.Status, target); err != nil {
			return domain.Resource{}, err
		}
		from = current.Status
		return domain.ApplyTransition(def, current, target, tc, s.clock.Now()), nil
	})
	if err != nil {
		return domain.Resource{}, err
	}

	if err := s.publisher.StatusChanged(ctx, updated, from); err != nil {
		return domain.Resource{}, fmt.Errorf("publishing status change: %w", err)
	}

	return updated, nil
}
