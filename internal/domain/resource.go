package domain

import "time"

// Status is the lifecycle state of a resource, drawn from its type's
// transition table.
type Status string

// ResourceType names a registered kind of resource (appointment, parcel...).
type ResourceType string

// Resource is the core domain entity: any tenant-owned business record that
// moves through a status workflow. Domain-specific payload lives in Fields;
// timestamps stamped by transitions live in Stamps.
type Resource struct {
	ID        string
	TenantKey string
	Type      ResourceType
	Status    Status
	Fields    map[string]any
	Stamps    map[string]time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewResource creates a resource in its type's initial status, stamped with
// the owning tenant. The tenant key is immutable after this point.
func NewResource(id, tenantKey string, def TypeDef, fields map[string]any, now time.Time) Resource {
	if fields == nil {
		fields = map[string]any{}
	}
	return Resource{
		ID:        id,
		TenantKey: tenantKey,
		Type:      def.Name,
		Status:    def.Initial,
		Fields:    fields,
		Stamps:    map[string]time.Time{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Stamp records a named timestamp if it is not already set. Transitions use
// this so re-entering a status never overwrites an earlier stamp.
func (r *Resource) Stamp(name string, now time.Time) {
	if r.Stamps == nil {
		r.Stamps = map[string]time.Time{}
	}
	if _, ok := r.Stamps[name]; !ok {
		r.Stamps[name] = now
	}
}
