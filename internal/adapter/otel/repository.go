package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/avencia/tenantcore/internal/domain"
)

const tracerName = "github.com/avencia/tenantcore/internal/adapter/otel"

// TracingRepository wraps a domain.ResourceRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors. Tenant keys go on spans; field payloads do not.
type TracingRepository struct {
	next   domain.ResourceRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.ResourceRepository.
var _ domain.ResourceRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.ResourceRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, res domain.Resource) error {
	ctx, span := r.tracer.Start(ctx, "ResourceRepository.Create",
		trace.WithAttributes(
			attribute.String("resource.id", res.ID),
			attribute.String("resource.type", string(res.Type)),
			attribute.String("tenant.key", res.TenantKey),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, res)
	recordError(span, err)
	return err
}

func (r *TracingRepository) Get(ctx context.Context, tenantKey, id string) (domain.Resource, error) {
	ctx, span := r.tracer.Start(ctx, "ResourceRepository.Get",
		trace.WithAttributes(
			attribute.String("resource.id", id),
			attribute.String("tenant.key", tenantKey),
		),
	)
	defer span.End()

	res, err := r.next.Get(ctx, tenantKey, id)
	recordError(span, err)
	return res, err
}

func (r *TracingRepository) List(ctx context.Context, tenantKey string, q domain.ListQuery) (domain.Page[domain.Resource], error) {
	ctx, span := r.tracer.Start(ctx, "ResourceRepository.List",
		trace.WithAttributes(
			attribute.String("resource.type", string(q.Type)),
			attribute.String("tenant.key", tenantKey),
			attribute.Int("query.page", q.Page),
			attribute.Int("query.per_page", q.PerPage),
		),
	)
	defer span.End()

	page, err := r.next.List(ctx, tenantKey, q)
	if err == nil {
		span.SetAttributes(attribute.Int("query.total", page.TotalCount))
	}
	recordError(span, err)
	return page, err
}

func (r *TracingRepository) Transition(ctx context.Context, tenantKey, id string, fn domain.TransitionFunc) (domain.Resource, error) {
	ctx, span := r.tracer.Start(ctx, "ResourceRepository.Transition",
		trace.WithAttributes(
			attribute.String("resource.id", id),
			attribute.String("tenant.key", tenantKey),
		),
	)
	defer span.End()

	res, err := r.next.Transition(ctx, tenantKey, id, fn)
	if err == nil {
		span.SetAttributes(attribute.String("resource.status", string(res.Status)))
	}
	recordError(span, err)
	return res, err
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
