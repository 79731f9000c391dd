package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avencia/tenantcore/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) StatusChanged(ctx context.Context, res domain.Resource, from domain.Status) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.StatusChanged",
		trace.WithAttributes(
			attribute.String("resource.id", res.ID),
			attribute.String("resource.type", string(res.Type)),
			attribute.String("status.from", string(from)),
			attribute.String("status.to", string(res.Status)),
		),
	)
	defer span.End()

	err := p.next.StatusChanged(ctx, res, from)
	recordError(span, err)
	return err
}

func (p *TracingPublisher) WalletMoved(ctx context.Context, w domain.Wallet, tx domain.WalletTransaction) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.WalletMoved",
		trace.WithAttributes(
			attribute.String("wallet.id", w.ID),
			attribute.String("tenant.key", w.TenantKey),
			attribute.String("transaction.direction", string(tx.Direction)),
			attribute.Int64("transaction.amount", tx.Amount),
		),
	)
	defer span.End()

	err := p.next.WalletMoved(ctx, w, tx)
	recordError(span, err)
	return err
}

func (p *TracingPublisher) TenantPurged(ctx context.Context, tenantKey string, report domain.DeletionReport) error {
	var total int64
	for _, n := range report {
		total += n
	}

	ctx, span := p.tracer.Start(ctx, "EventPublisher.TenantPurged",
		trace.WithAttributes(
			attribute.String("tenant.key", tenantKey),
			attribute.Int64("purge.total_rows", total),
		),
	)
	defer span.End()

	err := p.next.TenantPurged(ctx, tenantKey, report)
	recordError(span, err)
	return err
}
