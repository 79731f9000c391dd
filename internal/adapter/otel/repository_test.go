package otel_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/avencia/tenantcore/internal/adapter/otel"
	"github.com/avencia/tenantcore/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	resources map[string]domain.Resource
}

func newMockRepo() *mockRepo {
	return &mockRepo{resources: make(map[string]domain.Resource)}
}

func (m *mockRepo) Create(_ context.Context, r domain.Resource) error {
	m.resources[r.ID] = r
	return nil
}

func (m *mockRepo) Get(_ context.Context, tenantKey, id string) (domain.Resource, error) {
	r, ok := m.resources[id]
	if !ok || r.TenantKey != tenantKey {
		return domain.Resource{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *mockRepo) List(_ context.Context, tenantKey string, _ domain.ListQuery) (domain.Page[domain.Resource], error) {
	var items []domain.Resource
	for _, r := range m.resources {
		if r.TenantKey == tenantKey {
			items = append(items, r)
		}
	}
	return domain.Page[domain.Resource]{Items: items, TotalCount: len(items), LastPage: true}, nil
}

func (m *mockRepo) Transition(_ context.Context, tenantKey, id string, fn domain.TransitionFunc) (domain.Resource, error) {
	current, ok := m.resources[id]
	if !ok || current.TenantKey != tenantKey {
		return domain.Resource{}, domain.ErrNotFound
	}
	updated, err := fn(current)
	if err != nil {
		return domain.Resource{}, err
	}
	m.resources[id] = updated
	return updated, nil
}

// --- Tests ---

func TestTracingRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingRepository(newMockRepo())

	res := domain.NewResource("r-1", "clinic-a", domain.TypeAppointment, nil, time.Now().UTC())
	if err := repo.Create(context.Background(), res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "ResourceRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "ResourceRepository.Create")
	}
}

func TestTracingRepository_Get_ErrorSetsSpanStatus(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingRepository(newMockRepo())

	if _, err := repo.Get(context.Background(), "clinic-a", "missing"); err == nil {
		t.Fatal("expected error for missing resource")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
}

func TestTracingRepository_Transition_PassesThrough(t *testing.T) {
	setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)
	ctx := context.Background()

	res := domain.NewResource("r-1", "clinic-a", domain.TypeAppointment, nil, time.Now().UTC())
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Transition(ctx, "clinic-a", "r-1", func(current domain.Resource) (domain.Resource, error) {
		current.Status = domain.StatusConfirmed
		return current, nil
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if got.Status != domain.StatusConfirmed {
		t.Errorf("Status = %q, want confirmed", got.Status)
	}
}
