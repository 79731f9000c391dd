package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/avencia/tenantcore/internal/adapter/sqlite"
	"github.com/avencia/tenantcore/internal/domain"
)

// newTestRepo creates an in-memory SQLite repository for testing.
func newTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var baseTime = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newAppointment(id, tenantKey string, fields map[string]any, createdAt time.Time) domain.Resource {
	return domain.NewResource(id, tenantKey, domain.TypeAppointment, fields, createdAt)
}

func mustCreate(t *testing.T, repo *sqlite.Repository, res domain.Resource) {
	t.Helper()
	if err := repo.Create(context.Background(), res); err != nil {
		t.Fatalf("mustCreate failed: %v", err)
	}
}

func normalized(q domain.ListQuery) domain.ListQuery {
	return q.Normalize(domain.TypeAppointment)
}

func TestCreate_And_Get(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := newAppointment("a-1", "clinic-a", map[string]any{"patient_name": "Ana Flores"}, baseTime)
	mustCreate(t, repo, res)

	got, err := repo.Get(ctx, "clinic-a", "a-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TenantKey != "clinic-a" {
		t.Errorf("TenantKey = %q, want %q", got.TenantKey, "clinic-a")
	}
	if got.Fields["patient_name"] != "Ana Flores" {
		t.Errorf("patient_name = %v, want %q", got.Fields["patient_name"], "Ana Flores")
	}
	if got.Status != domain.StatusScheduled {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusScheduled)
	}
}

func TestGet_CrossTenantIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	mustCreate(t, repo, newAppointment("a-1", "clinic-a", nil, baseTime))

	_, err := repo.Get(context.Background(), "clinic-b", "a-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList_FiltersByStatusAndTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := newAppointment("a-1", "clinic-a", nil, baseTime)
	b := newAppointment("a-2", "clinic-a", nil, baseTime)
	b.Status = domain.StatusCancelled
	other := newAppointment("a-3", "clinic-b", nil, baseTime)
	mustCreate(t, repo, a)
	mustCreate(t, repo, b)
	mustCreate(t, repo, other)

	page, err := repo.List(ctx, "clinic-a", normalized(domain.ListQuery{
		Equals: []domain.Equals{{Field: "status", Value: "scheduled"}},
	}))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "a-1" {
		t.Errorf("items = %v, want [a-1]", ids(page.Items))
	}
	if page.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", page.TotalCount)
	}
}

func TestList_SearchAcrossFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, newAppointment("a-1", "clinic-a", map[string]any{"patient_name": "Maria Gomez"}, baseTime))
	mustCreate(t, repo, newAppointment("a-2", "clinic-a", map[string]any{"provider_name": "Dr. Gomez"}, baseTime))
	mustCreate(t, repo, newAppointment("a-3", "clinic-a", map[string]any{"patient_name": "John Doe"}, baseTime))

	page, err := repo.List(ctx, "clinic-a", normalized(domain.ListQuery{Search: "GOMEZ"}))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("got %d items for search, want 2: %v", len(page.Items), ids(page.Items))
	}
}

func TestList_EmptySearchIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	mustCreate(t, repo, newAppointment("a-1", "clinic-a", nil, baseTime))

	page, err := repo.List(context.Background(), "clinic-a", normalized(domain.ListQuery{Search: "  "}))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("empty search filtered out rows: got %d items, want 1", len(page.Items))
	}
}

func TestList_RangeOnCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreate(t, repo, newAppointment(fmt.Sprintf("a-%d", i), "clinic-a", nil, baseTime.Add(time.Duration(i)*24*time.Hour)))
	}

	page, err := repo.List(ctx, "clinic-a", normalized(domain.ListQuery{
		Ranges: []domain.Range{{
			Field: "created_at",
			Min:   baseTime.Add(12 * time.Hour).Format("2006-01-02T15:04:05Z"),
		}},
	}))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("got %d items in range, want 2", len(page.Items))
	}
}

func TestList_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		mustCreate(t, repo, newAppointment(fmt.Sprintf("a-%d", i), "clinic-a", nil, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	q := domain.ListQuery{
		Sort:    domain.Sort{Field: "created_at", Direction: domain.SortAsc},
		Page:    2,
		PerPage: 3,
	}
	page, err := repo.List(ctx, "clinic-a", normalized(q))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(page.Items) != 3 {
		t.Errorf("got %d items, want 3", len(page.Items))
	}
	if page.TotalCount != 7 {
		t.Errorf("TotalCount = %d, want 7", page.TotalCount)
	}
	if page.LastPage {
		t.Error("page 2 of 3 reported as last")
	}
	if page.Items[0].ID != "a-3" {
		t.Errorf("first item = %q, want a-3", page.Items[0].ID)
	}

	q.Page = 3
	last, err := repo.List(ctx, "clinic-a", normalized(q))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(last.Items) != 1 {
		t.Errorf("last page has %d items, want 1", len(last.Items))
	}
	if !last.LastPage {
		t.Error("final page not reported as last")
	}
}

func TestList_LimitMode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreate(t, repo, newAppointment(fmt.Sprintf("a-%d", i), "clinic-a", nil, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	page, err := repo.List(ctx, "clinic-a", normalized(domain.ListQuery{
		Sort:  domain.Sort{Field: "created_at", Direction: domain.SortDesc},
		Limit: 2,
	}))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	if page.Items[0].ID != "a-4" {
		t.Errorf("top item = %q, want a-4 (newest)", page.Items[0].ID)
	}
	if !page.LastPage {
		t.Error("limit mode must report LastPage")
	}
}

func TestList_RelatedPredicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Two parcels; one has a related kitchen_order pointing back at it.
	p1 := domain.NewResource("p-1", "hub-a", domain.TypeParcel, nil, baseTime)
	p2 := domain.NewResource("p-2", "hub-a", domain.TypeParcel, nil, baseTime)
	order := domain.NewResource("o-1", "hub-a", domain.TypeKitchenOrder,
		map[string]any{"parcel_id": "p-1", "customer_name": "Acme Biller"}, baseTime)
	mustCreate(t, repo, p1)
	mustCreate(t, repo, p2)
	mustCreate(t, repo, order)

	page, err := repo.List(ctx, "hub-a", domain.ListQuery{
		Related: []domain.HasRelated{{
			Type:         "kitchen_order",
			ForeignField: "parcel_id",
			MatchField:   "customer_name",
			Term:         "acme",
		}},
	}.Normalize(domain.TypeParcel))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "p-1" {
		t.Errorf("items = %v, want [p-1]", ids(page.Items))
	}
}

func TestTransition_AppliesAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, newAppointment("a-1", "clinic-a", nil, baseTime))

	now := baseTime.Add(time.Hour)
	got, err := repo.Transition(ctx, "clinic-a", "a-1", func(current domain.Resource) (domain.Resource, error) {
		return domain.ApplyTransition(domain.TypeAppointment, current, domain.StatusCancelled,
			domain.TransitionContext{Reason: "sick"}, now), nil
	})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if got.Status != domain.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}

	stored, err := repo.Get(ctx, "clinic-a", "a-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != domain.StatusCancelled {
		t.Errorf("stored status = %q, want cancelled", stored.Status)
	}
	if !stored.Stamps["cancelled_at"].Equal(now) {
		t.Errorf("cancelled_at = %v, want %v", stored.Stamps["cancelled_at"], now)
	}
	if stored.Fields["cancellation_reason"] != "sick" {
		t.Errorf("cancellation_reason = %v, want %q", stored.Fields["cancellation_reason"], "sick")
	}
}

func TestTransition_FnErrorLeavesRowUntouched(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, newAppointment("a-1", "clinic-a", nil, baseTime))

	wantErr := &domain.InvalidTransitionError{Type: "appointment", From: domain.StatusScheduled, To: domain.StatusCompleted}
	_, err := repo.Transition(ctx, "clinic-a", "a-1", func(domain.Resource) (domain.Resource, error) {
		return domain.Resource{}, wantErr
	})
	var trErr *domain.InvalidTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("error = %v, want *InvalidTransitionError", err)
	}

	stored, _ := repo.Get(ctx, "clinic-a", "a-1")
	if stored.Status != domain.StatusScheduled {
		t.Errorf("stored status = %q, want unchanged scheduled", stored.Status)
	}
}

func TestTransition_WrongTenantIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	mustCreate(t, repo, newAppointment("a-1", "clinic-a", nil, baseTime))

	_, err := repo.Transition(context.Background(), "clinic-b", "a-1", func(current domain.Resource) (domain.Resource, error) {
		return current, nil
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTransition_TenantKeyRewriteDenied(t *testing.T) {
	repo := newTestRepo(t)
	mustCreate(t, repo, newAppointment("a-1", "clinic-a", nil, baseTime))

	_, err := repo.Transition(context.Background(), "clinic-a", "a-1", func(current domain.Resource) (domain.Resource, error) {
		current.TenantKey = "clinic-b"
		return current, nil
	})
	var denied *domain.AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error = %v, want *AccessDeniedError", err)
	}
}

func ids(items []domain.Resource) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}
