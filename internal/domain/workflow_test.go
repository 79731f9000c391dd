package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/avencia/tenantcore/internal/domain"
)

func TestTypeByName_Known(t *testing.T) {
	def, err := domain.TypeByName("appointment")
	if err != nil {
		t.Fatalf("TypeByName failed: %v", err)
	}
	if def.Initial != domain.StatusScheduled {
		t.Errorf("Initial = %q, want %q", def.Initial, domain.StatusScheduled)
	}
}

func TestTypeByName_Unknown(t *testing.T) {
	_, err := domain.TypeByName("dental_chart")
	if err == nil {
		t.Fatal("expected error for unknown type, got nil")
	}
	var unknownErr *domain.UnknownTypeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("error type = %T, want *UnknownTypeError", err)
	}
}

func TestAllows(t *testing.T) {
	tests := []struct {
		name string
		def  domain.TypeDef
		from domain.Status
		to   domain.Status
		want bool
	}{
		{"appointment schedule to confirm", domain.TypeAppointment, domain.StatusScheduled, domain.StatusConfirmed, true},
		{"appointment cancel from confirmed", domain.TypeAppointment, domain.StatusConfirmed, domain.StatusCancelled, true},
		{"appointment complete without confirm", domain.TypeAppointment, domain.StatusScheduled, domain.StatusCompleted, false},
		{"appointment cancel twice", domain.TypeAppointment, domain.StatusCancelled, domain.StatusCancelled, false},
		{"parcel attempt retry", domain.TypeParcel, domain.StatusDeliveryAttempted, domain.StatusOutForDelivery, true},
		{"parcel deliver from pending", domain.TypeParcel, domain.StatusPending, domain.StatusDelivered, false},
		{"kitchen preparing re-entry", domain.TypeKitchenOrder, domain.StatusPreparing, domain.StatusPreparing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.Allows(tt.from, tt.to); got != tt.want {
				t.Errorf("Allows(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestApplyTransition_StampsAndReason(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := domain.NewResource("r-1", "clinic-a", domain.TypeAppointment, nil, now.Add(-time.Hour))

	later := now.Add(time.Minute)
	got := domain.ApplyTransition(domain.TypeAppointment, r, domain.StatusCancelled,
		domain.TransitionContext{Reason: "patient request"}, later)

	if got.Status != domain.StatusCancelled {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusCancelled)
	}
	if got.Stamps["cancelled_at"] != later {
		t.Errorf("cancelled_at = %v, want %v", got.Stamps["cancelled_at"], later)
	}
	if got.Fields["cancellation_reason"] != "patient request" {
		t.Errorf("cancellation_reason = %v, want %q", got.Fields["cancellation_reason"], "patient request")
	}
	if got.UpdatedAt != later {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func TestApplyTransition_IdempotentStamp(t *testing.T) {
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := domain.NewResource("o-1", "cafe-b", domain.TypeKitchenOrder, nil, first.Add(-time.Hour))
	r.Status = domain.StatusAccepted

	r = domain.ApplyTransition(domain.TypeKitchenOrder, r, domain.StatusPreparing, domain.TransitionContext{}, first)
	if r.Stamps["prepared_at"] != first {
		t.Fatalf("prepared_at = %v, want %v", r.Stamps["prepared_at"], first)
	}

	// Re-entering preparing must not move the stamp.
	second := first.Add(10 * time.Minute)
	r = domain.ApplyTransition(domain.TypeKitchenOrder, r, domain.StatusPreparing, domain.TransitionContext{}, second)
	if r.Stamps["prepared_at"] != first {
		t.Errorf("prepared_at moved to %v after re-entry, want %v", r.Stamps["prepared_at"], first)
	}
}

func TestApplyTransition_SetFields(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	r := domain.NewResource("p-1", "courier-c", domain.TypeParcel, map[string]any{"courier_available": false}, now)
	r.Status = domain.StatusOutForDelivery

	r = domain.ApplyTransition(domain.TypeParcel, r, domain.StatusDelivered, domain.TransitionContext{}, now)

	if r.Fields["courier_available"] != true {
		t.Errorf("courier_available = %v, want true", r.Fields["courier_available"])
	}
	if _, ok := r.Stamps["delivered_at"]; !ok {
		t.Error("delivered_at not stamped")
	}
}
