package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/avencia/tenantcore/internal/adapter/fsm"
	"github.com/avencia/tenantcore/internal/domain"
)

func TestValidator_AllDeclaredTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, def := range domain.Types() {
		for _, tr := range def.Transitions {
			if err := v.Check(ctx, def, tr.Src, tr.Dst); err != nil {
				t.Errorf("%s: Check(%q, %q) unexpected error: %v", def.Name, tr.Src, tr.Dst, err)
			}
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// An appointment cannot complete straight from scheduled.
	err := v.Check(ctx, domain.TypeAppointment, domain.StatusScheduled, domain.StatusCompleted)
	var trErr *domain.InvalidTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if trErr.From != domain.StatusScheduled {
		t.Errorf("From = %q, want %q", trErr.From, domain.StatusScheduled)
	}
	if trErr.To != domain.StatusCompleted {
		t.Errorf("To = %q, want %q", trErr.To, domain.StatusCompleted)
	}
}

func TestValidator_SelfEdgeAllowedWhenDeclared(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// kitchen_order declares preparing -> preparing.
	if err := v.Check(ctx, domain.TypeKitchenOrder, domain.StatusPreparing, domain.StatusPreparing); err != nil {
		t.Errorf("declared self-edge rejected: %v", err)
	}
}

func TestValidator_SelfEdgeRejectedWhenUndeclared(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	err := v.Check(ctx, domain.TypeAppointment, domain.StatusCancelled, domain.StatusCancelled)
	var trErr *domain.InvalidTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected InvalidTransitionError for cancel-twice, got %v", err)
	}
}

func TestValidator_FullParcelLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from domain.Status
		to   domain.Status
	}{
		{domain.StatusPending, domain.StatusConfirmed},
		{domain.StatusConfirmed, domain.StatusDeliveryScheduled},
		{domain.StatusDeliveryScheduled, domain.StatusOutForPickup},
		{domain.StatusOutForPickup, domain.StatusPickedUp},
		{domain.StatusPickedUp, domain.StatusAtWarehouse},
		{domain.StatusAtWarehouse, domain.StatusInTransit},
		{domain.StatusInTransit, domain.StatusOutForDelivery},
		{domain.StatusOutForDelivery, domain.StatusDeliveryAttempted},
		{domain.StatusDeliveryAttempted, domain.StatusOutForDelivery},
		{domain.StatusOutForDelivery, domain.StatusDelivered},
	}

	for _, step := range steps {
		if err := v.Check(ctx, domain.TypeParcel, step.from, step.to); err != nil {
			t.Fatalf("Check(%q, %q) error: %v", step.from, step.to, err)
		}
	}
}
