package domain

import (
	"context"
	"time"
)

// TransitionFunc receives the current row re-read inside the repository's
// transaction and returns the resource to write back. Returning an error
// aborts the transaction with nothing applied.
type TransitionFunc func(current Resource) (Resource, error)

// ResourceRepository is the tenant-scoped persistence contract for resources.
// Every method takes the tenant key; reads filter by it, creates stamp it,
// and cross-tenant ids are indistinguishable from missing ones.
type ResourceRepository interface {
	Create(ctx context.Context, r Resource) error
	Get(ctx context.Context, tenantKey, id string) (Resource, error)
	List(ctx context.Context, tenantKey string, q ListQuery) (Page[Resource], error)
	// Transition re-reads the row, applies fn, and writes the result as one
	// atomic unit so two concurrent transitions cannot both pass a stale
	// legality check.
	Transition(ctx context.Context, tenantKey, id string, fn TransitionFunc) (Resource, error)
}

// WalletRepository is the tenant-scoped ledger contract. Credit, Deduct, and
// Transfer lazily create any wallet they touch and run as single
// transactions; Deduct and Transfer re-read the balance inside the
// transaction before the sufficiency check.
type WalletRepository interface {
	GetOrCreate(ctx context.Context, tenantKey, ownerID, currency string, now time.Time) (Wallet, error)
	Credit(ctx context.Context, tenantKey, ownerID string, entry WalletTransaction) (Wallet, error)
	Deduct(ctx context.Context, tenantKey, ownerID string, entry WalletTransaction) (Wallet, error)
	Transfer(ctx context.Context, tenantKey, fromOwner, toOwner string, debit, credit WalletTransaction) (Wallet, Wallet, error)
	Transactions(ctx context.Context, tenantKey, ownerID string, limit int) ([]WalletTransaction, error)
}

// TenantPurger deletes every registered row a tenant owns in one transaction.
type TenantPurger interface {
	PurgeTenant(ctx context.Context, tenantKey string, reg DeletionRegistry) (DeletionReport, error)
}

// SettingsRepository stores serialized settings sections per tenant.
// Load returns ErrNotFound when the section has never been saved.
type SettingsRepository interface {
	Load(ctx context.Context, tenantKey, section string) ([]byte, error)
	Save(ctx context.Context, tenantKey, section string, raw []byte) error
}

// TransitionValidator checks a status change against a type's transition
// table without applying it.
type TransitionValidator interface {
	Check(ctx context.Context, def TypeDef, current, target Status) error
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	StatusChanged(ctx context.Context, r Resource, from Status) error
	WalletMoved(ctx context.Context, w Wallet, tx WalletTransaction) error
	TenantPurged(ctx context.Context, tenantKey string, report DeletionReport) error
}

// Clock supplies "now" so timestamp stamping is deterministic in tests.
type Clock interface {
	Now() time.Time
}
