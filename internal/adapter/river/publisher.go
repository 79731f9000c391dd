package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/avencia/tenantcore/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// StatusChangedArgs carries a resource status change for async processing.
// River serializes this as JSON into its job queue table. It includes a
// snapshot of the resource at the time of the transition, so the worker
// never needs to query the database.
type StatusChangedArgs struct {
	ResourceID   string `json:"resource_id"`
	TenantKey    string `json:"tenant_key"`
	ResourceType string `json:"resource_type"`
	FromStatus   string `json:"from_status"`
	ToStatus     string `json:"to_status"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StatusChangedArgs) Kind() string { return "resource.status_changed" }

// WalletMovedArgs carries a wallet balance movement for async processing.
type WalletMovedArgs struct {
	WalletID      string `json:"wallet_id"`
	TenantKey     string `json:"tenant_key"`
	OwnerID       string `json:"owner_id"`
	TransactionID string `json:"transaction_id"`
	Direction     string `json:"direction"`
	Amount        int64  `json:"amount"`
	Balance       int64  `json:"balance"`
}

func (WalletMovedArgs) Kind() string { return "wallet.movement" }

// TenantPurgedArgs carries the outcome of a tenant data purge.
type TenantPurgedArgs struct {
	TenantKey string           `json:"tenant_key"`
	Deleted   map[string]int64 `json:"deleted"`
}

func (TenantPurgedArgs) Kind() string { return "tenant.purged" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// StatusChanged enqueues a status change event as an async job.
func (p *Publisher) StatusChanged(ctx context.Context, r domain.Resource, from domain.Status) error {
	_, err := p.client.Insert(ctx, StatusChangedArgs{
		ResourceID:   r.ID,
		TenantKey:    r.TenantKey,
		ResourceType: string(r.Type),
		FromStatus:   string(from),
		ToStatus:     string(r.Status),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing status change job: %w", err)
	}
	return nil
}

// WalletMoved enqueues a wallet movement event as an async job.
func (p *Publisher) WalletMoved(ctx context.Context, w domain.Wallet, tx domain.WalletTransaction) error {
	_, err := p.client.Insert(ctx, WalletMovedArgs{
		WalletID:      w.ID,
		TenantKey:     w.TenantKey,
		OwnerID:       w.OwnerID,
		TransactionID: tx.ID,
		Direction:     string(tx.Direction),
		Amount:        tx.Amount,
		Balance:       w.Balance,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing wallet movement job: %w", err)
	}
	return nil
}

// TenantPurged enqueues a purge completion event as an async job.
func (p *Publisher) TenantPurged(ctx context.Context, tenantKey string, report domain.DeletionReport) error {
	_, err := p.client.Insert(ctx, TenantPurgedArgs{
		TenantKey: tenantKey,
		Deleted:   report,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing tenant purge job: %w", err)
	}
	return nil
}
