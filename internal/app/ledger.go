package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avencia/tenantcore/internal/domain"
)

// LedgerService exposes wallet operations: lazy wallet access, credits,
// debits with a non-negative balance guarantee, and atomic transfers.
type LedgerService struct {
	wallets   domain.WalletRepository
	publisher domain.EventPublisher
	clock     domain.Clock
}

// NewLedgerService creates a ledger service with the given adapters.
func NewLedgerService(wallets domain.WalletRepository, publisher domain.EventPublisher, clock domain.Clock) *LedgerService {
	return &LedgerService{
		wallets:   wallets,
		publisher: publisher,
		clock:     clock,
	}
}

// Wallet returns the owner's wallet, creating it with a zero balance, the
// default currency, and active status on first access.
func (s *LedgerService) Wallet(ctx context.Context, tenantKey, ownerID string) (domain.Wallet, error) {
	return s.wallets.GetOrCreate(ctx, tenantKey, ownerID, domain.DefaultCurrency, s.clock.Now())
}

// AddFunds credits the owner's wallet. Amount must be positive.
func (s *LedgerService) AddFunds(ctx context.Context, tenantKey, ownerID string, amount int64, description, reference string) (domain.Wallet, error) {
	if amount <= 0 {
		return domain.Wallet{}, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	entry := s.newEntry(domain.DirectionCredit, amount, description, reference)
	wallet, err := s.wallets.Credit(ctx, tenantKey, ownerID, entry)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("crediting wallet: %w", err)
	}

	if err := s.publisher.WalletMoved(ctx, wallet, entry); err != nil {
		return domain.Wallet{}, fmt.Errorf("publishing wallet movement: %w", err)
	}

	return wallet, nil
}

// DeductFunds debits the owner's wallet. Amount must be positive and no
// greater than the balance as re-read inside the repository's transaction;
// otherwise the deduction fails with InsufficientFunds and nothing is written.
func (s *LedgerService) DeductFunds(ctx context.Context, tenantKey, ownerID string, amount int64, description, reference string) (domain.Wallet, error) {
	if amount <= 0 {
		return domain.Wallet{}, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	entry := s.newEntry(domain.DirectionDebit, amount, description, reference)
	wallet, err := s.wallets.Deduct(ctx, tenantKey, ownerID, entry)
	if err != nil {
		return domain.Wallet{}, err
	}

	if err := s.publisher.WalletMoved(ctx, wallet, entry); err != nil {
		return domain.Wallet{}, fmt.Errorf("publishing wallet movement: %w", err)
	}

	return wallet, nil
}

// Transfer moves funds between two owners' wallets as one atomic unit: a
// debit and a credit that either both commit or neither does. Self-transfers
// are rejected before touching storage.
func (s *LedgerService) Transfer(ctx context.Context, tenantKey, fromOwner, toOwner string, amount int64, description, reference string) (domain.Wallet, domain.Wallet, error) {
	if amount <= 0 {
		return domain.Wallet{}, domain.Wallet{}, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if fromOwner == toOwner {
		return domain.Wallet{}, domain.Wallet{}, &domain.InvalidTransferError{Reason: "source and destination are the same wallet"}
	}

	debit := s.newEntry(domain.DirectionDebit, amount, description, reference)
	credit := s.newEntry(domain.DirectionCredit, amount, description, reference)

	from, to, err := s.wallets.Transfer(ctx, tenantKey, fromOwner, toOwner, debit, credit)
	if err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}

	if err := s.publisher.WalletMoved(ctx, from, debit); err != nil {
		return domain.Wallet{}, domain.Wallet{}, fmt.Errorf("publishing debit: %w", err)
	}
	if err := s.publisher.WalletMoved(ctx, to, credit); err != nil {
		return domain.Wallet{}, domain.Wallet{}, fmt.Errorf("publishing credit: %w", err)
	}

	return from, to, nil
}

// History returns the owner's most recent transactions, newest first.
func (s *LedgerService) History(ctx context.Context, tenantKey, ownerID string, limit int) ([]domain.WalletTransaction, error) {
	if limit < 1 || limit > domain.MaxPerPage {
		limit = domain.MaxPerPage
	}
	return s.wallets.Transactions(ctx, tenantKey, ownerID, limit)
}

func (s *LedgerService) newEntry(dir domain.Direction, amount int64, description, reference string) domain.WalletTransaction {
	return domain.WalletTransaction{
		ID:          uuid.NewString(),
		Direction:   dir,
		Amount:      amount,
		Description: description,
		Reference:   reference,
		CreatedAt:   s.clock.Now(),
	}
}
