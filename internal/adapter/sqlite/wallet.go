package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avencia/tenantcore/internal/domain"
)

// Wallet persistence. Every mutation is one transaction; balances are
// re-read inside that transaction before any sufficiency check, so two
// concurrent deductions can never both pass against a stale balance.

// GetOrCreate returns the owner's wallet, creating it with a zero balance,
// the given currency, and active status on first access.
func (r *Repository) GetOrCreate(ctx context.Context, tenantKey, ownerID, currency string, now time.Time) (domain.Wallet, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := getOrCreateWallet(ctx, tx, tenantKey, ownerID, currency, now)
	if err != nil {
		return domain.Wallet{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Wallet{}, fmt.Errorf("committing wallet access: %w", err)
	}
	return wallet, nil
}

// Credit appends a credit transaction and increments the balance atomically.
func (r *Repository) Credit(ctx context.Context, tenantKey, ownerID string, entry domain.WalletTransaction) (domain.Wallet, error) {
	return r.mutateWallet(ctx, tenantKey, ownerID, entry, func(w domain.Wallet) (int64, error) {
		return w.Balance + entry.Amount, nil
	})
}

// Deduct appends a debit transaction and decrements the balance atomically.
// It fails with InsufficientFunds when the amount exceeds the balance as it
// exists inside the transaction, leaving nothing written.
func (r *Repository) Deduct(ctx context.Context, tenantKey, ownerID string, entry domain.WalletTransaction) (domain.Wallet, error) {
	return r.mutateWallet(ctx, tenantKey, ownerID, entry, func(w domain.Wallet) (int64, error) {
		if entry.Amount > w.Balance {
			return 0, &domain.InsufficientFundsError{Balance: w.Balance, Requested: entry.Amount}
		}
		return w.Balance - entry.Amount, nil
	})
}

// Transfer debits one wallet and credits the other in a single transaction:
// if either side cannot be applied, neither persists.
func (r *Repository) Transfer(ctx context.Context, tenantKey, fromOwner, toOwner string, debit, credit domain.WalletTransaction) (domain.Wallet, domain.Wallet, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wallet{}, domain.Wallet{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := debit.CreatedAt
	from, err := getOrCreateWallet(ctx, tx, tenantKey, fromOwner, domain.DefaultCurrency, now)
	if err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}
	to, err := getOrCreateWallet(ctx, tx, tenantKey, toOwner, domain.DefaultCurrency, now)
	if err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}

	if from.ID == to.ID {
		return domain.Wallet{}, domain.Wallet{}, &domain.InvalidTransferError{Reason: "source and destination are the same wallet"}
	}
	if from.TenantKey != to.TenantKey {
		return domain.Wallet{}, domain.Wallet{}, &domain.InvalidTransferError{Reason: "wallets belong to different tenants"}
	}
	if from.Currency != to.Currency {
		return domain.Wallet{}, domain.Wallet{}, &domain.InvalidTransferError{Reason: "wallets hold different currencies"}
	}
	if debit.Amount > from.Balance {
		return domain.Wallet{}, domain.Wallet{}, &domain.InsufficientFundsError{Balance: from.Balance, Requested: debit.Amount}
	}

	from.Balance -= debit.Amount
	to.Balance += credit.Amount

	if err := writeBalance(ctx, tx, from, now); err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}
	if err := writeBalance(ctx, tx, to, now); err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}
	if err := insertEntry(ctx, tx, from.ID, debit); err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}
	if err := insertEntry(ctx, tx, to.ID, credit); err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Wallet{}, domain.Wallet{}, fmt.Errorf("committing transfer: %w", err)
	}
	return from, to, nil
}

// Transactions returns the owner's most recent ledger entries, newest first.
// Timestamps are stored with second precision, so rowid breaks ties in
// insertion order. An owner who never touched their wallet simply has none.
func (r *Repository) Transactions(ctx context.Context, tenantKey, ownerID string, limit int) ([]domain.WalletTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.wallet_id, t.direction, t.amount, t.description, t.reference, t.created_at
		 FROM wallet_transactions t
		 JOIN wallets w ON w.id = t.wallet_id
		 WHERE w.client_identifier = ? AND w.owner_id = ?
		 ORDER BY t.created_at DESC, t.rowid DESC
		 LIMIT ?`, tenantKey, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.WalletTransaction
	for rows.Next() {
		var entry domain.WalletTransaction
		var direction, createdAt string
		if err := rows.Scan(&entry.ID, &entry.WalletID, &direction, &entry.Amount, &entry.Description, &entry.Reference, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		entry.Direction = domain.Direction(direction)
		entry.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *Repository) mutateWallet(ctx context.Context, tenantKey, ownerID string, entry domain.WalletTransaction, newBalance func(domain.Wallet) (int64, error)) (domain.Wallet, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := getOrCreateWallet(ctx, tx, tenantKey, ownerID, domain.DefaultCurrency, entry.CreatedAt)
	if err != nil {
		return domain.Wallet{}, err
	}

	balance, err := newBalance(wallet)
	if err != nil {
		return domain.Wallet{}, err
	}
	wallet.Balance = balance

	if err := writeBalance(ctx, tx, wallet, entry.CreatedAt); err != nil {
		return domain.Wallet{}, err
	}
	if err := insertEntry(ctx, tx, wallet.ID, entry); err != nil {
		return domain.Wallet{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Wallet{}, fmt.Errorf("committing wallet mutation: %w", err)
	}
	return wallet, nil
}

func getOrCreateWallet(ctx context.Context, tx *sql.Tx, tenantKey, ownerID, currency string, now time.Time) (domain.Wallet, error) {
	var w domain.Wallet
	var createdAt, updatedAt string

	err := tx.QueryRowContext(ctx,
		`SELECT id, client_identifier, owner_id, balance, currency, status, created_at, updated_at
		 FROM wallets WHERE client_identifier = ? AND owner_id = ?`, tenantKey, ownerID,
	).Scan(&w.ID, &w.TenantKey, &w.OwnerID, &w.Balance, &w.Currency, &w.Status, &createdAt, &updatedAt)
	if err == nil {
		w.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		w.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Wallet{}, fmt.Errorf("loading wallet: %w", err)
	}

	w = domain.Wallet{
		ID:        uuid.NewString(),
		TenantKey: tenantKey,
		OwnerID:   ownerID,
		Balance:   0,
		Currency:  currency,
		Status:    domain.WalletActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (id, client_identifier, owner_id, balance, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?, ?)`,
		w.ID, w.TenantKey, w.OwnerID, w.Currency, w.Status,
		now.Format(timeFormat), now.Format(timeFormat),
	); err != nil {
		return domain.Wallet{}, fmt.Errorf("creating wallet: %w", err)
	}
	return w, nil
}

func writeBalance(ctx context.Context, tx *sql.Tx, w domain.Wallet, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = ?, updated_at = ? WHERE id = ?`,
		w.Balance, now.Format(timeFormat), w.ID,
	); err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, walletID string, entry domain.WalletTransaction) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, wallet_id, direction, amount, description, reference, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, walletID, string(entry.Direction), entry.Amount,
		entry.Description, entry.Reference, entry.CreatedAt.Format(timeFormat),
	); err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}
	return nil
}
