package domain

import "time"

// Wallet holds a non-negative balance for one owner within one tenant.
// Amounts are integer minor units (cents). Wallets are created lazily on
// first access with a zero balance, the default currency, and active status.
type Wallet struct {
	ID        string
	TenantKey string
	OwnerID   string
	Balance   int64
	Currency  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Defaults applied when a wallet is created lazily.
const (
	DefaultCurrency = "USD"
	WalletActive    = "active"
)

// Direction marks which side of the ledger a transaction sits on.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// WalletTransaction is one append-only ledger entry. The wallet balance is
// always the signed sum of its committed transactions.
type WalletTransaction struct {
	ID          string
	WalletID    string
	Direction   Direction
	Amount      int64
	Description string
	Reference   string
	CreatedAt   time.Time
}
