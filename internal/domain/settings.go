package domain

// SettingsSection is a typed per-tenant configuration block. Each section
// serializes to one JSON row keyed by (tenant, section); loading starts from
// the section's defaults and overlays whatever was stored, so adding a field
// later never breaks existing tenants.
type SettingsSection interface {
	SectionKey() string
}

// BookingSettings configures the appointment workflow for a tenant.
type BookingSettings struct {
	SlotMinutes         int  `json:"slot_minutes"`
	AllowDoubleBooking  bool `json:"allow_double_booking"`
	ReminderHoursBefore int  `json:"reminder_hours_before"`
}

func (BookingSettings) SectionKey() string { return "booking" }

// DefaultBookingSettings returns the values a tenant gets before saving any.
func DefaultBookingSettings() BookingSettings {
	return BookingSettings{
		SlotMinutes:         30,
		AllowDoubleBooking:  false,
		ReminderHoursBefore: 24,
	}
}

// DeliverySettings configures the parcel workflow for a tenant.
type DeliverySettings struct {
	MaxAttempts         int    `json:"max_attempts"`
	ReattemptDelayHours int    `json:"reattempt_delay_hours"`
	WarehouseCode       string `json:"warehouse_code"`
}

func (DeliverySettings) SectionKey() string { return "delivery" }

func DefaultDeliverySettings() DeliverySettings {
	return DeliverySettings{
		MaxAttempts:         3,
		ReattemptDelayHours: 24,
	}
}

// WalletSettings configures the ledger for a tenant.
type WalletSettings struct {
	Currency            string `json:"currency"`
	LowBalanceThreshold int64  `json:"low_balance_threshold"`
}

func (WalletSettings) SectionKey() string { return "wallet" }

func DefaultWalletSettings() WalletSettings {
	return WalletSettings{
		Currency: DefaultCurrency,
	}
}
