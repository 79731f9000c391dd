package domain

// DirectEntry registers an entity type whose rows carry the tenant key
// themselves.
type DirectEntry struct {
	Name         string
	Table        string
	TenantColumn string
}

// DependentEntry registers an entity type that reaches the tenant through a
// parent: rows reference the parent table's id via ParentColumn. Parents may
// themselves be dependent, forming a chain resolved recursively.
type DependentEntry struct {
	Name         string
	Table        string
	ParentTable  string
	ParentColumn string
}

// DeletionRegistry is the declarative dependency graph CascadeDeleter walks.
// Declaring a type here is what makes it part of tenant deletion; forgetting
// one is a registry bug, not forty scattered controller bugs.
type DeletionRegistry struct {
	Direct    []DirectEntry
	Dependent []DependentEntry
}

// DeletionReport maps entity type name to rows removed. Zero counts are
// reported, not omitted. Transient; never persisted.
type DeletionReport map[string]int64

// DefaultRegistry covers every entity type this engine persists.
func DefaultRegistry() DeletionRegistry {
	return DeletionRegistry{
		Direct: []DirectEntry{
			{Name: "resources", Table: "resources", TenantColumn: "client_identifier"},
			{Name: "wallets", Table: "wallets", TenantColumn: "client_identifier"},
			{Name: "settings", Table: "settings", TenantColumn: "client_identifier"},
		},
		Dependent: []DependentEntry{
			{Name: "wallet_transactions", Table: "wallet_transactions", ParentTable: "wallets", ParentColumn: "wallet_id"},
		},
	}
}
