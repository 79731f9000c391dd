package domain

import "strings"

// SortDirection is the ordering direction for a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort names a field and direction for ordering a listing.
type Sort struct {
	Field     string
	Direction SortDirection
}

// Pagination bounds.
const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// Equals filters on exact field value. "status" targets the status column;
// any other field targets the resource's domain fields.
type Equals struct {
	Field string
	Value any
}

// Range filters a field between two bounds; either bound may be empty.
// Bounds compare lexically, which holds for RFC 3339 timestamps and
// zero-padded codes.
type Range struct {
	Field string
	Min   string
	Max   string
}

// HasRelated keeps resources referenced by at least one resource of Type
// whose ForeignField points back at them and whose MatchField contains Term
// (case-insensitive). Models "has a biller whose name matches".
type HasRelated struct {
	Type         ResourceType
	ForeignField string
	MatchField   string
	Term         string
}

// ListQuery is the declarative query plan a resource listing is built from.
// Normalize must be called before handing it to a repository.
type ListQuery struct {
	Type    ResourceType
	Equals  []Equals
	Ranges  []Range
	Search  string
	Related []HasRelated

	Sort    Sort
	Page    int
	PerPage int

	// Limit switches to "top N" mode: no count query, no paging metadata.
	Limit int

	// SearchFields is resolved from the type definition by Normalize so
	// repositories never need the TypeDef.
	SearchFields []string
}

// Normalize resolves the query against the type definition: clamps paging,
// falls back to the default sort for unknown fields, trims the search term,
// and copies the searchable field list. Unknown sort fields never error.
func (q ListQuery) Normalize(def TypeDef) ListQuery {
	q.Type = def.Name
	q.Search = strings.TrimSpace(q.Search)
	q.SearchFields = def.SearchFields

	if !sortable(def, q.Sort.Field) {
		q.Sort = def.DefaultSort
	}
	if q.Sort.Direction != SortAsc && q.Sort.Direction != SortDesc {
		q.Sort.Direction = def.DefaultSort.Direction
	}

	if q.Limit > 0 {
		if q.Limit > MaxPerPage {
			q.Limit = MaxPerPage
		}
		return q
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

func sortable(def TypeDef, field string) bool {
	for _, f := range def.SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// Page is one page of a listing with its count metadata. In limit mode
// TotalCount is the number of items returned and LastPage is always true.
type Page[T any] struct {
	Items      []T
	TotalCount int
	PageNumber int
	PerPage    int
	LastPage   bool
}
