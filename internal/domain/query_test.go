package domain_test

import (
	"testing"

	"github.com/avencia/tenantcore/internal/domain"
)

func TestNormalize_Defaults(t *testing.T) {
	q := domain.ListQuery{}.Normalize(domain.TypeAppointment)

	if q.Page != 1 {
		t.Errorf("Page = %d, want 1", q.Page)
	}
	if q.PerPage != domain.DefaultPerPage {
		t.Errorf("PerPage = %d, want %d", q.PerPage, domain.DefaultPerPage)
	}
	if q.Sort != domain.TypeAppointment.DefaultSort {
		t.Errorf("Sort = %+v, want default %+v", q.Sort, domain.TypeAppointment.DefaultSort)
	}
}

func TestNormalize_ClampsPerPage(t *testing.T) {
	q := domain.ListQuery{PerPage: 5000}.Normalize(domain.TypeParcel)
	if q.PerPage != domain.MaxPerPage {
		t.Errorf("PerPage = %d, want %d", q.PerPage, domain.MaxPerPage)
	}
}

func TestNormalize_UnknownSortFallsBack(t *testing.T) {
	q := domain.ListQuery{
		Sort: domain.Sort{Field: "DROP TABLE resources", Direction: domain.SortAsc},
	}.Normalize(domain.TypeParcel)

	if q.Sort != domain.TypeParcel.DefaultSort {
		t.Errorf("Sort = %+v, want default %+v", q.Sort, domain.TypeParcel.DefaultSort)
	}
}

func TestNormalize_KnownSortKept(t *testing.T) {
	want := domain.Sort{Field: "status", Direction: domain.SortDesc}
	q := domain.ListQuery{Sort: want}.Normalize(domain.TypeParcel)
	if q.Sort != want {
		t.Errorf("Sort = %+v, want %+v", q.Sort, want)
	}
}

func TestNormalize_TrimsSearch(t *testing.T) {
	q := domain.ListQuery{Search: "   "}.Normalize(domain.TypeAppointment)
	if q.Search != "" {
		t.Errorf("Search = %q, want empty", q.Search)
	}
}

func TestNormalize_LimitMode(t *testing.T) {
	q := domain.ListQuery{Limit: 500, Page: 3, PerPage: 10}.Normalize(domain.TypeAppointment)

	if q.Limit != domain.MaxPerPage {
		t.Errorf("Limit = %d, want clamped %d", q.Limit, domain.MaxPerPage)
	}
	// Limit mode leaves paging untouched; repositories ignore it.
	if q.SearchFields == nil {
		t.Error("SearchFields not resolved")
	}
}
