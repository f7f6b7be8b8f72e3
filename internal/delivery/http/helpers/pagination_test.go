package helpers

import (
	"net/http/httptest"
	"testing"

	"communityhub/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.PaginationParams
	}{
		{"defaults", "", domain.PaginationParams{Page: 1, PageSize: 20}},
		{"explicit", "page=3&page_size=50", domain.PaginationParams{Page: 3, PageSize: 50}},
		{"size capped", "page_size=5000", domain.PaginationParams{Page: 1, PageSize: 100}},
		{"zero and negative fall back", "page=0&page_size=-4", domain.PaginationParams{Page: 1, PageSize: 20}},
		{"garbage falls back", "page=abc&page_size=x", domain.PaginationParams{Page: 1, PageSize: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://test/orgs/org-1/events?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(r))
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	tests := []struct {
		name           string
		page, size, total, wantPages int
	}{
		{"exact pages", 1, 20, 40, 2},
		{"partial last page", 2, 20, 45, 3},
		{"empty", 1, 20, 0, 0},
		{"zero page size", 1, 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPaginationMeta(tt.page, tt.size, tt.total)
			assert.Equal(t, tt.wantPages, meta.TotalPages)
			assert.Equal(t, tt.total, meta.Total)
		})
	}
}
