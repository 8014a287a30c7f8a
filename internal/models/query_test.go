package models

import (
	"testing"
	"time"
)

func TestNewPageMeta(t *testing.T) {
	cases := []struct {
		name        string
		page        int
		limit       int
		total       int
		wantPages   int
		wantNext    bool
		wantPrev    bool
	}{
		{"empty", 1, 10, 0, 0, false, false},
		{"single page", 1, 10, 7, 1, false, false},
		{"first of many", 1, 10, 25, 3, true, false},
		{"middle", 2, 10, 25, 3, true, true},
		{"last", 3, 10, 25, 3, false, true},
		{"exact boundary", 2, 10, 20, 2, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := NewPageMeta(tc.page, tc.limit, tc.total)
			if meta.TotalPages != tc.wantPages {
				t.Errorf("TotalPages = %d, want %d", meta.TotalPages, tc.wantPages)
			}
			if meta.HasNextPage != tc.wantNext {
				t.Errorf("HasNextPage = %v, want %v", meta.HasNextPage, tc.wantNext)
			}
			if meta.HasPreviousPage != tc.wantPrev {
				t.Errorf("HasPreviousPage = %v, want %v", meta.HasPreviousPage, tc.wantPrev)
			}
			if meta.HasNextPage != (tc.page*tc.limit < tc.total) {
				t.Error("has-next invariant violated")
			}
			if meta.HasPreviousPage != (tc.page > 1) {
				t.Error("has-previous invariant violated")
			}
		})
	}
}

func TestQueryEqual(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	base := UserQuery{Page: 1, Limit: 10, Search: "alice"}
	same := UserQuery{Page: 1, Limit: 10, Search: "alice"}
	if !base.Equal(same) {
		t.Fatal("identical queries should be equal")
	}

	diffPage := base
	diffPage.Page = 2
	if base.Equal(diffPage) {
		t.Fatal("page difference should break equality")
	}

	withFilter := base
	withFilter.Filters.Roles = []UserRole{UserRoleAdmin}
	if base.Equal(withFilter) {
		t.Fatal("role filter difference should break equality")
	}

	withDate := base
	withDate.Filters.CreatedAfter = &after
	if base.Equal(withDate) {
		t.Fatal("date bound difference should break equality")
	}

	sameDateA, sameDateB := base, base
	sameDateA.Filters.CreatedAfter = &after
	other := after
	sameDateB.Filters.CreatedAfter = &other
	if !sameDateA.Equal(sameDateB) {
		t.Fatal("equal date bounds should compare equal")
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateEmail("admin@example.com"); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	if err := ValidateEmail("not-an-email"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := ValidateEmail(""); !IsValidation(err) {
		t.Fatalf("expected validation error for empty email, got %v", err)
	}
	if err := ValidatePassword("abc"); !IsValidation(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if err := ValidatePassword("admin123"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := ValidateDisplayName("x"); !IsValidation(err) {
		t.Fatalf("expected validation error for short name, got %v", err)
	}
}
