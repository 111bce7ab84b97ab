package repository

import (
	"strings"
	"testing"
)

func TestOrderClause(t *testing.T) {
	if got := orderClause(SortNewest); !strings.Contains(got, "created_at DESC") {
		t.Errorf("newest clause = %q", got)
	}
	if got := orderClause(SortOldest); !strings.Contains(got, "created_at ASC") {
		t.Errorf("oldest clause = %q", got)
	}

	popular := orderClause(SortPopular)
	trending := orderClause(SortTrending)
	if popular == trending {
		t.Fatalf("popular and trending produce the same ordering: %q", popular)
	}
	if !strings.Contains(trending, "interval '7 days'") {
		t.Errorf("trending clause lacks a recency window: %q", trending)
	}

	// Unknown sort values fall back to newest.
	if got := orderClause(SortOrder("bogus")); got != orderClause(SortNewest) {
		t.Errorf("fallback clause = %q", got)
	}
}

func TestBuildPhotoWhereNumbersPlaceholders(t *testing.T) {
	where, args := buildPhotoWhere(PhotoFilter{
		VisibleOnly: true,
		OwnerID:     "u1",
		Category:    "street",
		Tags:        []string{"sunset"},
	})
	if !strings.HasPrefix(where, " WHERE ") {
		t.Fatalf("where = %q", where)
	}
	if len(args) != 3 {
		t.Fatalf("got %d args, want 3: %v", len(args), args)
	}
	for i := 1; i <= len(args); i++ {
		placeholder := "$" + string(rune('0'+i))
		if !strings.Contains(where, placeholder) {
			t.Errorf("where %q missing %s", where, placeholder)
		}
	}

	if where, args := buildPhotoWhere(PhotoFilter{}); where != "" || args != nil {
		t.Errorf("empty filter produced %q / %v", where, args)
	}
}
