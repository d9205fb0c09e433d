package store

import "testing"

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"companion", "menu", "mood", "purpose"} {
		cat, ok := ParseCategory(s)
		if !ok {
			t.Errorf("ParseCategory(%q) should succeed", s)
		}
		if string(cat) != s {
			t.Errorf("ParseCategory(%q) = %q", s, cat)
		}
	}

	for _, s := range []string{"", "Menu", "location", "mood "} {
		if _, ok := ParseCategory(s); ok {
			t.Errorf("ParseCategory(%q) should fail", s)
		}
	}
}

func TestCategoriesOrder(t *testing.T) {
	want := []Category{CategoryCompanion, CategoryMenu, CategoryMood, CategoryPurpose}
	got := Categories()
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
