package llm

import (
	"errors"
	"testing"

	"github.com/moim-labs/placerec/internal/store"
)

func TestParseCategories_Strings(t *testing.T) {
	cats, err := parseCategories(`{"companion":"친구","menu":"카페","mood":"조용한","purpose":"친목"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cats.Value(store.CategoryCompanion); got != "친구" {
		t.Errorf("companion: expected '친구', got %q", got)
	}
	if got := cats.Value(store.CategoryMenu); got != "카페" {
		t.Errorf("menu: expected '카페', got %q", got)
	}
}

func TestParseCategories_NullsBecomeNil(t *testing.T) {
	cats, err := parseCategories(`{"companion":null,"menu":"한식","mood":null,"purpose":null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cats.Companion != nil {
		t.Errorf("expected nil companion, got %q", *cats.Companion)
	}
	if cats.Menu == nil || *cats.Menu != "한식" {
		t.Errorf("expected menu '한식', got %v", cats.Menu)
	}
}

func TestParseCategories_ListCoercedToCommaString(t *testing.T) {
	cats, err := parseCategories(`{"menu":["볶음우동","치킨가라야케"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cats.Menu == nil || *cats.Menu != "볶음우동, 치킨가라야케" {
		t.Errorf("expected comma-joined menu, got %v", cats.Menu)
	}
}

func TestParseCategories_NumberStringified(t *testing.T) {
	cats, err := parseCategories(`{"companion":2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cats.Companion == nil || *cats.Companion != "2" {
		t.Errorf("expected '2', got %v", cats.Companion)
	}
}

func TestParseCategories_EmptyStringBecomesNil(t *testing.T) {
	cats, err := parseCategories(`{"mood":"  "}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cats.Mood != nil {
		t.Errorf("expected nil mood, got %q", *cats.Mood)
	}
}

func TestParseCategories_UnparsableIsExtractionError(t *testing.T) {
	_, err := parseCategories(`not json`)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestCategoriesEmpty(t *testing.T) {
	if !(Categories{}).Empty() {
		t.Error("zero Categories should be empty")
	}

	menu := "카페"
	if (Categories{Menu: &menu}).Empty() {
		t.Error("Categories with a menu should not be empty")
	}
}

func TestParseLocation(t *testing.T) {
	loc := parseLocation(`{"latitude":37.5563,"longitude":126.9239,"region":"홍대"}`)
	if loc == nil {
		t.Fatal("expected a location")
	}
	if loc.Latitude != 37.5563 || loc.Longitude != 126.9239 {
		t.Errorf("unexpected coordinates: %+v", loc)
	}
}

func TestParseLocation_StringCoordinates(t *testing.T) {
	loc := parseLocation(`{"latitude":"37.5","longitude":"127.0"}`)
	if loc == nil {
		t.Fatal("expected a location")
	}
	if loc.Latitude != 37.5 {
		t.Errorf("unexpected latitude: %v", loc.Latitude)
	}
}

func TestParseLocation_Incomplete(t *testing.T) {
	if loc := parseLocation(`{"latitude":37.5}`); loc != nil {
		t.Errorf("expected nil for missing longitude, got %+v", loc)
	}
	if loc := parseLocation(`{"region":"강남"}`); loc != nil {
		t.Errorf("expected nil for region-only answer, got %+v", loc)
	}
	if loc := parseLocation(`null`); loc != nil {
		t.Errorf("expected nil for null answer, got %+v", loc)
	}
}
