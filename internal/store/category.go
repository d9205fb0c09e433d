package store

// Category is one of the four fixed preference dimensions extracted from
// review text and recommendation queries.
type Category string

const (
	CategoryCompanion Category = "companion"
	CategoryMenu      Category = "menu"
	CategoryMood      Category = "mood"
	CategoryPurpose   Category = "purpose"
)

// Categories returns all categories in importance order.
func Categories() []Category {
	return []Category{CategoryCompanion, CategoryMenu, CategoryMood, CategoryPurpose}
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryCompanion, CategoryMenu, CategoryMood, CategoryPurpose:
		return Category(s), true
	}
	return "", false
}
