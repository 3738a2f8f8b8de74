package model

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#1976D2"

// Category groups tasks by area (work, health, shopping, etc.).
// Tasks refer to a category by Name, not by ID.
type Category struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Color string `gorm:"not null;default:#1976D2" json:"color"`
	Count int    `gorm:"not null;default:0" json:"count"`
}

type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CategoryPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// DefaultCategories are seeded into an empty store.
func DefaultCategories() []CategoryInput {
	return []CategoryInput{
		{Name: "Work", Color: "#1976D2"},
		{Name: "Personal", Color: "#4CAF50"},
		{Name: "Shopping", Color: "#9C27B0"},
		{Name: "Health", Color: "#FF9800"},
	}
}
