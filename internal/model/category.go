package model

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "bg-gray-500"

// Category groups tasks for one user. Categories flagged IsDefault are
// seeded at registration and cannot be deleted.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryWithCount is a category plus the number of its non-completed tasks.
type CategoryWithCount struct {
	Category
	TaskCount int `json:"taskCount"`
}

// DefaultCategories returns the categories seeded for every new user.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Work", Color: "bg-blue-500", IsDefault: true},
		{Name: "Personal", Color: "bg-purple-500", IsDefault: true},
		{Name: "Study", Color: "bg-indigo-500", IsDefault: true},
	}
}
