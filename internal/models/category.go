package models

// Category groups products for navigation and filtering.
type Category struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`

	Products []Product `gorm:"many2many:product_categories;" json:"products,omitempty"`
}
