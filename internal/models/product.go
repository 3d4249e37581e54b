package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry with up to five image references.
type Product struct {
	BaseModel

	Name          string          `gorm:"not null;index" json:"name"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`

	// Optional direct category reference retained alongside the
	// many-to-many assignment set.
	CategoryID *string `gorm:"type:uuid;index" json:"category_id,omitempty"`

	ImageURL  string `json:"image_url,omitempty"`
	ImageURL1 string `json:"image_url1,omitempty"`
	ImageURL2 string `json:"image_url2,omitempty"`
	ImageURL3 string `json:"image_url3,omitempty"`
	ImageURL4 string `json:"image_url4,omitempty"`

	Categories []Category `gorm:"many2many:product_categories;" json:"categories,omitempty"`
}

// ImageURLs collects the populated image references in field order.
func (p *Product) ImageURLs() []string {
	candidates := []string{p.ImageURL, p.ImageURL1, p.ImageURL2, p.ImageURL3, p.ImageURL4}
	urls := make([]string, 0, len(candidates))
	for _, url := range candidates {
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// ProductCategory is the join row backing the product/category assignment set.
type ProductCategory struct {
	ProductID  string    `gorm:"type:uuid;primaryKey" json:"product_id"`
	CategoryID string    `gorm:"type:uuid;primaryKey" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}
