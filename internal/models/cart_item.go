package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is a pending purchase line owned by a user.
type CartItem struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"type:uuid;not null;index:idx_cart_user_product" json:"user_id"`
	ProductID string `gorm:"type:uuid;not null;index:idx_cart_user_product" json:"product_id"`
	Quantity  int    `gorm:"not null" json:"quantity"`

	Product *Product `json:"product,omitempty"`

	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == "" {
		ci.ID = uuid.NewString()
	}
	return nil
}
