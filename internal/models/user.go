package models

// Roles assignable to storefront accounts.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User describes storefront accounts created via registration or Google sign-in.
// Password is empty for accounts provisioned through an external identity provider.
type User struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"`

	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`

	Role           string `gorm:"default:customer;not null" json:"role"`
	EmailConfirmed bool   `gorm:"default:false" json:"email_confirmed"`
}
