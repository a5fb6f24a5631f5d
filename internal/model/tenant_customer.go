package model

import (
	"time"
)

// TenantCustomer is the identity record of a customer within one business (tenant).
// A nil UserID marks a guest customer; a non-nil UserID links the record to an account.
type TenantCustomer struct {
	ID         uint  `json:"id" gorm:"primaryKey"`
	BusinessID uint  `json:"business_id" gorm:"not null;uniqueIndex:idx_tenant_customers_business_email,priority:1;index:idx_tenant_customers_business_phone_key,priority:1"`
	UserID     *uint `json:"user_id,omitempty" gorm:"index"`

	// Email is stored trimmed and lower-cased.
	Email string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_tenant_customers_business_email,priority:2"`
	// Phone keeps the original formatting for display; PhoneKey is its normalized
	// form and is the only value phone lookups compare against.
	Phone    string `json:"phone" gorm:"type:varchar(50)"`
	PhoneKey string `json:"-" gorm:"type:varchar(32);index:idx_tenant_customers_business_phone_key,priority:2"`

	FirstName *string `json:"first_name,omitempty" gorm:"type:varchar(100)"`
	LastName  *string `json:"last_name,omitempty" gorm:"type:varchar(100)"`

	PhoneOptIn   bool       `json:"phone_opt_in" gorm:"not null;default:false"`
	PhoneOptInAt *time.Time `json:"phone_opt_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name used by the identity queries.
func (TenantCustomer) TableName() string {
	return "tenant_customers"
}

// Linked reports whether the record belongs to an account.
func (c *TenantCustomer) Linked() bool {
	return c.UserID != nil
}

// LinkedTo reports whether the record belongs to the given account.
func (c *TenantCustomer) LinkedTo(userID uint) bool {
	return c.UserID != nil && *c.UserID == userID
}
