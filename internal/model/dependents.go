package model

import (
	"time"
)

// The records below belong to other parts of the platform. They reference a
// TenantCustomer by id and are repointed, never deleted, when customers merge.

// Booking represents a scheduled service for a customer
type Booking struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	BusinessID       uint      `json:"business_id" gorm:"index;not null"`
	TenantCustomerID uint      `json:"tenant_customer_id" gorm:"index;not null"`
	StartTime        time.Time `json:"start_time"`
	Status           string    `json:"status" gorm:"type:varchar(30);default:'pending'"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Invoice represents a bill issued to a customer
type Invoice struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	BusinessID       uint      `json:"business_id" gorm:"index;not null"`
	TenantCustomerID uint      `json:"tenant_customer_id" gorm:"index;not null"`
	InvoiceNumber    string    `json:"invoice_number" gorm:"type:varchar(50)"`
	TotalAmount      float64   `json:"total_amount" gorm:"type:decimal(10,2);default:0.0"`
	Status           string    `json:"status" gorm:"type:varchar(30);default:'draft'"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Order represents a product purchase by a customer
type Order struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	BusinessID       uint      `json:"business_id" gorm:"index;not null"`
	TenantCustomerID uint      `json:"tenant_customer_id" gorm:"index;not null"`
	OrderNumber      string    `json:"order_number" gorm:"type:varchar(50)"`
	TotalAmount      float64   `json:"total_amount" gorm:"type:decimal(10,2);default:0.0"`
	Status           string    `json:"status" gorm:"type:varchar(30);default:'pending'"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LoyaltyTransaction records points earned or redeemed by a customer
type LoyaltyTransaction struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	BusinessID       uint      `json:"business_id" gorm:"index;not null"`
	TenantCustomerID uint      `json:"tenant_customer_id" gorm:"index;not null"`
	Points           int       `json:"points"`
	Description      string    `json:"description" gorm:"type:varchar(255)"`
	CreatedAt        time.Time `json:"created_at"`
}

// Models lists every table owned by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&TenantCustomer{},
		&Booking{},
		&Invoice{},
		&Order{},
		&LoyaltyTransaction{},
	}
}
