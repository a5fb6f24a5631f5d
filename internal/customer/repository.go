package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianlane/bizblasts-sub001/internal/model"
	"github.com/brianlane/bizblasts-sub001/internal/phone"
	"github.com/brianlane/bizblasts-sub001/prometheus"
	"gorm.io/gorm"
)

// Dependent names a table whose rows reference a customer record.
// The table must also carry a business_id column.
type Dependent struct {
	Table  string
	Column string
}

// DefaultDependents are the records repointed when duplicate customers merge.
var DefaultDependents = []Dependent{
	{Table: "bookings", Column: "tenant_customer_id"},
	{Table: "invoices", Column: "tenant_customer_id"},
	{Table: "orders", Column: "tenant_customer_id"},
	{Table: "loyalty_transactions", Column: "tenant_customer_id"},
}

// Changes lists the columns to write in a single UPDATE. Nil fields are left alone.
type Changes struct {
	UserID       *uint
	Email        *string
	Phone        *string
	FirstName    *string
	LastName     *string
	PhoneOptIn   *bool
	PhoneOptInAt *time.Time
}

// Empty reports whether there is nothing to write.
func (c Changes) Empty() bool {
	return c.UserID == nil && c.Email == nil && c.Phone == nil &&
		c.FirstName == nil && c.LastName == nil &&
		c.PhoneOptIn == nil && c.PhoneOptInAt == nil
}

// Repository is the tenant-scoped store of customer records.
type Repository interface {
	FindByEmail(ctx context.Context, businessID uint, email string) (*model.TenantCustomer, error)
	FindAllByPhone(ctx context.Context, businessID uint, key string) ([]model.TenantCustomer, error)
	FindLinkedByPhone(ctx context.Context, businessID uint, key string) (*model.TenantCustomer, error)
	FindLinkedToUser(ctx context.Context, businessID, userID uint) ([]model.TenantCustomer, error)
	Get(ctx context.Context, businessID, id uint) (*model.TenantCustomer, error)
	Create(ctx context.Context, customer *model.TenantCustomer) error
	Update(ctx context.Context, businessID, id uint, changes Changes) error
	Delete(ctx context.Context, businessID uint, ids []uint) error
	Reassign(ctx context.Context, businessID uint, dependent Dependent, fromIDs []uint, toID uint) (int64, error)
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Repository = (*GormRepository)(nil)

// GormRepository implements Repository on gorm.
type GormRepository struct {
	db         *gorm.DB
	normalizer *phone.Normalizer
}

// NewGormRepository creates a repository. The normalizer computes phone_key on writes.
func NewGormRepository(db *gorm.DB, normalizer *phone.Normalizer) *GormRepository {
	return &GormRepository{db: db, normalizer: normalizer}
}

func (r *GormRepository) scoped(ctx context.Context, businessID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.TenantCustomer{}).Where("business_id = ?", businessID)
}

// FindByEmail returns the record with the given email, or nil when there is none.
func (r *GormRepository) FindByEmail(ctx context.Context, businessID uint, email string) (*model.TenantCustomer, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	defer prometheus.TrackDBOperation("find_by_email")()

	var found []model.TenantCustomer
	if err := r.scoped(ctx, businessID).Where("email = ?", email).Limit(1).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// FindAllByPhone returns the duplicate set for a phone key, oldest first.
// An empty key matches nothing.
func (r *GormRepository) FindAllByPhone(ctx context.Context, businessID uint, key string) ([]model.TenantCustomer, error) {
	found := []model.TenantCustomer{}
	if key == "" {
		return found, nil
	}
	defer prometheus.TrackDBOperation("find_all_by_phone")()

	if err := r.scoped(ctx, businessID).
		Where("phone_key = ?", key).
		Order("created_at ASC, id ASC").
		Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find customers by phone: %w", err)
	}
	return found, nil
}

// FindLinkedByPhone returns the oldest linked record with the phone key, or nil.
func (r *GormRepository) FindLinkedByPhone(ctx context.Context, businessID uint, key string) (*model.TenantCustomer, error) {
	if key == "" {
		return nil, nil
	}
	defer prometheus.TrackDBOperation("find_linked_by_phone")()

	var found []model.TenantCustomer
	if err := r.scoped(ctx, businessID).
		Where("phone_key = ? AND user_id IS NOT NULL", key).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find linked customer by phone: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// FindLinkedToUser returns every record in the business linked to the account.
// More than one result means the data needs operator review.
func (r *GormRepository) FindLinkedToUser(ctx context.Context, businessID, userID uint) ([]model.TenantCustomer, error) {
	defer prometheus.TrackDBOperation("find_linked_to_user")()

	found := []model.TenantCustomer{}
	if err := r.scoped(ctx, businessID).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find customers linked to user: %w", err)
	}
	return found, nil
}

// Get loads one record. A missing record yields an error wrapping gorm.ErrRecordNotFound.
func (r *GormRepository) Get(ctx context.Context, businessID, id uint) (*model.TenantCustomer, error) {
	defer prometheus.TrackDBOperation("get")()

	var c model.TenantCustomer
	if err := r.scoped(ctx, businessID).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to load customer %d: %w", id, err)
	}
	return &c, nil
}

// Create inserts a record, normalizing its email and computing its phone key.
func (r *GormRepository) Create(ctx context.Context, c *model.TenantCustomer) error {
	c.Email = NormalizeEmail(c.Email)
	if c.Email == "" {
		return ErrBlankEmail
	}
	c.PhoneKey = r.normalizer.Normalize(c.Phone)
	defer prometheus.TrackDBOperation("create")()

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &UniquenessViolationError{BusinessID: c.BusinessID, Email: c.Email, Err: err}
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// Update writes all changes in one UPDATE statement.
func (r *GormRepository) Update(ctx context.Context, businessID, id uint, changes Changes) error {
	if changes.Empty() {
		return nil
	}

	values := map[string]interface{}{}
	if changes.UserID != nil {
		values["user_id"] = *changes.UserID
	}
	if changes.Email != nil {
		values["email"] = NormalizeEmail(*changes.Email)
	}
	if changes.Phone != nil {
		values["phone"] = *changes.Phone
		values["phone_key"] = r.normalizer.Normalize(*changes.Phone)
	}
	if changes.FirstName != nil {
		values["first_name"] = *changes.FirstName
	}
	if changes.LastName != nil {
		values["last_name"] = *changes.LastName
	}
	if changes.PhoneOptIn != nil {
		values["phone_opt_in"] = *changes.PhoneOptIn
	}
	if changes.PhoneOptInAt != nil {
		values["phone_opt_in_at"] = *changes.PhoneOptInAt
	}
	defer prometheus.TrackDBOperation("update")()

	result := r.scoped(ctx, businessID).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			email, _ := values["email"].(string)
			return &UniquenessViolationError{BusinessID: businessID, Email: email, Err: result.Error}
		}
		return fmt.Errorf("failed to update customer %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update customer %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes records. Their dependents must already be repointed.
func (r *GormRepository) Delete(ctx context.Context, businessID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	defer prometheus.TrackDBOperation("delete")()

	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Delete(&model.TenantCustomer{}).Error; err != nil {
		return fmt.Errorf("failed to delete customers %v: %w", ids, err)
	}
	return nil
}

// Reassign points every dependent row that references fromIDs at toID and
// returns the number of rows moved.
func (r *GormRepository) Reassign(ctx context.Context, businessID uint, dependent Dependent, fromIDs []uint, toID uint) (int64, error) {
	if len(fromIDs) == 0 {
		return 0, nil
	}
	defer prometheus.TrackDBOperation("reassign_" + dependent.Table)()

	result := r.db.WithContext(ctx).
		Table(dependent.Table).
		Where("business_id = ?", businessID).
		Where(dependent.Column+" IN ?", fromIDs).
		Update(dependent.Column, toID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to repoint %s: %w", dependent.Table, result.Error)
	}
	return result.RowsAffected, nil
}

// Transaction runs fn against a repository bound to one database transaction.
// An error from fn, or a panic, rolls everything back.
func (r *GormRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx, normalizer: r.normalizer})
	})
}
