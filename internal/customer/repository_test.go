package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianlane/bizblasts-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepository_CreateNormalizesEmailAndPhoneKey(t *testing.T) {
	repo, _ := newTestRepo(t)

	c := seed(t, repo, 0, model.TenantCustomer{Email: "  Jane@Example.COM ", Phone: "+1 (602) 686-6672"})

	got := reload(t, repo, c.ID)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "+1 (602) 686-6672", got.Phone)
	assert.Equal(t, "6026866672", got.PhoneKey)
	assert.Nil(t, got.UserID)
}

func TestRepository_CreateRejectsBlankEmail(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Create(context.Background(), &model.TenantCustomer{BusinessID: businessID, Email: "  "})
	assert.ErrorIs(t, err, ErrBlankEmail)
}

func TestRepository_CreateDuplicateEmailIsUniquenessViolation(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo, 0, model.TenantCustomer{Email: "dup@example.com"})

	err := repo.Create(context.Background(), &model.TenantCustomer{BusinessID: businessID, Email: "DUP@example.com"})

	var uniqueErr *UniquenessViolationError
	require.ErrorAs(t, err, &uniqueErr)
	assert.True(t, uniqueErr.Retryable())
	assert.Equal(t, "dup@example.com", uniqueErr.Email)
	assert.Equal(t, businessID, uniqueErr.BusinessID)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestRepository_SameEmailInAnotherBusinessIsAllowed(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo, 0, model.TenantCustomer{Email: "shared@example.com"})

	err := repo.Create(context.Background(), &model.TenantCustomer{BusinessID: otherBusinessID, Email: "shared@example.com"})
	assert.NoError(t, err)
}

func TestRepository_FindByEmail(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := seed(t, repo, 0, model.TenantCustomer{Email: "find@example.com"})

	found, err := repo.FindByEmail(ctx, businessID, " FIND@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)

	found, err = repo.FindByEmail(ctx, otherBusinessID, "find@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindByEmail(ctx, businessID, "")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_FindAllByPhoneOrdersOldestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	newer := seed(t, repo, 2*time.Hour, model.TenantCustomer{Email: "newer@example.com", Phone: "602-686-6672"})
	older := seed(t, repo, time.Hour, model.TenantCustomer{Email: "older@example.com", Phone: "+16026866672"})
	// Same timestamp as newer: the id breaks the tie.
	tied := seed(t, repo, 2*time.Hour, model.TenantCustomer{Email: "tied@example.com", Phone: "6026866672"})
	seed(t, repo, 0, model.TenantCustomer{Email: "other@example.com", Phone: "6026866673"})
	seed(t, repo, 0, model.TenantCustomer{BusinessID: otherBusinessID, Email: "elsewhere@example.com", Phone: "6026866672"})

	found, err := repo.FindAllByPhone(ctx, businessID, "6026866672")
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, []uint{older.ID, newer.ID, tied.ID}, []uint{found[0].ID, found[1].ID, found[2].ID})
}

func TestRepository_FindAllByPhoneEmptyKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo, 0, model.TenantCustomer{Email: "nophone@example.com"})

	found, err := repo.FindAllByPhone(context.Background(), businessID, "")
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestRepository_FindLinkedByPhone(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seed(t, repo, 0, model.TenantCustomer{Email: "guest@example.com", Phone: "6026866672"})
	linked := seed(t, repo, time.Hour, model.TenantCustomer{Email: "member@example.com", Phone: "16026866672", UserID: uintPtr(10)})

	found, err := repo.FindLinkedByPhone(ctx, businessID, "6026866672")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, linked.ID, found.ID)

	found, err = repo.FindLinkedByPhone(ctx, businessID, "5550000000")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_UpdateSingleStatementRecomputesPhoneKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	c := seed(t, repo, 0, model.TenantCustomer{Email: "upd@example.com", Phone: "6026866672"})

	require.NoError(t, repo.Update(ctx, businessID, c.ID, Changes{
		UserID:    uintPtr(5),
		Phone:     strPtr("(480) 555-0100"),
		FirstName: strPtr("Ann"),
	}))

	got := reload(t, repo, c.ID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, uint(5), *got.UserID)
	assert.Equal(t, "4805550100", got.PhoneKey)
	require.NotNil(t, got.FirstName)
	assert.Equal(t, "Ann", *got.FirstName)
}

func TestRepository_UpdateMissingRecord(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Update(context.Background(), businessID, 999, Changes{FirstName: strPtr("x")})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ReassignAndDelete(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	keep := seed(t, repo, 0, model.TenantCustomer{Email: "keep@example.com"})
	drop := seed(t, repo, time.Hour, model.TenantCustomer{Email: "drop@example.com"})
	require.NoError(t, db.Create(&model.Booking{BusinessID: businessID, TenantCustomerID: drop.ID}).Error)
	require.NoError(t, db.Create(&model.Booking{BusinessID: businessID, TenantCustomerID: drop.ID}).Error)

	moved, err := repo.Reassign(ctx, businessID, Dependent{Table: "bookings", Column: "tenant_customer_id"}, []uint{drop.ID}, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	require.NoError(t, repo.Delete(ctx, businessID, []uint{drop.ID}))
	assert.False(t, exists(t, db, drop.ID))
	assert.True(t, exists(t, db, keep.ID))

	var n int64
	require.NoError(t, db.Model(&model.Booking{}).Where("tenant_customer_id = ?", keep.ID).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestRepository_TransactionRollsBack(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, &model.TenantCustomer{BusinessID: businessID, Email: "tx@example.com"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), countCustomers(t, db))
}
