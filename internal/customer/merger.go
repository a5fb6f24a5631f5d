package customer

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/brianlane/bizblasts-sub001/internal/model"
	"github.com/brianlane/bizblasts-sub001/pkg/logger"
	"github.com/brianlane/bizblasts-sub001/prometheus"
	"go.uber.org/zap"
)

// Account describes a registered account as supplied by the authentication service.
type Account struct {
	ID        uint
	Email     string
	Phone     string
	Role      string
	FirstName *string
	LastName  *string
}

// Merger collapses a set of records for one person into a canonical record.
type Merger interface {
	Merge(ctx context.Context, repo Repository, businessID uint, set []model.TenantCustomer, link *Account) (*model.TenantCustomer, error)
}

var _ Merger = (*DuplicateMerger)(nil)

// DuplicateMerger is the default Merger.
type DuplicateMerger struct {
	dependents []Dependent
}

// NewMerger creates a merger that repoints the given dependent tables.
// A nil list uses DefaultDependents.
func NewMerger(dependents []Dependent) *DuplicateMerger {
	if dependents == nil {
		dependents = DefaultDependents
	}
	return &DuplicateMerger{dependents: dependents}
}

// Merge selects the canonical record of set, moves the dependents of the other
// records to it, deletes them and then writes user_id and reconciled attributes
// in one UPDATE. When link is set the canonical record is linked to that account.
// repo must be bound to a transaction so that a failure in any step undoes all of them.
func (m *DuplicateMerger) Merge(ctx context.Context, repo Repository, businessID uint, set []model.TenantCustomer, link *Account) (*model.TenantCustomer, error) {
	log := logger.FromContext(ctx)

	records := sortRecords(set)
	if len(records) == 0 {
		return nil, errors.New("cannot merge an empty customer set")
	}

	canonical, err := m.selectCanonical(ctx, businessID, records, link)
	if err != nil {
		return nil, err
	}

	losers := make([]model.TenantCustomer, 0, len(records)-1)
	loserIDs := make([]uint, 0, len(records)-1)
	for _, r := range records {
		if r.ID != canonical.ID {
			losers = append(losers, r)
			loserIDs = append(loserIDs, r.ID)
		}
	}

	changes := reconcile(canonical, losers, link)

	for _, dep := range m.dependents {
		moved, err := repo.Reassign(ctx, businessID, dep, loserIDs, canonical.ID)
		if err != nil {
			return nil, err
		}
		if moved > 0 {
			prometheus.RecordDependentsRepointed(dep.Table, moved)
		}
	}

	if err := repo.Delete(ctx, businessID, loserIDs); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, businessID, canonical.ID, changes); err != nil {
		return nil, err
	}

	if len(losers) > 0 {
		prometheus.RecordMerge(len(losers))
		log.Info("Merged duplicate customers",
			zap.Uint("business_id", businessID),
			zap.Uint("canonical_id", canonical.ID),
			zap.Uints("removed_ids", loserIDs))
	}

	return repo.Get(ctx, businessID, canonical.ID)
}

// selectCanonical returns the single linked record, or the oldest one when
// nothing is linked. Sets holding more than one linked record are refused.
func (m *DuplicateMerger) selectCanonical(ctx context.Context, businessID uint, records []model.TenantCustomer, link *Account) (*model.TenantCustomer, error) {
	var linked []*model.TenantCustomer
	for i := range records {
		if records[i].Linked() {
			linked = append(linked, &records[i])
		}
	}

	if len(linked) == 0 {
		return &records[0], nil
	}

	owner := *linked[0].UserID
	if link != nil {
		owner = link.ID
	}

	for _, r := range linked {
		if !r.LinkedTo(owner) {
			return nil, m.skipResolution(ctx, businessID, r, owner, link)
		}
	}

	if len(linked) > 1 {
		ids := make([]uint, 0, len(linked))
		for _, r := range linked {
			ids = append(ids, r.ID)
		}
		err := &DuplicateLinkError{BusinessID: businessID, UserID: owner, CustomerIDs: ids}
		logger.FromContext(ctx).Error("Account linked to several customer records, needs operator review",
			zap.Uint("business_id", businessID),
			zap.Uint("user_id", owner),
			zap.Uints("customer_ids", ids))
		prometheus.RecordDataIntegrityError("duplicate_link")
		return nil, err
	}

	return linked[0], nil
}

// skipResolution refuses to merge a set that spans accounts.
func (m *DuplicateMerger) skipResolution(ctx context.Context, businessID uint, other *model.TenantCustomer, owner uint, link *Account) error {
	channel, identifier := ChannelPhone, other.Phone
	if link != nil && other.Email == NormalizeEmail(link.Email) {
		channel, identifier = ChannelEmail, other.Email
	}

	err := &DifferentUserConflictError{
		Identifier:      identifier,
		Channel:         channel,
		BusinessID:      businessID,
		ExistingUserID:  *other.UserID,
		AttemptedUserID: owner,
	}

	logger.FromContext(ctx).Warn("Duplicate customer resolution skipped",
		zap.Uint("business_id", businessID),
		zap.Uint("customer_id", other.ID),
		zap.Uint("existing_user_id", err.ExistingUserID),
		zap.Uint("attempted_user_id", owner))
	prometheus.RecordResolutionSkipped(string(channel))
	prometheus.RecordConflict(KindDifferentUser.String(), string(channel))
	return err
}

// reconcile computes the canonical update. Non-blank canonical values are kept;
// blanks are filled from the account first, then from the other records in order.
func reconcile(canonical *model.TenantCustomer, losers []model.TenantCustomer, link *Account) Changes {
	var changes Changes

	if link != nil && canonical.UserID == nil {
		id := link.ID
		changes.UserID = &id
	}

	firstNames := []*string{}
	lastNames := []*string{}
	emails := []string{}
	phones := []string{}
	if link != nil {
		firstNames = append(firstNames, link.FirstName)
		lastNames = append(lastNames, link.LastName)
		emails = append(emails, link.Email)
		phones = append(phones, link.Phone)
	}
	for _, l := range losers {
		firstNames = append(firstNames, l.FirstName)
		lastNames = append(lastNames, l.LastName)
		emails = append(emails, l.Email)
		phones = append(phones, l.Phone)
	}

	if blankPtr(canonical.FirstName) {
		changes.FirstName = firstNonBlankPtr(firstNames)
	}
	if blankPtr(canonical.LastName) {
		changes.LastName = firstNonBlankPtr(lastNames)
	}
	if blank(canonical.Phone) {
		changes.Phone = firstNonBlank(phones)
	}

	if blank(canonical.Email) {
		changes.Email = firstNonBlank(emails)
	} else if normalized := NormalizeEmail(canonical.Email); normalized != canonical.Email {
		// Case and surrounding space are not meaningful data.
		changes.Email = &normalized
	}

	return changes
}

// sortRecords returns the records without repeated ids, oldest first.
func sortRecords(set []model.TenantCustomer) []model.TenantCustomer {
	seen := make(map[uint]bool, len(set))
	records := make([]model.TenantCustomer, 0, len(set))
	for _, r := range set {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func blankPtr(s *string) bool {
	return s == nil || blank(*s)
}

func firstNonBlank(values []string) *string {
	for _, v := range values {
		if !blank(v) {
			v := strings.TrimSpace(v)
			return &v
		}
	}
	return nil
}

func firstNonBlankPtr(values []*string) *string {
	for _, v := range values {
		if !blankPtr(v) {
			s := strings.TrimSpace(*v)
			return &s
		}
	}
	return nil
}
