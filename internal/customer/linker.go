package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brianlane/bizblasts-sub001/internal/model"
	"github.com/brianlane/bizblasts-sub001/internal/phone"
	"github.com/brianlane/bizblasts-sub001/pkg/logger"
	"github.com/brianlane/bizblasts-sub001/prometheus"
	"go.uber.org/zap"
)

// DefaultEligibleRoles are the account roles that may own a customer record.
var DefaultEligibleRoles = []string{"client"}

// GuestAttributes is the contact data collected at guest checkout.
type GuestAttributes struct {
	FirstName  string
	LastName   string
	Phone      string
	PhoneOptIn bool
}

// Orchestrator is the entry point used by booking, order and checkout flows.
type Orchestrator interface {
	LinkUserToCustomer(ctx context.Context, businessID uint, account Account) (*model.TenantCustomer, error)
	FindOrCreateGuestCustomer(ctx context.Context, businessID uint, email string, attrs GuestAttributes) (*model.TenantCustomer, error)
	FindCustomersByPhone(ctx context.Context, businessID uint, rawPhone string) ([]model.TenantCustomer, error)
}

var _ Orchestrator = (*Linker)(nil)

// Linker is the default Orchestrator. Each call runs in one transaction.
type Linker struct {
	repo          Repository
	detector      ConflictDetector
	merger        Merger
	normalizer    *phone.Normalizer
	eligibleRoles map[string]bool
	now           func() time.Time
}

// NewLinker wires the identity components together. An empty role list uses DefaultEligibleRoles.
func NewLinker(repo Repository, detector ConflictDetector, merger Merger, normalizer *phone.Normalizer, eligibleRoles []string) *Linker {
	if len(eligibleRoles) == 0 {
		eligibleRoles = DefaultEligibleRoles
	}
	roles := make(map[string]bool, len(eligibleRoles))
	for _, r := range eligibleRoles {
		roles[normalizeRole(r)] = true
	}

	return &Linker{
		repo:          repo,
		detector:      detector,
		merger:        merger,
		normalizer:    normalizer,
		eligibleRoles: roles,
		now:           time.Now,
	}
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// LinkUserToCustomer returns the account's customer record in the business,
// creating, linking or merging records as needed.
func (l *Linker) LinkUserToCustomer(ctx context.Context, businessID uint, account Account) (*model.TenantCustomer, error) {
	log := logger.FromContext(ctx).With(
		zap.Uint("business_id", businessID),
		zap.Uint("user_id", account.ID))

	if !l.eligibleRoles[normalizeRole(account.Role)] {
		prometheus.RecordLinkOutcome("invalid_role")
		log.Warn("Account role cannot own a customer record", zap.String("role", account.Role))
		return nil, &InvalidAccountRoleError{Role: account.Role}
	}

	var (
		result  *model.TenantCustomer
		outcome string
	)
	err := l.repo.Transaction(ctx, func(tx Repository) error {
		accountID := account.ID
		cls, err := l.detector.Classify(ctx, tx, businessID, Identity{
			Email:     account.Email,
			Phone:     account.Phone,
			AccountID: &accountID,
		})
		if err != nil {
			if cls.Kind == KindDifferentUser {
				l.flagSkippedResolution(ctx, tx, businessID, cls, account.ID)
			}
			return err
		}

		set, err := l.candidates(ctx, tx, businessID, cls, account.ID)
		if err != nil {
			return err
		}

		switch {
		case len(set) == 0:
			c := &model.TenantCustomer{
				BusinessID: businessID,
				UserID:     &accountID,
				Email:      account.Email,
				Phone:      strings.TrimSpace(account.Phone),
				FirstName:  trimmedOrNil(account.FirstName),
				LastName:   trimmedOrNil(account.LastName),
			}
			if err := tx.Create(ctx, c); err != nil {
				return err
			}
			result, outcome = c, "created"
		case len(set) == 1 && set[0].LinkedTo(account.ID):
			result, outcome = &set[0], "unchanged"
		default:
			merged, err := l.merger.Merge(ctx, tx, businessID, set, &account)
			if err != nil {
				return err
			}
			outcome = "linked"
			if len(set) > 1 {
				outcome = "merged"
			}
			result = merged
		}
		return nil
	})
	if err != nil {
		prometheus.RecordLinkOutcome(errorOutcome(err))
		return nil, err
	}

	prometheus.RecordLinkOutcome(outcome)
	log.Info("Account linked to customer",
		zap.Uint("customer_id", result.ID),
		zap.String("outcome", outcome))
	return result, nil
}

// flagSkippedResolution reports a phone duplicate set left unmerged because
// another account owns one of its records. Lookup failures only lose the flag.
func (l *Linker) flagSkippedResolution(ctx context.Context, repo Repository, businessID uint, cls Classification, accountID uint) {
	if cls.PhoneKey == "" {
		return
	}
	set, err := repo.FindAllByPhone(ctx, businessID, cls.PhoneKey)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to load duplicate set", zap.Error(err))
		return
	}
	if len(set) < 2 {
		return
	}

	logger.FromContext(ctx).Warn("Duplicate customer resolution skipped",
		zap.Uint("business_id", businessID),
		zap.Uint("attempted_user_id", accountID),
		zap.String("channel", string(cls.Channel)),
		zap.Int("duplicates", len(set)))
	prometheus.RecordResolutionSkipped(string(cls.Channel))
}

// candidates collects every record that may belong to the account: the email
// match, the phone duplicate set and any record already linked to the account.
func (l *Linker) candidates(ctx context.Context, repo Repository, businessID uint, cls Classification, accountID uint) ([]model.TenantCustomer, error) {
	set := []model.TenantCustomer{}
	seen := map[uint]bool{}
	add := func(records ...model.TenantCustomer) {
		for _, r := range records {
			if !seen[r.ID] {
				seen[r.ID] = true
				set = append(set, r)
			}
		}
	}

	if cls.ByEmail != nil {
		add(*cls.ByEmail)
	}

	byPhone, err := repo.FindAllByPhone(ctx, businessID, cls.PhoneKey)
	if err != nil {
		return nil, err
	}
	add(byPhone...)

	linked, err := repo.FindLinkedToUser(ctx, businessID, accountID)
	if err != nil {
		return nil, err
	}
	add(linked...)

	return set, nil
}

// FindOrCreateGuestCustomer returns the unlinked record for the email, updating it
// with the supplied attributes, or creates one. Identifiers owned by a registered
// account are refused with a *GuestIdentityConflictError.
func (l *Linker) FindOrCreateGuestCustomer(ctx context.Context, businessID uint, email string, attrs GuestAttributes) (*model.TenantCustomer, error) {
	email = NormalizeEmail(email)
	if email == "" {
		prometheus.RecordGuestOutcome("invalid")
		return nil, ErrBlankEmail
	}
	log := logger.FromContext(ctx).With(zap.Uint("business_id", businessID))

	var (
		result  *model.TenantCustomer
		outcome string
	)
	err := l.repo.Transaction(ctx, func(tx Repository) error {
		cls, err := l.detector.Classify(ctx, tx, businessID, Identity{Email: email, Phone: attrs.Phone})
		if err != nil {
			return err
		}

		now := l.now()
		if existing := cls.ByEmail; existing != nil {
			changes := guestChanges(existing, attrs, now)
			if changes.Empty() {
				result, outcome = existing, "unchanged"
				return nil
			}
			if err := tx.Update(ctx, businessID, existing.ID, changes); err != nil {
				return err
			}
			updated, err := tx.Get(ctx, businessID, existing.ID)
			if err != nil {
				return err
			}
			result, outcome = updated, "updated"
			return nil
		}

		c := &model.TenantCustomer{
			BusinessID: businessID,
			Email:      email,
			Phone:      strings.TrimSpace(attrs.Phone),
			FirstName:  nonBlank(attrs.FirstName),
			LastName:   nonBlank(attrs.LastName),
			PhoneOptIn: attrs.PhoneOptIn,
		}
		if attrs.PhoneOptIn {
			c.PhoneOptInAt = &now
		}
		if err := tx.Create(ctx, c); err != nil {
			return err
		}
		result, outcome = c, "created"
		return nil
	})
	if err != nil {
		prometheus.RecordGuestOutcome(errorOutcome(err))
		return nil, err
	}

	prometheus.RecordGuestOutcome(outcome)
	log.Info("Guest customer resolved",
		zap.Uint("customer_id", result.ID),
		zap.String("outcome", outcome))
	return result, nil
}

// guestChanges applies the guest's own non-blank names. A phone is only filled
// in when none is stored. Blank values never clear stored data and an opt-in
// timestamp is never replaced.
func guestChanges(existing *model.TenantCustomer, attrs GuestAttributes, now time.Time) Changes {
	var changes Changes

	if v := nonBlank(attrs.FirstName); v != nil && (existing.FirstName == nil || *existing.FirstName != *v) {
		changes.FirstName = v
	}
	if v := nonBlank(attrs.LastName); v != nil && (existing.LastName == nil || *existing.LastName != *v) {
		changes.LastName = v
	}
	if v := nonBlank(attrs.Phone); v != nil && strings.TrimSpace(existing.Phone) == "" {
		changes.Phone = v
	}

	if attrs.PhoneOptIn {
		if !existing.PhoneOptIn {
			optIn := true
			changes.PhoneOptIn = &optIn
		}
		if existing.PhoneOptInAt == nil {
			changes.PhoneOptInAt = &now
		}
	}

	return changes
}

// FindCustomersByPhone lists the business's records with the same number, oldest first.
// The result is never nil.
func (l *Linker) FindCustomersByPhone(ctx context.Context, businessID uint, rawPhone string) ([]model.TenantCustomer, error) {
	found, err := l.repo.FindAllByPhone(ctx, businessID, l.normalizer.Normalize(rawPhone))
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []model.TenantCustomer{}
	}
	return found, nil
}

func errorOutcome(err error) string {
	var uniqueErr *UniquenessViolationError
	var dupErr *DuplicateLinkError
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.As(err, &uniqueErr):
		return "retryable"
	case errors.As(err, &dupErr):
		return "integrity_error"
	default:
		return "error"
	}
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return nonBlank(*s)
}
