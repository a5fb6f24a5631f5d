package customer

import (
	"context"
	"strings"

	"github.com/brianlane/bizblasts-sub001/internal/model"
	"github.com/brianlane/bizblasts-sub001/internal/phone"
	"github.com/brianlane/bizblasts-sub001/pkg/logger"
	"github.com/brianlane/bizblasts-sub001/prometheus"
	"go.uber.org/zap"
)

// Kind is the outcome of classifying an identity against stored records.
type Kind int

const (
	// KindNoMatch means no record shares the email, and no linked record shares the phone.
	KindNoMatch Kind = iota
	// KindSameIdentity means a matching linked record already belongs to the account.
	KindSameIdentity
	// KindGuestMatch means only unlinked records match.
	KindGuestMatch
	// KindDifferentUser means a matching record is linked to another account.
	KindDifferentUser
	// KindGuestConflict means a guest supplied an identifier owned by an account.
	KindGuestConflict
)

func (k Kind) String() string {
	switch k {
	case KindNoMatch:
		return "no_match"
	case KindSameIdentity:
		return "same_identity"
	case KindGuestMatch:
		return "guest_match"
	case KindDifferentUser:
		return "different_user"
	case KindGuestConflict:
		return "guest_conflict"
	default:
		return "unknown"
	}
}

// Identity is the contact data being resolved. AccountID is nil for guests.
type Identity struct {
	Email     string
	Phone     string
	AccountID *uint
}

// Classification is what the detector found.
type Classification struct {
	Kind Kind
	// Channel is set for KindSameIdentity and the conflict kinds.
	Channel Channel
	// Email and PhoneKey are the normalized lookup values.
	Email    string
	PhoneKey string
	// ByEmail is the record with the same email, if any.
	ByEmail *model.TenantCustomer
	// LinkedByPhone is the oldest linked record with the same phone key, if any.
	LinkedByPhone *model.TenantCustomer
}

// ConflictDetector classifies an identity against the records of one business.
type ConflictDetector interface {
	Classify(ctx context.Context, repo Repository, businessID uint, identity Identity) (Classification, error)
}

var _ ConflictDetector = (*Detector)(nil)

// Detector is the default ConflictDetector.
type Detector struct {
	normalizer *phone.Normalizer
}

// NewConflictDetector creates a detector that compares phones with the given normalizer.
func NewConflictDetector(normalizer *phone.Normalizer) *Detector {
	return &Detector{normalizer: normalizer}
}

type channelMatch struct {
	channel    Channel
	identifier string
	record     *model.TenantCustomer
}

// Classify looks the identity up by email and by phone. When a conflict is found
// the returned error is a *DifferentUserConflictError or *GuestIdentityConflictError
// and the classification still describes what matched.
func (d *Detector) Classify(ctx context.Context, repo Repository, businessID uint, identity Identity) (Classification, error) {
	cls := Classification{
		Email:    NormalizeEmail(identity.Email),
		PhoneKey: d.normalizer.Normalize(identity.Phone),
	}

	var err error
	if cls.ByEmail, err = repo.FindByEmail(ctx, businessID, cls.Email); err != nil {
		return cls, err
	}
	if cls.LinkedByPhone, err = repo.FindLinkedByPhone(ctx, businessID, cls.PhoneKey); err != nil {
		return cls, err
	}

	// Email is checked before phone.
	matches := []channelMatch{
		{channel: ChannelEmail, identifier: cls.Email, record: cls.ByEmail},
		{channel: ChannelPhone, identifier: strings.TrimSpace(identity.Phone), record: cls.LinkedByPhone},
	}

	var same *channelMatch
	for i := range matches {
		m := &matches[i]
		if m.record == nil || !m.record.Linked() {
			continue
		}
		existing := *m.record.UserID

		if identity.AccountID == nil {
			cls.Kind = KindGuestConflict
			cls.Channel = m.channel
			return cls, d.conflict(ctx, businessID, cls.Kind, m.channel, &GuestIdentityConflictError{
				Identifier:     m.identifier,
				Channel:        m.channel,
				BusinessID:     businessID,
				ExistingUserID: existing,
			})
		}
		if existing != *identity.AccountID {
			cls.Kind = KindDifferentUser
			cls.Channel = m.channel
			return cls, d.conflict(ctx, businessID, cls.Kind, m.channel, &DifferentUserConflictError{
				Identifier:      m.identifier,
				Channel:         m.channel,
				BusinessID:      businessID,
				ExistingUserID:  existing,
				AttemptedUserID: *identity.AccountID,
			})
		}
		if same == nil {
			same = m
		}
	}

	switch {
	case same != nil:
		cls.Kind = KindSameIdentity
		cls.Channel = same.channel
	case cls.ByEmail != nil:
		cls.Kind = KindGuestMatch
	default:
		cls.Kind = KindNoMatch
	}
	return cls, nil
}

func (d *Detector) conflict(ctx context.Context, businessID uint, kind Kind, channel Channel, err error) error {
	logger.FromContext(ctx).Warn("Customer identity conflict",
		zap.Uint("business_id", businessID),
		zap.String("kind", kind.String()),
		zap.String("channel", string(channel)),
		zap.Error(err))
	prometheus.RecordConflict(kind.String(), string(channel))
	return err
}
