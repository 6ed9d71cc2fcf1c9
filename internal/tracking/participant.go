package tracking

import (
	"context"
	"errors"
	"time"

	"proctorwis.org/internal/obs"
)

// ParticipantResolver implements get-or-create for participants keyed by
// (organization, space, participant code). New records get a globally unique
// uuid from the allocator and a retention deadline derived from the space.
type ParticipantResolver struct {
	store Store
	alloc *UUIDAllocator
	now   func() time.Time
}

// ResolverOption configures a ParticipantResolver.
type ResolverOption func(*ParticipantResolver)

// WithClock overrides the creation-time source.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *ParticipantResolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewParticipantResolver(store Store, alloc *UUIDAllocator, opts ...ResolverOption) *ParticipantResolver {
	r := &ParticipantResolver{store: store, alloc: alloc, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the participant for (organizationID, space.ID,
// participantCode), creating it if absent. On a hit the stored record is
// returned unchanged; userCode and name are ignored, same shortcut as
// SpaceResolver. On a miss the create path allocates a non-colliding uuid,
// stamps ResultClosedAt from space.OpenResultDays and re-reads the inserted
// row, all inside one transaction.
//
// The allocator's existence pre-check cannot close the window against a
// concurrent writer inserting the same uuid, so a unique violation on the
// uuid column aborts the transaction and re-enters the generate/check loop
// with a fresh value. A violation on the participant natural key means the
// caller lost a get-or-create race and surfaces as a *StoreError; retrying
// the whole call observes the winner's row.
//
// space.OpenResultDays is used as supplied; see RetentionDeadline.
func (r *ParticipantResolver) GetOrCreate(ctx context.Context, organizationID int64, space Space, participantCode, participantUserCode, participantName string) (Participant, error) {
	for attempt := 0; attempt < r.alloc.maxAttempts; attempt++ {
		out, err := r.resolveOnce(ctx, organizationID, space, participantCode, participantUserCode, participantName)
		if err == nil {
			return out, nil
		}
		if IsUniqueViolation(err, ConstraintParticipantUUID) {
			obs.LogEvent("tracking.uuid_insert_conflict", map[string]any{
				"organization_id": organizationID,
				"space_id":        space.ID,
				"attempt":         attempt + 1,
			})
			continue
		}
		obs.Resolution("participant", "error")
		return Participant{}, err
	}
	obs.Resolution("participant", "error")
	return Participant{}, ErrAllocationExhausted
}

func (r *ParticipantResolver) resolveOnce(ctx context.Context, organizationID int64, space Space, participantCode, participantUserCode, participantName string) (Participant, error) {
	var out Participant
	err := r.store.WithinTx(ctx, func(s Store) error {
		p, err := s.ParticipantByCode(ctx, organizationID, space.ID, participantCode)
		if err == nil {
			out = *p
			obs.Resolution("participant", "hit")
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		id, err := r.alloc.Allocate(ctx, func(ctx context.Context, candidate string) (bool, error) {
			_, err := s.ParticipantByUUID(ctx, candidate)
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		})
		if err != nil {
			return err
		}

		rowID, err := s.InsertParticipant(ctx, NewParticipant{
			UUID:                id,
			OrganizationID:      organizationID,
			SpaceID:             space.ID,
			ParticipantCode:     participantCode,
			ParticipantUserCode: participantUserCode,
			ParticipantName:     participantName,
			ResultClosedAt:      RetentionDeadline(r.now(), space.OpenResultDays),
		})
		if err != nil {
			return err
		}
		p, err = s.ParticipantByID(ctx, rowID)
		if err != nil {
			return err
		}
		out = *p
		obs.Resolution("participant", "created")
		obs.LogEvent("tracking.participant_created", map[string]any{
			"organization_id":  organizationID,
			"space_id":         space.ID,
			"participant_id":   p.ID,
			"participant_uuid": p.UUID,
		})
		return nil
	})
	if err != nil {
		return Participant{}, err
	}
	return out, nil
}
