package tracking

import (
	"context"
	"errors"

	"proctorwis.org/internal/obs"
)

// SpaceResolver implements get-or-create for spaces keyed by
// (organization, space code).
type SpaceResolver struct {
	store Store
}

func NewSpaceResolver(store Store) *SpaceResolver {
	return &SpaceResolver{store: store}
}

// GetOrCreate returns the space for (organizationID, spaceCode), inserting it
// with spaceName first if absent. On a hit the stored record is returned
// unchanged and spaceName is ignored; this is an idempotent read shortcut, not
// a reconciliation. The lookup, insert and re-read run in one transaction so a
// created row is always read back within the same call.
//
// Concurrent callers racing on the same key may both miss the lookup; the
// loser's insert fails on the natural-key constraint and surfaces as a
// *StoreError. Retrying the whole call observes the winner's row.
func (r *SpaceResolver) GetOrCreate(ctx context.Context, organizationID int64, spaceCode, spaceName string) (Space, error) {
	var out Space
	err := r.store.WithinTx(ctx, func(s Store) error {
		sp, err := s.SpaceByCode(ctx, organizationID, spaceCode)
		if err == nil {
			out = *sp
			obs.Resolution("space", "hit")
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		id, err := s.InsertSpace(ctx, organizationID, spaceCode, spaceName)
		if err != nil {
			return err
		}
		// Re-read rather than trusting the insert echo, so defaults and
		// coercions applied by the store are reflected in the result.
		sp, err = s.SpaceByID(ctx, id)
		if err != nil {
			return err
		}
		out = *sp
		obs.Resolution("space", "created")
		obs.LogEvent("tracking.space_created", map[string]any{
			"organization_id": organizationID,
			"space_code":      spaceCode,
			"space_id":        sp.ID,
		})
		return nil
	})
	if err != nil {
		obs.Resolution("space", "error")
		return Space{}, err
	}
	return out, nil
}
