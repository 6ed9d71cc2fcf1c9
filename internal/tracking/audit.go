package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	"proctorwis.org/internal/ids"
	"proctorwis.org/internal/obs"
)

// AuditEntry is one face-authentication event to append. Reason and Logs are
// arbitrary structured documents; they are JSON-encoded on the way in.
type AuditEntry struct {
	AuthenticationCode string
	OrganizationID     int64
	SpaceID            int64
	ParticipantID      int64
	IsAuthenticated    bool
	Reason             any
	Logs               any
	Threshold          float64
}

// AuditLog appends immutable face-authentication records. Append-only: no
// idempotency key, no dedup, no read-back. Callers needing at-least-once
// delivery keep their own retry or outbox outside this package.
type AuditLog struct {
	store Store
}

func NewAuditLog(store Store) *AuditLog {
	return &AuditLog{store: store}
}

// Append writes a single row for the entry. Two calls with identical
// arguments produce two rows.
func (a *AuditLog) Append(ctx context.Context, e AuditEntry) error {
	reason, err := json.Marshal(e.Reason)
	if err != nil {
		return fmt.Errorf("tracking: encode reason: %w", err)
	}
	logs, err := json.Marshal(e.Logs)
	if err != nil {
		return fmt.Errorf("tracking: encode logs: %w", err)
	}

	if err := a.store.InsertFaceAuthLog(ctx, FaceAuthLog{
		AuthenticationCode: e.AuthenticationCode,
		OrganizationID:     e.OrganizationID,
		SpaceID:            e.SpaceID,
		ParticipantID:      e.ParticipantID,
		IsAuthenticated:    e.IsAuthenticated,
		Reason:             reason,
		Logs:               logs,
		Threshold:          e.Threshold,
	}); err != nil {
		return err
	}

	obs.LogEvent("tracking.face_auth_logged", map[string]any{
		"correlation_id":      ids.New(),
		"authentication_code": e.AuthenticationCode,
		"organization_id":     e.OrganizationID,
		"space_id":            e.SpaceID,
		"participant_id":      e.ParticipantID,
		"is_authenticated":    e.IsAuthenticated,
	})
	return nil
}
