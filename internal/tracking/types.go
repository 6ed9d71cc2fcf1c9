// Package tracking resolves spaces and participants by their natural business
// keys and appends face-authentication audit records. All state lives in the
// relational store behind the Store interface; nothing is cached between calls.
package tracking

import (
	"context"
	"encoding/json"
	"time"
)

// Space is a per-organization container for participants. The pair
// (OrganizationID, SpaceCode) is unique.
type Space struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	SpaceCode      string `json:"space_code"`
	SpaceName      string `json:"space_name"`
	OpenResultDays int    `json:"open_result_days"` // retention window, in days
}

// Participant is a tracked person inside a space. (OrganizationID, SpaceID,
// ParticipantCode) is unique; UUID is unique across all organizations.
type Participant struct {
	ID                  int64     `json:"id"`
	UUID                string    `json:"uuid"` // 32 hex chars, no separators
	OrganizationID      int64     `json:"organization_id"`
	SpaceID             int64     `json:"space_id"`
	ParticipantCode     string    `json:"participant_code"`
	ParticipantUserCode string    `json:"participant_user_code"`
	ParticipantName     string    `json:"participant_name"`
	ResultClosedAt      time.Time `json:"result_closed_at"`
}

// NewParticipant carries the fields for a participant insert. ResultClosedAt
// is pre-serialized so the stored value matches the retention format exactly.
type NewParticipant struct {
	UUID                string
	OrganizationID      int64
	SpaceID             int64
	ParticipantCode     string
	ParticipantUserCode string
	ParticipantName     string
	ResultClosedAt      string
}

// FaceAuthLog is one immutable authentication-event row. Reason and Logs are
// already-encoded JSON documents; the row is never read back by this package.
type FaceAuthLog struct {
	AuthenticationCode string
	OrganizationID     int64
	SpaceID            int64
	ParticipantID      int64
	IsAuthenticated    bool
	Reason             json.RawMessage
	Logs               json.RawMessage
	Threshold          float64
}

// Store is the relational backend consumed by the resolvers. Point lookups
// return ErrNotFound when no row matches; every other failure is a *StoreError.
type Store interface {
	// WithinTx runs fn against a transaction-scoped view of the store and
	// commits on nil return, rolls back otherwise. Nested calls reuse the
	// enclosing transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error

	SpaceByCode(ctx context.Context, organizationID int64, spaceCode string) (*Space, error)
	SpaceByID(ctx context.Context, id int64) (*Space, error)
	InsertSpace(ctx context.Context, organizationID int64, spaceCode, spaceName string) (int64, error)

	ParticipantByCode(ctx context.Context, organizationID, spaceID int64, participantCode string) (*Participant, error)
	ParticipantByUUID(ctx context.Context, uuid string) (*Participant, error)
	ParticipantByID(ctx context.Context, id int64) (*Participant, error)
	InsertParticipant(ctx context.Context, rec NewParticipant) (int64, error)

	InsertFaceAuthLog(ctx context.Context, rec FaceAuthLog) error
}

// retentionLayout serializes retention deadlines with microsecond precision.
const retentionLayout = "2006-01-02 15:04:05.000000"

// RetentionDeadline computes the result-retention cutoff for a record created
// at now inside a space holding results open for openResultDays. The window is
// a flat 24h-per-day offset. A negative or zero day count is passed through
// unvalidated; what such a window should mean is still an open product
// question.
func RetentionDeadline(now time.Time, openResultDays int) string {
	return now.Add(time.Duration(openResultDays) * 24 * time.Hour).Format(retentionLayout)
}
