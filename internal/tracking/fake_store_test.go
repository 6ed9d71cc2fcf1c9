package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeStore is an in-memory Store that enforces the same unique constraints
// as the relational schema.
type fakeStore struct {
	mu sync.Mutex

	spaces       []Space
	participants []Participant
	authLogs     []FaceAuthLog

	nextSpaceID       int64
	nextParticipantID int64

	spaceInserts       int
	participantInserts int

	// failParticipantInserts makes the next N participant inserts fail with a
	// uuid unique violation, simulating a concurrent writer landing first.
	failParticipantInserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextSpaceID: 1, nextParticipantID: 1}
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return fn(f)
}

func (f *fakeStore) SpaceByCode(ctx context.Context, organizationID int64, spaceCode string) (*Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.spaces {
		if f.spaces[i].OrganizationID == organizationID && f.spaces[i].SpaceCode == spaceCode {
			sp := f.spaces[i]
			return &sp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) SpaceByID(ctx context.Context, id int64) (*Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.spaces {
		if f.spaces[i].ID == id {
			sp := f.spaces[i]
			return &sp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) InsertSpace(ctx context.Context, organizationID int64, spaceCode, spaceName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.spaces {
		if f.spaces[i].OrganizationID == organizationID && f.spaces[i].SpaceCode == spaceCode {
			return 0, uniqueViolation("insert_space", ConstraintSpaceCode)
		}
	}
	f.spaceInserts++
	sp := Space{
		ID:             f.nextSpaceID,
		OrganizationID: organizationID,
		SpaceCode:      spaceCode,
		SpaceName:      spaceName,
		OpenResultDays: 7,
	}
	f.nextSpaceID++
	f.spaces = append(f.spaces, sp)
	return sp.ID, nil
}

func (f *fakeStore) ParticipantByCode(ctx context.Context, organizationID, spaceID int64, participantCode string) (*Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.participants {
		p := f.participants[i]
		if p.OrganizationID == organizationID && p.SpaceID == spaceID && p.ParticipantCode == participantCode {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ParticipantByUUID(ctx context.Context, uuid string) (*Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.participants {
		if f.participants[i].UUID == uuid {
			p := f.participants[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ParticipantByID(ctx context.Context, id int64) (*Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.participants {
		if f.participants[i].ID == id {
			p := f.participants[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) InsertParticipant(ctx context.Context, rec NewParticipant) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failParticipantInserts > 0 {
		f.failParticipantInserts--
		return 0, uniqueViolation("insert_participant", ConstraintParticipantUUID)
	}
	for i := range f.participants {
		p := f.participants[i]
		if p.UUID == rec.UUID {
			return 0, uniqueViolation("insert_participant", ConstraintParticipantUUID)
		}
		if p.OrganizationID == rec.OrganizationID && p.SpaceID == rec.SpaceID && p.ParticipantCode == rec.ParticipantCode {
			return 0, uniqueViolation("insert_participant", ConstraintParticipantCode)
		}
	}
	closedAt, err := time.Parse(retentionLayout, rec.ResultClosedAt)
	if err != nil {
		return 0, &StoreError{Op: "insert_participant", Err: err}
	}
	f.participantInserts++
	p := Participant{
		ID:                  f.nextParticipantID,
		UUID:                rec.UUID,
		OrganizationID:      rec.OrganizationID,
		SpaceID:             rec.SpaceID,
		ParticipantCode:     rec.ParticipantCode,
		ParticipantUserCode: rec.ParticipantUserCode,
		ParticipantName:     rec.ParticipantName,
		ResultClosedAt:      closedAt,
	}
	f.nextParticipantID++
	f.participants = append(f.participants, p)
	return p.ID, nil
}

func (f *fakeStore) InsertFaceAuthLog(ctx context.Context, rec FaceAuthLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authLogs = append(f.authLogs, rec)
	return nil
}

func uniqueViolation(op, constraint string) error {
	return &StoreError{
		Op:         op,
		Constraint: constraint,
		Err:        fmt.Errorf("%w: %s", ErrUniqueViolation, constraint),
	}
}
