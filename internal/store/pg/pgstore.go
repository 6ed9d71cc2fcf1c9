// Package pg backs tracking.Store with PostgreSQL through database/sql and
// the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"proctorwis.org/internal/obs"
	"proctorwis.org/internal/tracking"
)

const uniqueViolationCode = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Store struct {
	db *sql.DB // nil on transaction-scoped views
	q  querier
}

var _ tracking.Store = (*Store)(nil)

// Open connects to the given DSN with pool defaults tuned for short
// point-query workloads.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing handle. The caller keeps ownership of db.
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB { return s.db }

// WithinTx runs fn against a transaction-scoped view. A nested call on the
// view reuses the open transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tracking.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin_tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit_tx", err)
	}
	return nil
}

func (s *Store) SpaceByCode(ctx context.Context, organizationID int64, spaceCode string) (*tracking.Space, error) {
	defer obs.StoreOp("space_by_code", time.Now())
	row := s.q.QueryRowContext(ctx, `
		select id, organization_id, space_code, space_name, open_result_days
		from spaces where organization_id = $1 and space_code = $2
	`, organizationID, spaceCode)
	return scanSpace(row, "space_by_code")
}

func (s *Store) SpaceByID(ctx context.Context, id int64) (*tracking.Space, error) {
	defer obs.StoreOp("space_by_id", time.Now())
	row := s.q.QueryRowContext(ctx, `
		select id, organization_id, space_code, space_name, open_result_days
		from spaces where id = $1
	`, id)
	return scanSpace(row, "space_by_id")
}

func (s *Store) InsertSpace(ctx context.Context, organizationID int64, spaceCode, spaceName string) (int64, error) {
	defer obs.StoreOp("insert_space", time.Now())
	var id int64
	err := s.q.QueryRowContext(ctx, `
		insert into spaces(organization_id, space_code, space_name)
		values($1, $2, $3) returning id
	`, organizationID, spaceCode, spaceName).Scan(&id)
	if err != nil {
		return 0, storeErr("insert_space", err)
	}
	return id, nil
}

func (s *Store) ParticipantByCode(ctx context.Context, organizationID, spaceID int64, participantCode string) (*tracking.Participant, error) {
	defer obs.StoreOp("participant_by_code", time.Now())
	row := s.q.QueryRowContext(ctx, `
		select id, uuid, organization_id, space_id, participant_code, participant_user_code, participant_name, result_closed_at
		from participants where organization_id = $1 and space_id = $2 and participant_code = $3
	`, organizationID, spaceID, participantCode)
	return scanParticipant(row, "participant_by_code")
}

func (s *Store) ParticipantByUUID(ctx context.Context, uuid string) (*tracking.Participant, error) {
	defer obs.StoreOp("participant_by_uuid", time.Now())
	row := s.q.QueryRowContext(ctx, `
		select id, uuid, organization_id, space_id, participant_code, participant_user_code, participant_name, result_closed_at
		from participants where uuid = $1
	`, uuid)
	return scanParticipant(row, "participant_by_uuid")
}

func (s *Store) ParticipantByID(ctx context.Context, id int64) (*tracking.Participant, error) {
	defer obs.StoreOp("participant_by_id", time.Now())
	row := s.q.QueryRowContext(ctx, `
		select id, uuid, organization_id, space_id, participant_code, participant_user_code, participant_name, result_closed_at
		from participants where id = $1
	`, id)
	return scanParticipant(row, "participant_by_id")
}

func (s *Store) InsertParticipant(ctx context.Context, rec tracking.NewParticipant) (int64, error) {
	defer obs.StoreOp("insert_participant", time.Now())
	var id int64
	err := s.q.QueryRowContext(ctx, `
		insert into participants(uuid, organization_id, space_id, participant_code, participant_user_code, participant_name, result_closed_at)
		values($1, $2, $3, $4, $5, $6, $7) returning id
	`, rec.UUID, rec.OrganizationID, rec.SpaceID, rec.ParticipantCode, rec.ParticipantUserCode, rec.ParticipantName, rec.ResultClosedAt).Scan(&id)
	if err != nil {
		return 0, storeErr("insert_participant", err)
	}
	return id, nil
}

func (s *Store) InsertFaceAuthLog(ctx context.Context, rec tracking.FaceAuthLog) error {
	defer obs.StoreOp("insert_face_auth_log", time.Now())
	_, err := s.q.ExecContext(ctx, `
		insert into face_auth_logs(authentication_code, organization_id, space_id, participant_id, is_authenticated, reason, logs, threshold)
		values($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.AuthenticationCode, rec.OrganizationID, rec.SpaceID, rec.ParticipantID, rec.IsAuthenticated, []byte(rec.Reason), []byte(rec.Logs), rec.Threshold)
	if err != nil {
		return storeErr("insert_face_auth_log", err)
	}
	return nil
}

func scanSpace(row *sql.Row, op string) (*tracking.Space, error) {
	var sp tracking.Space
	err := row.Scan(&sp.ID, &sp.OrganizationID, &sp.SpaceCode, &sp.SpaceName, &sp.OpenResultDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracking.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return &sp, nil
}

func scanParticipant(row *sql.Row, op string) (*tracking.Participant, error) {
	var p tracking.Participant
	err := row.Scan(&p.ID, &p.UUID, &p.OrganizationID, &p.SpaceID, &p.ParticipantCode, &p.ParticipantUserCode, &p.ParticipantName, &p.ResultClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracking.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return &p, nil
}

func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &tracking.StoreError{
			Op:         op,
			Constraint: pgErr.ConstraintName,
			Err:        fmt.Errorf("%w: %s", tracking.ErrUniqueViolation, pgErr.Message),
		}
	}
	return &tracking.StoreError{Op: op, Err: err}
}
