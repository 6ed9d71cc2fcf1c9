package tracking

import "errors"

var (
	// ErrNotFound reports a point lookup that matched no row.
	ErrNotFound = errors.New("tracking: not found")
	// ErrAllocationExhausted reports that uuid generation ran out of attempts
	// without finding a non-colliding value.
	ErrAllocationExhausted = errors.New("tracking: uuid allocation budget exhausted")
	// ErrUniqueViolation marks store failures caused by a unique constraint.
	ErrUniqueViolation = errors.New("tracking: unique constraint violation")
)

// Constraint names enforced by the store schema. The resolvers use them to
// tell a uuid collision apart from a natural-key race.
const (
	ConstraintSpaceCode       = "spaces_organization_id_space_code_key"
	ConstraintParticipantCode = "participants_organization_id_space_id_participant_code_key"
	ConstraintParticipantUUID = "participants_uuid_key"
)

// StoreError wraps any failure from the underlying store, labelled with the
// operation that produced it. Constraint is set when the failure was a unique
// violation and names the violated constraint.
type StoreError struct {
	Op         string
	Constraint string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Constraint != "" {
		return "tracking: store " + e.Op + " (" + e.Constraint + "): " + e.Err.Error()
	}
	return "tracking: store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err is a store failure caused by the named
// unique constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var se *StoreError
	return errors.As(err, &se) && errors.Is(se.Err, ErrUniqueViolation) && se.Constraint == constraint
}
