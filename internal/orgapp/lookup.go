// Package orgapp resolves organization applications by their opaque
// identifier. It sits outside the resolution core; the resolvers only consume
// the organization id it yields.
package orgapp

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"proctorwis.org/internal/tracking"
)

// App is an organization-application record.
type App struct {
	ID             int64  `json:"id"`
	UUID           string `json:"uuid"`
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
}

type Lookup struct {
	db *sql.DB
}

func NewLookup(db *sql.DB) *Lookup {
	return &Lookup{db: db}
}

// Get returns the application for the given identifier, or (nil, nil) when
// absent. Identifiers arrive in separator form; hyphens are stripped before
// the lookup since the stored key carries none.
func (l *Lookup) Get(ctx context.Context, id string) (*App, error) {
	key := strings.ReplaceAll(id, "-", "")
	row := l.db.QueryRowContext(ctx, `
		select id, uuid, organization_id, name from organization_apps where uuid = $1
	`, key)
	var app App
	err := row.Scan(&app.ID, &app.UUID, &app.OrganizationID, &app.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &tracking.StoreError{Op: "org_app_by_uuid", Err: err}
	}
	return &app, nil
}
