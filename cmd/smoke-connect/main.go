package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"proctorwis.org/internal/ids"
	"proctorwis.org/internal/obs"
	"proctorwis.org/internal/orgapp"
	"proctorwis.org/internal/params"
	"proctorwis.org/internal/store/pg"
	"proctorwis.org/internal/tracking"
)

// Smoke-tests the full resolution path against a live database: org app
// lookup, space and participant get-or-create, audit append. Destructive only
// in the sense that it leaves smoke rows behind; point it at a scratch schema.
func main() {
	obs.Init()

	dsn := os.Getenv("PROCTOR_PG_DSN")
	if dsn == "" {
		log.Fatal("PROCTOR_PG_DSN is required")
	}

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	orgID := int64(1)
	if raw := os.Getenv("PROCTOR_ORG_ID"); raw != "" {
		orgID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Fatalf("parse PROCTOR_ORG_ID: %v", err)
		}
	}
	if appID := os.Getenv("PROCTOR_ORG_APP_UUID"); appID != "" {
		app, err := orgapp.NewLookup(store.DB()).Get(ctx, appID)
		if err != nil {
			log.Fatalf("org app lookup: %v", err)
		}
		if app == nil {
			log.Fatalf("org app %s not found", appID)
		}
		orgID = app.OrganizationID
	}

	threshold := 0.8
	if client, err := params.New(ctx); err == nil {
		raw, err := client.Get(ctx, "/proctor/face/threshold", "0.8")
		if err != nil {
			log.Fatalf("read threshold parameter: %v", err)
		}
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatalf("parse threshold %q: %v", raw, err)
		}
	} else {
		log.Printf("ssm unavailable, using default threshold: %v", err)
	}

	spaces := tracking.NewSpaceResolver(store)
	space, err := spaces.GetOrCreate(ctx, orgID, "smoke", "Smoke Space")
	if err != nil {
		log.Fatalf("space get-or-create: %v", err)
	}

	participants := tracking.NewParticipantResolver(store, tracking.NewUUIDAllocator())
	participant, err := participants.GetOrCreate(ctx, orgID, space, "smoke-participant", "smoke-user", "Smoke Participant")
	if err != nil {
		log.Fatalf("participant get-or-create: %v", err)
	}
	if len(participant.UUID) != 32 {
		log.Fatalf("unexpected participant uuid %q", participant.UUID)
	}

	// Re-resolve to prove idempotency before touching the audit log.
	again, err := participants.GetOrCreate(ctx, orgID, space, "smoke-participant", "other-user", "Other Name")
	if err != nil {
		log.Fatalf("participant re-resolve: %v", err)
	}
	if again.ID != participant.ID || again.ParticipantName != participant.ParticipantName {
		log.Fatalf("re-resolve mismatch: %+v vs %+v", again, participant)
	}

	audit := tracking.NewAuditLog(store)
	err = audit.Append(ctx, tracking.AuditEntry{
		AuthenticationCode: ids.New(),
		OrganizationID:     orgID,
		SpaceID:            space.ID,
		ParticipantID:      participant.ID,
		IsAuthenticated:    true,
		Reason:             map[string]any{"source": "smoke"},
		Logs:               map[string]any{"frames": 0},
		Threshold:          threshold,
	})
	if err != nil {
		log.Fatalf("audit append: %v", err)
	}

	fmt.Printf("smoke passed: org=%d space=%d participant=%d uuid=%s\n",
		orgID, space.ID, participant.ID, participant.UUID)
}
